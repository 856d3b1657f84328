package reactor

import (
	"runtime"
	"time"

	"github.com/vireldb/core/affinity"
	"github.com/vireldb/core/ael"
)

// RunOptions configures Run's behavior beyond the default all-events,
// both-hooks iteration.
type RunOptions struct {
	// PinCPU, if >= 0, pins the calling OS thread to that logical CPU for
	// the duration of Run. Best-effort: a platform without affinity support
	// logs and continues unpinned.
	PinCPU int
}

// Run repeatedly processes one iteration with all events and both hooks
// enabled until Stop is called or a fatal backend error occurs.
func (l *Loop) Run(opts RunOptions) error {
	if opts.PinCPU >= 0 {
		// Affinity is a property of the OS thread, not the goroutine; pin
		// this goroutine to its current thread first or the scheduler is
		// free to move it elsewhere and the pin becomes meaningless.
		runtime.LockOSThread()
		if err := affinity.SetAffinity(opts.PinCPU); err != nil {
			l.log.Warnw("reactor: cpu pin failed, continuing unpinned", "cpu", opts.PinCPU, "err", err.Error())
		}
	}

	const flags = ael.AllEvents | ael.CallBeforeSleep | ael.CallAfterSleep
	for !l.stop {
		if _, err := l.ProcessEvents(flags); err != nil {
			return err
		}
	}
	return nil
}

// Wait blocks for up to timeout for fd to become ready in the directions
// given by mask, independent of the loop's own registrations. Returns the
// subset of mask that became ready, or an error from the backend.
//
// Wait uses a throwaway poller of the same kind as the loop's own backend
// so it does not disturb fd's existing registration, if any.
func Wait(newPoller func() (ael.Poller, error), fd int, mask int, timeout time.Duration) (int, error) {
	p, err := newPoller()
	if err != nil {
		return 0, err
	}
	defer p.Close()

	if err := p.Resize(fd + 1); err != nil {
		return 0, err
	}
	if err := p.AddEvent(fd, mask); err != nil {
		return 0, err
	}

	fired := make([]ael.FiredEvent, 1)
	n, err := p.Poll(fired, &timeout)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return ael.NONE, nil
	}
	return fired[0].Mask & mask, nil
}

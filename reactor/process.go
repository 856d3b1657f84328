package reactor

import (
	"time"

	"github.com/vireldb/core/ael"
)

// ProcessEvents runs one iteration of the loop and returns the number of
// file and time events dispatched, or an error from a fatal backend
// failure. flags is an OR of ael.FileEvents, ael.TimeEvents, ael.DontWait,
// ael.CallBeforeSleep, and ael.CallAfterSleep.
func (l *Loop) ProcessEvents(flags int) (int, error) {
	if flags&ael.AllEvents == 0 {
		return 0, nil
	}

	l.checkClockSkew()

	timeout := l.computeTimeout(flags)

	if flags&ael.CallBeforeSleep != 0 && l.beforeSleep != nil {
		l.beforeSleep(l)
	}

	n, err := l.poller.Poll(l.fired, timeout)
	if err != nil {
		if err == ael.ErrBackendClosed {
			return 0, err
		}
		// Retryable backend errors (e.g. EINTR) surface as zero fired
		// events; only the backend knows which of its errors are fatal, so
		// anything it didn't already swallow is treated as fatal here.
		return -1, err
	}

	if flags&ael.CallAfterSleep != 0 && l.afterSleep != nil {
		l.afterSleep(l)
	}

	processed := 0
	if flags&ael.FileEvents != 0 {
		for i := 0; i < n; i++ {
			l.dispatchQ.Push(l.fired[i])
		}
		processed += l.dispatchFileEvents()
	}
	if flags&ael.TimeEvents != 0 {
		processed += l.dispatchTimers()
	}
	return processed, nil
}

// computeTimeout determines how long the backend poll should block: nil
// means indefinitely, a zero duration means do not block. Time events are
// only consulted when requested and DontWait is not set.
func (l *Loop) computeTimeout(flags int) *time.Duration {
	if flags&ael.DontWait != 0 {
		zero := time.Duration(0)
		return &zero
	}
	if flags&ael.TimeEvents == 0 {
		return nil
	}
	deadline, ok := l.nearestTimerDeadline()
	if !ok {
		return nil
	}
	remaining := deadline - nowMillis()
	if remaining < 0 {
		remaining = 0
	}
	d := time.Duration(remaining) * time.Millisecond
	return &d
}

// dispatchFileEvents drains the events staged in l.dispatchQ by the most
// recent Poll call. For each ready fd, read and write fire in a fixed
// order — read before write normally, write before read under BARRIER —
// and the second direction is skipped if it shares the exact same
// procedure as the one already fired this iteration (the
// level-triggered-backend de-dup rule).
func (l *Loop) dispatchFileEvents() int {
	dispatched := 0
	for {
		fe, ok := l.dispatchQ.Pop()
		if !ok {
			break
		}
		if fe.Fd < 0 || fe.Fd >= l.setsize {
			continue
		}
		reg := &l.registered[fe.Fd]
		invert := reg.mask&ael.BARRIER != 0

		readReady := fe.Mask&ael.READABLE != 0 && reg.mask&ael.READABLE != 0
		writeReady := fe.Mask&ael.WRITABLE != 0 && reg.mask&ael.WRITABLE != 0
		fired := false

		if !invert && readReady && reg.onRead != nil {
			reg.onRead(l, fe.Fd, nil, ael.READABLE)
			dispatched++
			fired = true
		}
		if writeReady && reg.onWrite != nil {
			if !fired || !funcEqual(reg.onRead, reg.onWrite) {
				reg.onWrite(l, fe.Fd, nil, ael.WRITABLE)
				dispatched++
				fired = true
			}
		}
		if invert && readReady && reg.onRead != nil {
			if !fired || !funcEqual(reg.onRead, reg.onWrite) {
				reg.onRead(l, fe.Fd, nil, ael.READABLE)
				dispatched++
			}
		}
	}
	return dispatched
}

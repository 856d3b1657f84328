// Package reactor implements a single-threaded, cooperative event loop
// multiplexing file-descriptor readiness with time-driven callbacks. It is
// the runtime substrate a higher-level server drives directly: register
// interest in fds and timers, then call Run (or step ProcessEvents by hand)
// from one goroutine. There is no internal locking; callbacks run on the
// loop's own goroutine and must not block except at the documented
// suspension point (the backend poll call).
package reactor

import (
	"fmt"
	"time"

	"github.com/vireldb/core/ael"
	"github.com/vireldb/core/internal/evqueue"
	"github.com/vireldb/core/internal/telemetry"
)

// fileEvent is one fd's registration: the OR-combined mask and one callback
// per direction. At most one registration per (fd, direction).
type fileEvent struct {
	mask    int
	onRead  ael.FileProc
	onWrite ael.FileProc
}

// Loop is a reactor instance. The zero value is not usable; construct with
// New.
type Loop struct {
	setsize int
	maxfd   int // highest fd with a non-empty mask, or -1

	registered []fileEvent
	fired      []ael.FiredEvent

	timers       map[int64]*timerNode
	timerHead    *timerNode // most recently created, head of the list
	nextTimerID  int64
	dispatchQ    *evqueue.Queue

	poller ael.Poller

	beforeSleep ael.BeforeSleepProc
	afterSleep  ael.BeforeSleepProc

	lastTime int64 // last observed wall-clock second, for skew detection
	stop     bool

	log *telemetry.Logger
}

// Option configures a Loop at construction.
type Option func(*Loop)

// WithBeforeSleep installs the hook invoked just before the blocking poll,
// e.g. to flush pending output so descriptors go idle before blocking.
func WithBeforeSleep(fn ael.BeforeSleepProc) Option {
	return func(l *Loop) { l.beforeSleep = fn }
}

// WithAfterSleep installs the hook invoked just after the blocking poll
// returns.
func WithAfterSleep(fn ael.BeforeSleepProc) Option {
	return func(l *Loop) { l.afterSleep = fn }
}

// WithLogger attaches structured logging for loop lifecycle events.
func WithLogger(log *telemetry.Logger) Option {
	return func(l *Loop) { l.log = log }
}

// New allocates a Loop with room for setsize file descriptors, backed by
// poller. The caller owns poller's lifetime via Loop.Close.
func New(setsize int, poller ael.Poller, opts ...Option) (*Loop, error) {
	if setsize <= 0 {
		return nil, fmt.Errorf("reactor: setsize must be positive, got %d", setsize)
	}
	if err := poller.Resize(setsize); err != nil {
		return nil, fmt.Errorf("reactor: backend resize: %w", err)
	}
	l := &Loop{
		setsize:    setsize,
		maxfd:      -1,
		registered: make([]fileEvent, setsize),
		fired:      make([]ael.FiredEvent, setsize),
		timers:     make(map[int64]*timerNode),
		dispatchQ:  evqueue.New(),
		poller:     poller,
		lastTime:   time.Now().Unix(),
		log:        telemetry.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Register OR-combines mask into fd's registration, installing onRead
// and/or onWrite for the newly requested directions, and asks the backend
// to watch the union of directions now registered. Fails if fd is outside
// the loop's setsize.
func (l *Loop) Register(fd int, mask int, onRead, onWrite ael.FileProc) error {
	if fd < 0 || fd >= l.setsize {
		return fmt.Errorf("reactor: register fd=%d: %w", fd, ael.ErrFDOutOfRange)
	}
	reg := &l.registered[fd]
	reg.mask |= mask
	if mask&ael.READABLE != 0 {
		reg.onRead = onRead
	}
	if mask&ael.WRITABLE != 0 {
		reg.onWrite = onWrite
	}
	if err := l.poller.AddEvent(fd, reg.mask); err != nil {
		return fmt.Errorf("reactor: backend add fd=%d: %w", fd, err)
	}
	if fd > l.maxfd {
		l.maxfd = fd
	}
	return nil
}

// Unregister clears the requested bits from fd's registration. If the
// result is NONE, the backend watch is dropped and maxfd adjusted
// downward. A no-op for fds that are not currently registered.
func (l *Loop) Unregister(fd int, mask int) {
	if fd < 0 || fd >= l.setsize {
		return
	}
	reg := &l.registered[fd]
	if reg.mask == ael.NONE {
		return
	}
	reg.mask &^= mask
	if mask&ael.READABLE != 0 {
		reg.onRead = nil
	}
	if mask&ael.WRITABLE != 0 {
		reg.onWrite = nil
	}
	l.poller.DelEvent(fd, mask)

	if fd == l.maxfd && reg.mask == ael.NONE {
		for l.maxfd >= 0 && l.registered[l.maxfd].mask == ael.NONE {
			l.maxfd--
		}
	}
}

// GetMask returns fd's current registered mask, or NONE.
func (l *Loop) GetMask(fd int) int {
	if fd < 0 || fd >= l.setsize {
		return ael.NONE
	}
	return l.registered[fd].mask
}

// Stop requests that Run exit after the current iteration completes.
func (l *Loop) Stop() { l.stop = true }

// Close releases the backend's resources. The loop must not be used
// afterward.
func (l *Loop) Close() error {
	return l.poller.Close()
}

package ael

import "time"

// FiredEvent is a single readiness notification returned by a Poller for
// one iteration.
type FiredEvent struct {
	Fd   int
	Mask int // subset of READABLE|WRITABLE
}

// Poller is the narrow capability a reactor Loop requires from its
// multiplexing backend. Any edge- or level-triggered primitive satisfies
// this contract; spurious level-triggered repeats are masked by the
// reactor's own dispatch logic, not by the backend.
type Poller interface {
	// Resize grows the backend's internal capacity to setsize.
	Resize(setsize int) error

	// AddEvent starts watching fd for the directions in mask (READABLE and/or
	// WRITABLE). Called with the union of directions currently registered.
	AddEvent(fd int, mask int) error

	// DelEvent stops watching the directions in removedMask for fd. If the
	// resulting watch is empty the backend drops fd entirely.
	DelEvent(fd int, removedMask int)

	// Poll blocks for up to timeout (nil means block indefinitely, zero
	// means do not block) and writes ready descriptors into fired, which is
	// reused across calls and must not be retained past the call. Returns
	// the number of events written.
	Poll(fired []FiredEvent, timeout *time.Duration) (n int, err error)

	// Name identifies the backend, e.g. "epoll", "stub".
	Name() string

	// Close releases backend resources.
	Close() error
}

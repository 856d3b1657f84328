//go:build !linux

package reactor

import (
	"sync"
	"time"

	"github.com/vireldb/core/ael"
)

// portablePoller is the fallback backend for platforms without a native
// epoll/kqueue binding wired in. It does not actually watch OS-level
// readiness; it exists so the reactor package builds and its non-backend
// logic (timers, registration bookkeeping, barrier dispatch) is exercisable
// on any platform. Poll always waits out its timeout and reports no fired
// events. Platforms that need real fd multiplexing should provide a Poller
// grounded the way poller_linux.go is.
type portablePoller struct {
	mu      sync.Mutex
	setsize int
	closed  bool
}

// NewPortablePoller returns the stub backend used on platforms without a
// native Poller implementation.
func NewPortablePoller() (ael.Poller, error) {
	return &portablePoller{}, nil
}

func (p *portablePoller) Resize(setsize int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setsize = setsize
	return nil
}

func (p *portablePoller) AddEvent(fd int, mask int) error {
	if fd < 0 || fd >= p.setsize {
		return ael.ErrFDOutOfRange
	}
	return nil
}

func (p *portablePoller) DelEvent(fd int, removedMask int) {}

func (p *portablePoller) Poll(fired []ael.FiredEvent, timeout *time.Duration) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, ael.ErrBackendClosed
	}
	if timeout == nil {
		select {}
	}
	time.Sleep(*timeout)
	return 0, nil
}

func (p *portablePoller) Name() string { return "portable-stub" }

func (p *portablePoller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

package reactor

import (
	"time"

	"github.com/vireldb/core/ael"
)

// fakePoller is a deterministic, in-memory ael.Poller for tests: callers
// queue the events a Poll call should report via Queue, and Poll simply
// drains up to len(fired) of them without ever actually blocking on real
// I/O.
type fakePoller struct {
	setsize int
	queued  []ael.FiredEvent
	closed  bool

	addCalls []fakeAddCall
	delCalls []fakeDelCall
}

type fakeAddCall struct {
	Fd   int
	Mask int
}

type fakeDelCall struct {
	Fd          int
	RemovedMask int
}

func newFakePoller() *fakePoller { return &fakePoller{} }

// Queue appends events to be returned by the next Poll call(s).
func (p *fakePoller) Queue(events ...ael.FiredEvent) {
	p.queued = append(p.queued, events...)
}

func (p *fakePoller) Resize(setsize int) error {
	p.setsize = setsize
	return nil
}

func (p *fakePoller) AddEvent(fd int, mask int) error {
	p.addCalls = append(p.addCalls, fakeAddCall{fd, mask})
	return nil
}

func (p *fakePoller) DelEvent(fd int, removedMask int) {
	p.delCalls = append(p.delCalls, fakeDelCall{fd, removedMask})
}

func (p *fakePoller) Poll(fired []ael.FiredEvent, timeout *time.Duration) (int, error) {
	if p.closed {
		return 0, ael.ErrBackendClosed
	}
	if len(p.queued) == 0 && timeout != nil && *timeout > 0 {
		time.Sleep(*timeout)
	}
	n := copy(fired, p.queued)
	p.queued = p.queued[n:]
	return n, nil
}

func (p *fakePoller) Name() string { return "fake" }

func (p *fakePoller) Close() error {
	p.closed = true
	return nil
}

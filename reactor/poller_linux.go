//go:build linux

package reactor

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/vireldb/core/ael"
)

// epollPoller is the Linux backend, grounded on level-triggered epoll(7).
// It tracks each fd's currently-watched directions so AddEvent/DelEvent can
// choose between EPOLL_CTL_ADD, _MOD and _DEL correctly.
type epollPoller struct {
	epfd    int
	watched []int // per-fd ael mask currently registered with epoll, or -1 if unwatched
	raw     []unix.EpollEvent
	closed  bool
}

// NewEpollPoller creates an ael.Poller backed by Linux epoll.
func NewEpollPoller() (ael.Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &epollPoller{epfd: epfd}, nil
}

func (p *epollPoller) Resize(setsize int) error {
	watched := make([]int, setsize)
	for i := range watched {
		watched[i] = -1
	}
	copy(watched, p.watched)
	for i := len(p.watched); i < setsize; i++ {
		watched[i] = -1
	}
	p.watched = watched
	p.raw = make([]unix.EpollEvent, setsize)
	return nil
}

func toEpollEvents(mask int) uint32 {
	var events uint32
	if mask&ael.READABLE != 0 {
		events |= unix.EPOLLIN
	}
	if mask&ael.WRITABLE != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

func (p *epollPoller) AddEvent(fd int, mask int) error {
	if p.closed {
		return ael.ErrBackendClosed
	}
	if fd < 0 || fd >= len(p.watched) {
		return ael.ErrFDOutOfRange
	}
	ev := unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	op := unix.EPOLL_CTL_ADD
	if p.watched[fd] != -1 {
		op = unix.EPOLL_CTL_MOD
	}
	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl fd=%d: %w", fd, err)
	}
	p.watched[fd] = mask
	return nil
}

func (p *epollPoller) DelEvent(fd int, removedMask int) {
	if p.closed || fd < 0 || fd >= len(p.watched) || p.watched[fd] == -1 {
		return
	}
	remaining := p.watched[fd] &^ removedMask
	if remaining == ael.NONE {
		_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
		p.watched[fd] = -1
		return
	}
	ev := unix.EpollEvent{Events: toEpollEvents(remaining), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err == nil {
		p.watched[fd] = remaining
	}
}

func (p *epollPoller) Poll(fired []ael.FiredEvent, timeout *time.Duration) (int, error) {
	if p.closed {
		return 0, ael.ErrBackendClosed
	}
	ms := -1
	if timeout != nil {
		ms = int(timeout.Milliseconds())
	}
	n, err := unix.EpollWait(p.epfd, p.raw, ms)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("reactor: epoll_wait: %w", err)
	}
	max := n
	if max > len(fired) {
		max = len(fired)
	}
	for i := 0; i < max; i++ {
		ev := p.raw[i]
		mask := ael.NONE
		if ev.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			mask |= ael.READABLE
		}
		if ev.Events&(unix.EPOLLOUT|unix.EPOLLERR) != 0 {
			mask |= ael.WRITABLE
		}
		fired[i] = ael.FiredEvent{Fd: int(ev.Fd), Mask: mask}
	}
	return max, nil
}

func (p *epollPoller) Name() string { return "epoll" }

func (p *epollPoller) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.epfd)
}

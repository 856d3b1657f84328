package reactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireldb/core/ael"
)

func newTestLoop(t *testing.T) (*Loop, *fakePoller) {
	t.Helper()
	p := newFakePoller()
	l, err := New(16, p)
	require.NoError(t, err)
	return l, p
}

func TestRegisterUnregisterMaskInvariant(t *testing.T) {
	l, _ := newTestLoop(t)

	require.NoError(t, l.Register(3, ael.READABLE|ael.WRITABLE, nil, nil))
	assert.Equal(t, ael.READABLE|ael.WRITABLE, l.GetMask(3))

	l.Unregister(3, ael.WRITABLE)
	assert.Equal(t, ael.READABLE, l.GetMask(3))

	l.Unregister(3, ael.READABLE)
	assert.Equal(t, ael.NONE, l.GetMask(3))
}

func TestRegisterOutOfRange(t *testing.T) {
	l, _ := newTestLoop(t)
	err := l.Register(100, ael.READABLE, nil, nil)
	assert.ErrorIs(t, err, ael.ErrFDOutOfRange)
}

func TestMaxFdTracksHighestRegisteredFd(t *testing.T) {
	l, _ := newTestLoop(t)
	assert.Equal(t, -1, l.maxfd)

	require.NoError(t, l.Register(2, ael.READABLE, nil, nil))
	require.NoError(t, l.Register(5, ael.READABLE, nil, nil))
	assert.Equal(t, 5, l.maxfd)

	l.Unregister(5, ael.READABLE)
	assert.Equal(t, 2, l.maxfd)

	l.Unregister(2, ael.READABLE)
	assert.Equal(t, -1, l.maxfd)
}

func TestBarrierOrdersWriteBeforeRead(t *testing.T) {
	l, p := newTestLoop(t)

	var order []string
	onRead := func(loop ael.Loop, fd int, _ any, _ int) { order = append(order, "read") }
	onWrite := func(loop ael.Loop, fd int, _ any, _ int) { order = append(order, "write") }

	require.NoError(t, l.Register(4, ael.READABLE|ael.WRITABLE|ael.BARRIER, onRead, onWrite))
	p.Queue(ael.FiredEvent{Fd: 4, Mask: ael.READABLE | ael.WRITABLE})

	n, err := l.ProcessEvents(ael.FileEvents | ael.DontWait)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"write", "read"}, order)
}

func TestNoBarrierOrdersReadBeforeWrite(t *testing.T) {
	l, p := newTestLoop(t)

	var order []string
	onRead := func(loop ael.Loop, fd int, _ any, _ int) { order = append(order, "read") }
	onWrite := func(loop ael.Loop, fd int, _ any, _ int) { order = append(order, "write") }

	require.NoError(t, l.Register(4, ael.READABLE|ael.WRITABLE, onRead, onWrite))
	p.Queue(ael.FiredEvent{Fd: 4, Mask: ael.READABLE | ael.WRITABLE})

	n, err := l.ProcessEvents(ael.FileEvents | ael.DontWait)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"read", "write"}, order)
}

func TestSharedProcFiresOnlyOnceForBothDirections(t *testing.T) {
	l, p := newTestLoop(t)

	calls := 0
	shared := func(loop ael.Loop, fd int, _ any, mask int) { calls++ }

	require.NoError(t, l.Register(4, ael.READABLE|ael.WRITABLE, shared, shared))
	p.Queue(ael.FiredEvent{Fd: 4, Mask: ael.READABLE | ael.WRITABLE})

	n, err := l.ProcessEvents(ael.FileEvents | ael.DontWait)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "same proc for both directions must fire exactly once")
	assert.Equal(t, 1, calls)
}

func TestSharedProcFiresOnlyOnceUnderBarrier(t *testing.T) {
	l, p := newTestLoop(t)

	calls := 0
	shared := func(loop ael.Loop, fd int, _ any, mask int) { calls++ }

	require.NoError(t, l.Register(4, ael.READABLE|ael.WRITABLE|ael.BARRIER, shared, shared))
	p.Queue(ael.FiredEvent{Fd: 4, Mask: ael.READABLE | ael.WRITABLE})

	n, err := l.ProcessEvents(ael.FileEvents | ael.DontWait)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "same proc for both directions must fire exactly once even under BARRIER")
	assert.Equal(t, 1, calls)
}

func TestTimerFiresAfterDeadline(t *testing.T) {
	l, _ := newTestLoop(t)

	fired := make(chan time.Time, 1)
	start := time.Now()
	_, err := l.CreateTimer(30, func(loop ael.Loop, id int64, userdata any) int {
		fired <- time.Now()
		return ael.NoMore
	}, nil, nil)
	require.NoError(t, err)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, err := l.ProcessEvents(ael.AllEvents); err != nil {
			t.Fatalf("ProcessEvents: %v", err)
		}
		select {
		case firedAt := <-fired:
			elapsed := firedAt.Sub(start)
			assert.GreaterOrEqual(t, elapsed.Milliseconds(), int64(30))
			return
		default:
		}
	}
	t.Fatal("timer never fired within 500ms")
}

func TestTimerRescheduleAndFinalizer(t *testing.T) {
	l, _ := newTestLoop(t)

	var fireCount int
	finalized := make(chan struct{}, 1)

	_, err := l.CreateTimer(10, func(loop ael.Loop, id int64, userdata any) int {
		fireCount++
		if fireCount >= 3 {
			return ael.NoMore
		}
		return 10
	}, nil, func(loop ael.Loop, userdata any) {
		finalized <- struct{}{}
	})
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := l.ProcessEvents(ael.AllEvents); err != nil {
			t.Fatalf("ProcessEvents: %v", err)
		}
		select {
		case <-finalized:
			assert.Equal(t, 3, fireCount)
			return
		default:
		}
	}
	t.Fatal("timer did not reschedule to completion within 2s")
}

func TestDeleteTimerTwiceAndUnknownIdBothError(t *testing.T) {
	l, _ := newTestLoop(t)

	id, err := l.CreateTimer(10_000, func(loop ael.Loop, id int64, userdata any) int { return ael.NoMore }, nil, nil)
	require.NoError(t, err)

	require.NoError(t, l.DeleteTimer(id))
	assert.ErrorIs(t, l.DeleteTimer(id), ael.ErrTimerNotFound)
	assert.ErrorIs(t, l.DeleteTimer(999999), ael.ErrTimerNotFound)
}

func TestClockSkewForcesTimersDue(t *testing.T) {
	l, _ := newTestLoop(t)

	_, err := l.CreateTimer(10_000, func(loop ael.Loop, id int64, userdata any) int { return ael.NoMore }, nil, nil)
	require.NoError(t, err)

	deadline, ok := l.nearestTimerDeadline()
	require.True(t, ok)
	assert.Greater(t, deadline, nowMillis())

	// Simulate the wall clock having jumped backward since the last
	// iteration.
	l.lastTime = time.Now().Unix() + 3600
	l.checkClockSkew()

	deadline, ok = l.nearestTimerDeadline()
	require.True(t, ok)
	assert.LessOrEqual(t, deadline, nowMillis())
}

func TestProcessEventsNoEventsRequestedReturnsZero(t *testing.T) {
	l, _ := newTestLoop(t)
	n, err := l.ProcessEvents(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUnregisterUnknownFdIsNoop(t *testing.T) {
	l, _ := newTestLoop(t)
	l.Unregister(7, ael.READABLE)
	assert.Equal(t, ael.NONE, l.GetMask(7))
}

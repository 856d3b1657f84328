// Package evqueue stages fired backend events between one Poller.Poll call
// and the reactor's barrier-ordered dispatch pass. The backend's scratch
// array is only valid for the duration of the Poll call and is reused on
// the next one, so events read off it are copied into this queue before the
// barrier-ordering logic walks them — decoupling "how many fired events fit
// in one syscall batch" from "how many the dispatch loop processes".
package evqueue

import (
	"github.com/eapache/queue"

	"github.com/vireldb/core/ael"
)

// Queue is a growable FIFO of ael.FiredEvent, backed by eapache/queue's
// amortized-O(1) ring buffer.
type Queue struct {
	q *queue.Queue
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{q: queue.New()}
}

// Push appends ev to the tail.
func (q *Queue) Push(ev ael.FiredEvent) {
	q.q.Add(ev)
}

// Pop removes and returns the head event. ok is false if the queue is empty.
func (q *Queue) Pop() (ev ael.FiredEvent, ok bool) {
	if q.q.Length() == 0 {
		return ael.FiredEvent{}, false
	}
	v := q.q.Peek()
	q.q.Remove()
	return v.(ael.FiredEvent), true
}

// Len reports the number of staged events.
func (q *Queue) Len() int {
	return q.q.Length()
}

package reactor

import "github.com/vireldb/core/ael"

// timerNode is one entry in the timer list: a doubly linked node so that a
// timer can be unlinked in O(1) once its refcount drops to zero. New timers
// are inserted at the head.
type timerNode struct {
	id       int64
	deadline int64 // unix millis
	proc     ael.TimeProc
	finalizer ael.FinalizerProc
	userdata any
	refcount int

	prev, next *timerNode
}

// CreateTimer schedules proc to fire once afterMs from now, inserting the
// new timer at the head of the list. The returned id is unique for the
// lifetime of the loop and is used later by DeleteTimer.
func (l *Loop) CreateTimer(afterMs int64, proc ael.TimeProc, userdata any, finalizer ael.FinalizerProc) (int64, error) {
	id := l.nextTimerID
	l.nextTimerID++

	t := &timerNode{
		id:        id,
		deadline:  nowMillis() + afterMs,
		proc:      proc,
		finalizer: finalizer,
		userdata:  userdata,
	}
	t.next = l.timerHead
	if l.timerHead != nil {
		l.timerHead.prev = t
	}
	l.timerHead = t
	l.timers[id] = t
	return id, nil
}

// DeleteTimer marks a timer logically deleted by setting its id to
// DeletedTimerID. It is not unlinked or freed until its refcount reaches
// zero (it may be mid-dispatch on the call stack that invoked DeleteTimer).
func (l *Loop) DeleteTimer(id int64) error {
	t, ok := l.timers[id]
	if !ok {
		return ael.ErrTimerNotFound
	}
	t.id = ael.DeletedTimerID
	delete(l.timers, id)
	return nil
}

// unlinkTimer detaches t from the doubly linked list. Safe to call whether
// or not t is the head.
func (l *Loop) unlinkTimer(t *timerNode) {
	if t.prev != nil {
		t.prev.next = t.next
	} else {
		l.timerHead = t.next
	}
	if t.next != nil {
		t.next.prev = t.prev
	}
	t.prev, t.next = nil, nil
}

// nearestTimerDeadline returns the soonest non-deleted timer's deadline and
// true, or (0, false) if there are no live timers.
func (l *Loop) nearestTimerDeadline() (int64, bool) {
	var (
		found    bool
		deadline int64
	)
	for t := l.timerHead; t != nil; t = t.next {
		if t.id == ael.DeletedTimerID {
			continue
		}
		if !found || t.deadline < deadline {
			deadline = t.deadline
			found = true
		}
	}
	return deadline, found
}

// forceAllTimersDue resets every live timer's deadline to now, used on
// detected clock skew so nothing is starved by a clock that jumped
// backward.
func (l *Loop) forceAllTimersDue() {
	now := nowMillis()
	for t := l.timerHead; t != nil; t = t.next {
		if t.id != ael.DeletedTimerID {
			t.deadline = now
		}
	}
}

// dispatchTimers fires every due, non-deleted timer created before this
// call (captured via maxId), applying the TimeProc's return value, then
// sweeps and frees timers that finished deletion during this pass. Returns
// the number of timers fired.
func (l *Loop) dispatchTimers() int {
	maxID := l.nextTimerID - 1
	if maxID < 0 {
		return 0
	}
	now := nowMillis()
	fired := 0

	for t := l.timerHead; t != nil; {
		next := t.next
		if t.id == ael.DeletedTimerID || t.id > maxID {
			t = next
			continue
		}
		if t.deadline <= now {
			t.refcount++
			result := t.proc(l, t.id, t.userdata)
			t.refcount--
			fired++
			if result == ael.NoMore {
				if t.id != ael.DeletedTimerID {
					delete(l.timers, t.id)
				}
				t.id = ael.DeletedTimerID
			} else {
				t.deadline = nowMillis() + int64(result)
			}
		}
		t = next
	}

	for t := l.timerHead; t != nil; {
		next := t.next
		if t.id == ael.DeletedTimerID && t.refcount == 0 {
			l.unlinkTimer(t)
			if t.finalizer != nil {
				t.finalizer(l, t.userdata)
			}
		}
		t = next
	}
	return fired
}

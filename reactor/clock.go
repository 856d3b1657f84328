package reactor

import "time"

func nowMillis() int64 { return time.Now().UnixMilli() }

// checkClockSkew compares the current wall-clock second against the last
// observed one. If time appears to have moved backward, every live timer
// is forced due immediately rather than left waiting for a deadline that
// may now be arbitrarily far in the future. lastTime is updated either way.
func (l *Loop) checkClockSkew() {
	now := time.Now().Unix()
	if now < l.lastTime {
		l.log.Warnw("reactor: clock skew detected, forcing timers due", "prev", l.lastTime, "now", now)
		l.forceAllTimersDue()
	}
	l.lastTime = now
}

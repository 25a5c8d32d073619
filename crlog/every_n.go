package crlog

import (
	"sync/atomic"
	"time"
)

// EveryN provides a way to rate limit spammy log messages, grounded on
// pkg/util/log/every_n.go. The Gather operator uses one to avoid
// flooding the log with a line per latch-wait when workers stall for a
// long time.
type EveryN struct {
	period   time.Duration
	lastUnix atomic.Int64
}

// Every is a convenience constructor for an EveryN that allows one log
// message per period.
func Every(period time.Duration) *EveryN {
	return &EveryN{period: period}
}

// ShouldLog returns whether it's been more than the configured period
// since the last time this returned true.
func (e *EveryN) ShouldLog() bool {
	now := time.Now().UnixNano()
	last := e.lastUnix.Load()
	if now-last < e.period.Nanoseconds() {
		return false
	}
	return e.lastUnix.CompareAndSwap(last, now)
}

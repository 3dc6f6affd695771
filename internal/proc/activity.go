package proc

import (
	"sync/atomic"
	"time"
)

// ActivityClock records the wall-clock time of the last observed output
// line across all supervised processes.
//
// The clock is shared by construction: the Runner advances it, the watchdog
// reads it. It is never a package-level singleton.
//
// Thread-safety: all methods are safe for concurrent use (atomic
// operations). The stored value is monotonically non-decreasing; Touch with
// an earlier timestamp is a no-op.
type ActivityClock struct {
	lastNanos atomic.Int64
}

// NewActivityClock creates a clock initialized to the given time.
func NewActivityClock(start time.Time) *ActivityClock {
	c := &ActivityClock{}
	c.lastNanos.Store(start.UnixNano())
	return c
}

// Touch advances the clock to t. The clock only moves forward: if t is
// earlier than the stored value the call has no effect.
func (c *ActivityClock) Touch(t time.Time) {
	nanos := t.UnixNano()
	for {
		last := c.lastNanos.Load()
		if nanos <= last {
			return
		}
		if c.lastNanos.CompareAndSwap(last, nanos) {
			return
		}
	}
}

// Last returns the time of the most recent activity.
func (c *ActivityClock) Last() time.Time {
	return time.Unix(0, c.lastNanos.Load())
}

// IdleFor returns how long the clock has been idle as of now.
func (c *ActivityClock) IdleFor(now time.Time) time.Duration {
	idle := now.Sub(c.Last())
	if idle < 0 {
		return 0
	}
	return idle
}

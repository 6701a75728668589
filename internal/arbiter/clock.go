package arbiter

import "sync/atomic"

// Clock is a monotonic logical clock for journal record ordering.
//
// Every journaled event, verdict, and decision is stamped with a strictly
// increasing seq from this clock. Ordering never uses wall-clock time, so
// replaying a session reproduces the identical record order.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// though the arbiter's single-context model means one context typically
// calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next() returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used when resuming journaling for an existing session.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

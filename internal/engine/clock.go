package engine

import (
	"sync/atomic"
	"time"
)

// CycleClock counts completed ticks.
//
// Thread-safety: CycleClock is safe for concurrent use (atomic operations).
// Only the tick goroutine calls Next; monitors read Current.
type CycleClock struct {
	seq atomic.Uint64
}

// NewCycleClock creates a counter starting at 0.
func NewCycleClock() *CycleClock {
	return &CycleClock{}
}

// NewCycleClockAt creates a counter starting at a specific cycle.
func NewCycleClockAt(start uint64) *CycleClock {
	c := &CycleClock{}
	c.seq.Store(start)
	return c
}

// Next increments the counter and returns the new cycle number.
func (c *CycleClock) Next() uint64 {
	return c.seq.Add(1)
}

// Current returns the current cycle number without incrementing.
func (c *CycleClock) Current() uint64 {
	return c.seq.Load()
}

// SystemClock is the production time source: microseconds elapsed since
// the clock was created, read from the monotonic clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock starts a system clock at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// NowMicros returns the elapsed time in microseconds.
func (c *SystemClock) NowMicros() uint64 {
	return uint64(time.Since(c.start).Microseconds())
}

package kernel

import (
	"time"

	"vicore/hal"
)

// Counter is a free-running 32-bit hardware tick counter.
type Counter interface {
	Count() uint32
}

// Time is a 64-bit count of counter ticks.
type Time uint64

// Duration converts t to wall time.
func (t Time) Duration() time.Duration {
	secs := uint64(t) / hal.CountRate
	rem := uint64(t) % hal.CountRate
	return time.Duration(secs)*time.Second + time.Duration(rem*uint64(time.Second)/hal.CountRate)
}

// Ticks converts a wall time duration to counter ticks.
func Ticks(d time.Duration) Time {
	if d <= 0 {
		return 0
	}
	secs := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return Time(secs*hal.CountRate + rem*hal.CountRate/uint64(time.Second))
}

// Clock extends the wrapping hardware counter to a monotonic 64-bit time.
//
// The current time is base + (count - baseCount), with the subtraction done
// in 32 bits so a single wrap between two reads is harmless. Accumulate must
// run at least once per wrap (about 91 seconds) to keep that true; the
// retrace handler does it every field.
type Clock struct {
	counter   Counter
	base      Time
	baseCount uint32
}

// NewClock starts a clock at zero from the counter's current value.
func NewClock(counter Counter) *Clock {
	return &Clock{counter: counter, baseCount: counter.Count()}
}

// Now returns the current time.
func (c *Clock) Now(t *Thread) Time {
	m := t.DisableInt()
	count := c.counter.Count()
	elapsed := count - c.baseCount
	base := c.base
	t.RestoreInt(m)
	return base + Time(elapsed)
}

// SetTime calibrates the clock so that Now returns v at this instant.
func (c *Clock) SetTime(t *Thread, v Time) {
	m := t.DisableInt()
	c.base = v
	c.baseCount = c.counter.Count()
	t.RestoreInt(m)
}

// Accumulate folds the ticks elapsed since the last snapshot into the base.
// Now is unaffected.
func (c *Clock) Accumulate(t *Thread) {
	m := t.DisableInt()
	count := c.counter.Count()
	c.base += Time(count - c.baseCount)
	c.baseCount = count
	t.RestoreInt(m)
}

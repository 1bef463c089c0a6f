//go:build !tinygo

package hal

import "time"

type hostCounter struct {
	start time.Time
	now   func() time.Time
}

func newHostCounter() *hostCounter {
	return newHostCounterWithClock(time.Now)
}

func newHostCounterWithClock(now func() time.Time) *hostCounter {
	return &hostCounter{start: now(), now: now}
}

// Count derives the register from wall time. The conversion truncates to 32
// bits, which is exactly the hardware wrap.
func (c *hostCounter) Count() uint32 {
	elapsed := c.now().Sub(c.start)
	secs := uint64(elapsed / time.Second)
	frac := uint64(elapsed % time.Second)
	ticks := secs*CountRate + frac*CountRate/uint64(time.Second)
	return uint32(ticks)
}

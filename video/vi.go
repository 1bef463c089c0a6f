package video

import (
	"vicore/hal"
	"vicore/kernel"
)

type viState uint8

const (
	viBlack viState = 1 << iota
	viDirty
)

// Control bits forced on or off over every template.
const (
	featuresOn  = hal.VICtrlDivotOn | hal.VICtrlDitherFilter
	featuresOff = hal.VICtrlGammaOn
)

// viContext is the display state waiting for the next retrace. Threads
// write it inside a critical section; the VI handler applies it to the
// hardware. Nothing reaches the registers between retraces.
type viContext struct {
	state  viState
	regs   hal.VideoRegs
	origin uint32

	// Countdowns in retraces. Zero means nothing is scheduled.
	unblankIn int
	applyIn   int
	deferred  hal.VideoRegs

	commits uint64
}

func (c *viContext) setMode(regs hal.VideoRegs) {
	c.regs = regs
	c.applyIn = 0
	c.state |= viDirty
}

func (c *viContext) deferMode(regs hal.VideoRegs, retraces int) {
	c.deferred = regs
	c.applyIn = retraces
}

func (c *viContext) setOrigin(addr uint32) {
	c.origin = addr
	c.state |= viDirty
}

func (c *viContext) setBlack(on bool, unblankIn int) {
	if on {
		c.state |= viBlack
	} else {
		c.state &^= viBlack
	}
	c.unblankIn = unblankIn
	c.state |= viDirty
}

// tick counts down the scheduled changes of one retrace.
func (c *viContext) tick() {
	if c.unblankIn > 0 {
		c.unblankIn--
		if c.unblankIn == 0 {
			c.state &^= viBlack
			c.state |= viDirty
		}
	}
	if c.applyIn > 0 {
		c.applyIn--
		if c.applyIn == 0 {
			c.regs = c.deferred
			c.state |= viDirty
		}
	}
}

// registers renders the context into a register file.
func (c *viContext) registers() hal.VideoRegs {
	regs := c.regs
	regs.Control = regs.Control&^featuresOff | featuresOn
	regs.Origin = hal.Physical(c.origin)
	if c.state&viBlack != 0 {
		regs.HStart = 0
	}
	return regs
}

// commit runs on every VI interrupt.
func (s *Scheduler) commit(it *kernel.Thread) {
	s.vi.tick()
	if s.vi.state&viDirty == 0 {
		return
	}
	s.vi.state &^= viDirty
	s.vi.commits++
	s.video.Load(s.vi.registers())
}

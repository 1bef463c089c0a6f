//go:build !tinygo

package hal

import "sync"

type hostVideo struct {
	mu   sync.Mutex
	regs VideoRegs
	ch   chan uint64
	seq  uint64
}

func newHostVideo() *hostVideo {
	return &hostVideo{ch: make(chan uint64, 64)}
}

func (v *hostVideo) Load(regs VideoRegs) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.regs = regs
}

func (v *hostVideo) Registers() VideoRegs {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.regs
}

func (v *hostVideo) Retrace() <-chan uint64 { return v.ch }

// retrace signals one vertical interrupt. Retraces the consumer has not
// picked up yet are dropped, like an interrupt that was never acknowledged.
func (v *hostVideo) retrace() {
	v.seq++
	select {
	case v.ch <- v.seq:
	default:
	}
}

package kernel

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

// Mask is a saved status register value. Only the interrupt bits are modelled.
type Mask uint32

const (
	// SRIE is the global interrupt enable bit.
	SRIE Mask = 1 << 0
	// SRIMAll enables every interrupt source at the status register level.
	SRIMAll Mask = 0xFF00

	srReset = SRIMAll | SRIE
)

// Line is a bit set of interrupt sources.
type Line uint8

const (
	IntrVI Line = 1 << iota
	IntrPreNMI
	IntrCounter

	IntrAll Line = 0xFF
)

const numLines = 8

// Handler runs in interrupt context. It must not block.
type Handler func(t *Thread)

// Core is the single processor shared by every thread and interrupt handler.
//
// A context that runs with interrupts disabled owns the core; interrupt
// handlers only run while nobody else owns it, which is what makes a critical
// section exclusive on one CPU.
type Core struct {
	mu sync.Mutex

	enabled  Line
	pending  Line
	handlers [numLines][]Handler

	intr   Thread
	nextID atomic.Uint32

	fatal fatalState
}

// NewCore returns a core with every interrupt line enabled and no handlers.
func NewCore() *Core {
	c := &Core{enabled: IntrAll}
	c.intr.core = c
	c.intr.name = "interrupt"
	c.intr.interrupt = true
	c.intr.cond.L = &c.mu
	return c
}

// NewThread creates an execution context bound to the core. The thread
// starts with interrupts enabled.
func (c *Core) NewThread(name string, pri Priority) *Thread {
	t := &Thread{
		core: c,
		id:   ThreadID(c.nextID.Add(1)),
		name: name,
		pri:  pri,
		sr:   srReset,
	}
	t.cond.L = &c.mu
	return t
}

// AddHandler appends h to the handlers of every line in l. Handlers for one
// line run in registration order.
//
// It takes the core itself and must not be called from inside a critical
// section or a handler.
func (c *Core) AddHandler(l Line, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < numLines; i++ {
		if l&(1<<i) != 0 {
			c.handlers[i] = append(c.handlers[i], h)
		}
	}
}

// Raise signals the interrupt lines in l. It is the hardware side of the
// core: the call waits until no context holds interrupts disabled, then runs
// the handlers of every enabled pending line. Lines masked with SetIntMask
// stay pending until they are unmasked.
func (c *Core) Raise(l Line) {
	c.mu.Lock()
	c.pending |= l
	c.dispatchLocked()
	c.mu.Unlock()
}

// SetIntMask replaces the set of enabled interrupt lines and returns the
// previous set. Pending lines that become enabled are delivered before it
// returns.
func (c *Core) SetIntMask(t *Thread, l Line) Line {
	m := t.DisableInt()
	prev := c.enabled
	c.enabled = l
	c.dispatchLocked()
	t.RestoreInt(m)
	return prev
}

// Pending returns the latched lines that have not been delivered.
func (c *Core) Pending(t *Thread) Line {
	m := t.DisableInt()
	p := c.pending
	t.RestoreInt(m)
	return p
}

func (c *Core) dispatchLocked() {
	for {
		ready := c.pending & c.enabled
		if ready == 0 {
			return
		}
		idx := bits.TrailingZeros8(uint8(ready))
		c.pending &^= 1 << idx
		for _, h := range c.handlers[idx] {
			h(&c.intr)
		}
	}
}

// ThreadID identifies a thread within its core.
type ThreadID uint32

// Priority orders threads in wait sets; higher runs first.
type Priority uint8

// Thread is one execution context: an application thread or the interrupt
// context. Each thread has its own status register, as the hardware saves
// and restores it on every context switch.
//
// A Thread must only be used by the goroutine it was handed to.
type Thread struct {
	core *Core
	id   ThreadID
	name string
	pri  Priority

	sr        Mask
	interrupt bool

	cond  sync.Cond
	woken bool
	queue *waitQueue
}

func (t *Thread) ID() ThreadID       { return t.id }
func (t *Thread) Name() string       { return t.name }
func (t *Thread) Priority() Priority { return t.pri }
func (t *Thread) Core() *Core        { return t.core }

// SR returns the current status register.
func (t *Thread) SR() Mask { return t.sr }

// InInterrupt reports whether t is the interrupt context.
func (t *Thread) InInterrupt() bool { return t.interrupt }

// DisableInt clears the interrupt enable bit and returns the previous status
// register. Every call must be paired with RestoreInt on every exit path:
//
//	defer t.RestoreInt(t.DisableInt())
//
// Calls nest because each token carries the mask from its own entry point.
func (t *Thread) DisableInt() Mask {
	prev := t.sr
	if prev&SRIE != 0 {
		t.core.mu.Lock()
		t.sr = prev &^ SRIE
	}
	return prev
}

// RestoreInt restores a status register previously returned by DisableInt.
func (t *Thread) RestoreInt(m Mask) {
	if t.interrupt {
		t.sr = m &^ SRIE
		return
	}
	cur := t.sr
	switch {
	case cur&SRIE == 0 && m&SRIE != 0:
		t.sr = m
		t.core.mu.Unlock()
	case cur&SRIE != 0 && m&SRIE == 0:
		t.core.mu.Lock()
		t.sr = m
	default:
		t.sr = m
	}
}

// park suspends t in q until another context wakes it. The caller must own
// the core; ownership is given up while parked and taken back on wakeup.
func (t *Thread) park(q *waitQueue) {
	if t.interrupt {
		panic("kernel: blocking operation in interrupt context")
	}
	q.enqueue(t)
	t.woken = false
	for !t.woken {
		t.cond.Wait()
	}
}

// waitQueue is a set of parked threads ordered by priority, FIFO within one
// priority.
type waitQueue struct {
	threads []*Thread
}

func (q *waitQueue) enqueue(t *Thread) {
	i := len(q.threads)
	for i > 0 && q.threads[i-1].pri < t.pri {
		i--
	}
	q.threads = append(q.threads, nil)
	copy(q.threads[i+1:], q.threads[i:])
	q.threads[i] = t
	t.queue = q
}

func (q *waitQueue) wakeOne() {
	if len(q.threads) == 0 {
		return
	}
	t := q.threads[0]
	copy(q.threads, q.threads[1:])
	q.threads[len(q.threads)-1] = nil
	q.threads = q.threads[:len(q.threads)-1]
	t.queue = nil
	t.woken = true
	t.cond.Signal()
}

func (q *waitQueue) len() int { return len(q.threads) }

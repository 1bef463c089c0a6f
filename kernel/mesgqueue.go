package kernel

import "errors"

var (
	ErrQueueFull  = errors.New("message queue full")
	ErrQueueEmpty = errors.New("message queue empty")
)

// Message is a fixed-size message envelope.
type Message struct {
	Kind  uint16
	Value uint32
}

// Blocking flags for Send, Jam and Recv.
const (
	NoBlock = false
	Block   = true
)

// MesgQueue is a bounded FIFO of messages with two wait sets: threads
// blocked because the queue is full and threads blocked because it is empty.
//
// All state is guarded by the core: every operation runs in a critical
// section of the calling thread. Interrupt handlers may only use the
// non-blocking forms; blocking from interrupt context panics.
type MesgQueue struct {
	noCopy noCopy

	first int
	valid int
	msgs  []Message

	fullQ  waitQueue
	emptyQ waitQueue
}

// noCopy makes go vet's copylocks check flag a MesgQueue copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// NewMesgQueue returns an empty queue backed by storage. The capacity is
// len(storage); the queue never allocates message slots of its own.
func NewMesgQueue(storage []Message) *MesgQueue {
	if len(storage) == 0 {
		panic("kernel: message queue needs storage")
	}
	return &MesgQueue{msgs: storage}
}

// Cap returns the capacity fixed at creation.
func (q *MesgQueue) Cap() int { return len(q.msgs) }

// Send copies msg to the tail of the queue and wakes one blocked receiver.
// A full queue fails with ErrQueueFull unless block is set, in which case t
// waits for space and retries.
func (q *MesgQueue) Send(t *Thread, msg Message, block bool) error {
	guardBlock(t, block)
	m := t.DisableInt()
	defer t.RestoreInt(m)

	for q.valid >= len(q.msgs) {
		if !block {
			return ErrQueueFull
		}
		t.park(&q.fullQ)
	}

	last := (q.first + q.valid) % len(q.msgs)
	q.msgs[last] = msg
	q.valid++
	q.emptyQ.wakeOne()
	return nil
}

// Jam is Send for urgent messages: msg goes to the head of the queue and is
// the next one received.
func (q *MesgQueue) Jam(t *Thread, msg Message, block bool) error {
	guardBlock(t, block)
	m := t.DisableInt()
	defer t.RestoreInt(m)

	for q.valid >= len(q.msgs) {
		if !block {
			return ErrQueueFull
		}
		t.park(&q.fullQ)
	}

	q.first = (q.first + len(q.msgs) - 1) % len(q.msgs)
	q.msgs[q.first] = msg
	q.valid++
	q.emptyQ.wakeOne()
	return nil
}

// Recv removes the oldest message and wakes one blocked sender. An empty
// queue fails with ErrQueueEmpty unless block is set.
func (q *MesgQueue) Recv(t *Thread, block bool) (Message, error) {
	guardBlock(t, block)
	m := t.DisableInt()
	defer t.RestoreInt(m)

	for q.valid == 0 {
		if !block {
			return Message{}, ErrQueueEmpty
		}
		t.park(&q.emptyQ)
	}

	msg := q.msgs[q.first]
	q.first = (q.first + 1) % len(q.msgs)
	q.valid--
	q.fullQ.wakeOne()
	return msg, nil
}

// ValidCount returns the number of queued messages.
func (q *MesgQueue) ValidCount(t *Thread) int {
	m := t.DisableInt()
	n := q.valid
	t.RestoreInt(m)
	return n
}

func (q *MesgQueue) IsEmpty(t *Thread) bool { return q.ValidCount(t) == 0 }
func (q *MesgQueue) IsFull(t *Thread) bool  { return q.ValidCount(t) >= len(q.msgs) }

// Waiters returns how many threads are parked on a full and on an empty queue.
func (q *MesgQueue) Waiters(t *Thread) (senders, receivers int) {
	m := t.DisableInt()
	senders, receivers = q.fullQ.len(), q.emptyQ.len()
	t.RestoreInt(m)
	return senders, receivers
}

func guardBlock(t *Thread, block bool) {
	if block && t.interrupt {
		panic("kernel: blocking message operation in interrupt context")
	}
}

// Package sched is the thread scheduler the runtime core registers with. It
// starts threads and turns hardware interrupts into messages on the queues
// of registered clients.
package sched

import (
	"errors"
	"fmt"
	"sync"

	"vicore/hal"
	"vicore/kernel"
)

const maxClients = 8

// Message kinds delivered to clients.
const (
	MsgRetrace uint16 = 1
	MsgPreNMI  uint16 = 4
)

var (
	ErrTooManyClients = errors.New("sched: too many clients")
	ErrNoClient       = errors.New("sched: no such client")
)

// ClientID is the registration handle returned by AddClient.
type ClientID uint8

type client struct {
	q      *kernel.MesgQueue
	active bool
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	Retraces uint64
	Dropped  uint64
	Clients  int
}

// Scheduler owns the thread goroutines and the client table.
type Scheduler struct {
	core  *kernel.Core
	clock *kernel.Clock
	log   hal.Logger

	// guarded by the core
	clients  [maxClients]client
	retraces uint64
	dropped  uint64

	wg sync.WaitGroup
}

// New creates a scheduler and installs its VI and pre-NMI handlers on core.
// clock, if not nil, is advanced on every retrace.
func New(core *kernel.Core, clock *kernel.Clock, log hal.Logger) *Scheduler {
	s := &Scheduler{core: core, clock: clock, log: log}
	core.AddHandler(kernel.IntrVI, s.retrace)
	core.AddHandler(kernel.IntrPreNMI, s.preNMI)
	return s
}

// Spawn starts fn on a new thread. A panic on the thread is reported as a
// fatal error on the core.
func (s *Scheduler) Spawn(name string, pri kernel.Priority, fn func(*kernel.Thread)) *kernel.Thread {
	t := s.core.NewThread(name, pri)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.core.Fatal(t, fmt.Errorf("thread %s: %v", t.Name(), r))
			}
		}()
		fn(t)
	}()
	return t
}

// Wait blocks until every spawned thread has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// AddClient registers q to receive a MsgRetrace message on every vertical
// retrace and a MsgPreNMI message before reset.
func (s *Scheduler) AddClient(t *kernel.Thread, q *kernel.MesgQueue) (ClientID, error) {
	m := t.DisableInt()
	id := ClientID(0)
	found := false
	for i := range s.clients {
		if !s.clients[i].active {
			s.clients[i] = client{q: q, active: true}
			id = ClientID(i)
			found = true
			break
		}
	}
	t.RestoreInt(m)

	if !found {
		return 0, ErrTooManyClients
	}
	s.logf("sched: client %d registered by %s", id, t.Name())
	return id, nil
}

// RemoveClient stops deliveries to a registered client.
func (s *Scheduler) RemoveClient(t *kernel.Thread, id ClientID) error {
	if int(id) >= maxClients {
		return ErrNoClient
	}
	m := t.DisableInt()
	active := s.clients[id].active
	s.clients[id] = client{}
	t.RestoreInt(m)

	if !active {
		return ErrNoClient
	}
	s.logf("sched: client %d removed", id)
	return nil
}

// Stats returns the retrace and dropped-notification counters.
func (s *Scheduler) Stats(t *kernel.Thread) Stats {
	m := t.DisableInt()
	st := Stats{Retraces: s.retraces, Dropped: s.dropped}
	for i := range s.clients {
		if s.clients[i].active {
			st.Clients++
		}
	}
	t.RestoreInt(m)
	return st
}

func (s *Scheduler) retrace(it *kernel.Thread) {
	s.retraces++
	if s.clock != nil {
		s.clock.Accumulate(it)
	}
	s.broadcast(it, kernel.Message{Kind: MsgRetrace, Value: uint32(s.retraces)})
}

func (s *Scheduler) preNMI(it *kernel.Thread) {
	s.broadcast(it, kernel.Message{Kind: MsgPreNMI})
}

// broadcast never blocks: a client whose queue is full misses this
// notification and picks up the next one.
func (s *Scheduler) broadcast(it *kernel.Thread, msg kernel.Message) {
	for i := range s.clients {
		c := &s.clients[i]
		if !c.active {
			continue
		}
		if msg.Kind == MsgPreNMI {
			if err := c.q.Jam(it, msg, kernel.NoBlock); err != nil {
				s.dropped++
			}
			continue
		}
		if err := c.q.Send(it, msg, kernel.NoBlock); err != nil {
			s.dropped++
		}
	}
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}

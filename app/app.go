// Package app boots the runtime on a HAL: it wires the interrupt core, the
// thread scheduler and the video scheduler together, then runs a game
// thread that draws a test scene on every retrace.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"vicore/hal"
	"vicore/kernel"
	"vicore/sched"
	"vicore/video"

	"golang.org/x/sync/errgroup"
)

const (
	prioBoot kernel.Priority = 10
	prioGame kernel.Priority = 20

	shutdownPoll    = 20 * time.Millisecond
	shutdownRetries = 50
)

// Config controls the boot sequence.
type Config struct {
	Video video.Config
	// ExitOnFatal makes Step return the fatal error so that the runner
	// stops. Otherwise the fatal screen stays up.
	ExitOnFatal bool
	// LogEvery is the number of frames between status lines; 0 disables
	// them.
	LogEvery uint64
}

// System is a booted runtime.
type System struct {
	h     hal.HAL
	log   hal.Logger
	cfg   Config
	core  *kernel.Core
	clock *kernel.Clock
	sc    *sched.Scheduler
	vs    *video.Scheduler

	cancel context.CancelFunc
	g      *errgroup.Group

	frames atomic.Uint64
	depth  atomic.Uint32

	mu  sync.Mutex
	err error

	once sync.Once
}

// New boots the runtime and returns its per-update step function.
func New(h hal.HAL, cfg Config) func() error {
	return Start(h, cfg).Step
}

// Start boots the runtime. Configuration errors are fatal: they are
// reported through the fatal handler and by Err.
func Start(h hal.HAL, cfg Config) *System {
	s := newSystem(h, cfg)
	s.start()
	return s
}

func newSystem(h hal.HAL, cfg Config) *System {
	core := kernel.NewCore()
	clock := kernel.NewClock(h.Counter())
	sc := sched.New(core, clock, h.Logger())
	s := &System{
		h:     h,
		log:   h.Logger(),
		cfg:   cfg,
		core:  core,
		clock: clock,
		sc:    sc,
		vs:    video.New(h, core, sc, clock),
	}
	s.installFatalHandler()
	return s
}

func (s *System) start() {
	boot := s.core.NewThread("boot", prioBoot)
	if err := s.vs.Configure(boot, s.cfg.Video); err != nil {
		s.core.Fatal(boot, fmt.Errorf("configure video: %w", err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	s.cancel = cancel
	s.g = g
	g.Go(func() error { return s.pump(ctx) })
	s.sc.Spawn("game", prioGame, s.game)

	s.logf("app: booted on %s, %d KiB RDRAM", s.h.TVType(), s.h.Memory().Size()/1024)
}

// pump turns hardware retraces into VI interrupts.
func (s *System) pump(ctx context.Context) error {
	ch := s.h.Video().Retrace()
	if ch == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			if s.core.InFatal() {
				continue
			}
			s.core.Raise(kernel.IntrVI)
		}
	}
}

// Step is called by the runner once per update.
func (s *System) Step() error {
	if s.cfg.ExitOnFatal {
		return s.Err()
	}
	return nil
}

// Err returns the fatal error, if any.
func (s *System) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *System) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// Frames is the number of frames the game thread has drawn.
func (s *System) Frames() uint64 { return s.frames.Load() }

// Video returns the video scheduler.
func (s *System) Video() *video.Scheduler { return s.vs }

// Shutdown announces a reset to every retrace client and waits for the
// game thread and the interrupt pump to stop.
func (s *System) Shutdown() error {
	s.once.Do(func() {
		done := make(chan struct{})
		go func() {
			s.sc.Wait()
			close(done)
		}()

		stopped := false
		for i := 0; i < shutdownRetries && !stopped; i++ {
			// A client whose queue is full misses the pre-NMI; repeat it.
			s.core.Raise(kernel.IntrPreNMI)
			select {
			case <-done:
				stopped = true
			case <-time.After(shutdownPoll):
			}
		}
		if !stopped {
			s.setErr(errors.New("app: game thread did not stop"))
		}

		if s.cancel != nil {
			s.cancel()
			if err := s.g.Wait(); err != nil {
				s.setErr(err)
			}
		}
		s.logf("app: shut down after %d frames", s.frames.Load())
	})
	return s.Err()
}

func (s *System) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}

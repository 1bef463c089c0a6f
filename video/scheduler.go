package video

import (
	"errors"
	"fmt"
	"sync"

	"vicore/hal"
	"vicore/kernel"
	"vicore/sched"
)

// State is the lifecycle of a Scheduler.
type State uint8

const (
	StateUninitialized State = iota
	StateConfigured
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

const (
	retraceQueueSize    = 8
	unblankRetraces     = 5
	modeApplyRetraces   = 3
	defaultFrameDivisor = 2

	allocWidth       = 320
	allocHeight      = 260
	allocWidthHiRes  = 640
	allocHeightHiRes = 480
)

var (
	ErrNotRegistered = errors.New("video: not registered for retrace notifications")
	ErrReset         = errors.New("video: reset pending")
)

// Config selects the display set up by Configure.
type Config struct {
	Mode           Mode
	DoubleBuffered bool
	// RegionalAdjust adds the PAL raster lines to the resolution table.
	RegionalAdjust bool
}

// Frame describes the retrace a WaitRetrace call woke up on.
type Frame struct {
	Retrace uint32
	// Missed counts retraces that passed without reaching this scheduler.
	Missed uint32
	// Delta is the clock time since the previous frame.
	Delta kernel.Time
}

// Target is the framebuffer the renderer should draw into.
type Target struct {
	Addr   uint32
	Pix    []byte
	Width  int
	Height int
	Stride int
}

// Scheduler owns the display: the mode, the framebuffers and the swap chain.
// Thread-side state is guarded by mu; the pending VI context is guarded by
// the core and is the only state the retrace handler touches.
type Scheduler struct {
	video hal.Video
	mem   hal.Memory
	tv    hal.TVType
	log   hal.Logger
	core  *kernel.Core
	sc    *sched.Scheduler
	clock *kernel.Clock

	mu        sync.Mutex
	state     State
	standard  Standard
	table     *Table
	mode      Mode
	layout    Layout
	pointers  [2]uint32
	choice    int
	current   uint32
	next      uint32
	depth     [2]uint32
	res       [2]Resolution
	divisor   int
	override  func() (uint32, bool)
	hStartMod int8
	vScaleMod int8

	queue      *kernel.MesgQueue
	queueStore [retraceQueueSize]kernel.Message
	client     sched.ClientID
	registered bool

	lastRetrace uint32
	lastTime    kernel.Time
	frames      uint64
	probes      depthProbes

	// guarded by the core
	vi viContext
}

// New returns an unconfigured scheduler and installs its retrace handler on
// core. clock may be nil, in which case frames carry no time delta.
func New(h hal.HAL, core *kernel.Core, sc *sched.Scheduler, clock *kernel.Clock) *Scheduler {
	s := &Scheduler{
		video:   h.Video(),
		mem:     h.Memory(),
		tv:      h.TVType(),
		log:     h.Logger(),
		core:    core,
		sc:      sc,
		clock:   clock,
		table:   NewTable(),
		divisor: defaultFrameDivisor,
	}
	core.AddHandler(kernel.IntrVI, s.commit)
	return s
}

// Configure sets the display up from scratch for cfg. The retrace client is
// registered on the first double-buffered configure and kept afterwards.
// The screen stays black for a few retraces so that the first frames have
// time to be drawn.
func (s *Scheduler) Configure(t *kernel.Thread, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.standard = StandardFor(s.tv)
	if cfg.RegionalAdjust && s.standard == PAL && s.table.AdjustRegional() {
		s.logf("video: PAL resolutions raised by %d lines", RegionalLines)
	}
	s.divisor = defaultFrameDivisor
	s.mode = cfg.Mode
	s.pointers = [2]uint32{}
	s.current, s.next = 0, 0

	if cfg.DoubleBuffered && !s.registered {
		s.queue = kernel.NewMesgQueue(s.queueStore[:])
		id, err := s.sc.AddClient(t, s.queue)
		if err != nil {
			s.state = StateUninitialized
			return fmt.Errorf("video: register retrace client: %w", err)
		}
		s.client = id
		s.registered = true
	}

	w, h := allocWidth, allocHeight
	if cfg.Mode.HiRes() {
		w, h = allocWidthHiRes, allocHeightHiRes
	}
	buffers := 1
	if cfg.DoubleBuffered {
		buffers = 2
	}
	if err := s.allocateLocked(w, h, buffers); err != nil {
		s.state = StateUninitialized
		return err
	}

	s.choice = 1
	s.swapLocked(t)
	s.setCustomModeLocked(t)

	m := t.DisableInt()
	s.vi.setBlack(true, unblankRetraces)
	t.RestoreInt(m)

	s.lastRetrace = 0
	s.frames = 0
	if s.clock != nil {
		s.lastTime = s.clock.Now(t)
	}
	s.probes.reset()
	s.state = StateConfigured

	s.logf("video: %s mode %d %dx%d, %s layout, %d buffer(s) at %#08x",
		s.standard, s.mode.Index(), s.res[0].Width, s.res[0].Height,
		s.layout.Kind, len(s.layout.Buffers), s.layout.Pointer(0))
	return nil
}

// Reconfigure switches between the UI mode and the low resolution game
// mode without touching the retrace registration.
func (s *Scheduler) Reconfigure(t *kernel.Thread, ui bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateUninitialized {
		return errors.New("video: reconfigure before configure")
	}
	s.mode = ModeLowRes
	if ui {
		s.mode = ModeUI
	}
	r := s.table.ResolutionFor(s.mode)
	if err := s.allocateLocked(int(r.Width), int(r.Height), 2); err != nil {
		return err
	}
	s.next = s.pointers[s.choice]
	s.setCustomModeLocked(t)

	m := t.DisableInt()
	s.vi.setBlack(true, unblankRetraces)
	t.RestoreInt(m)

	s.logf("video: switched to mode %d %dx%d", s.mode.Index(), r.Width, r.Height)
	return nil
}

func (s *Scheduler) allocateLocked(w, h, buffers int) error {
	expanded := s.mem.Size() >= hal.MemorySizeExpanded
	l, err := Allocate(expanded, w, h, buffers)
	if err != nil {
		return err
	}
	s.layout = l
	s.pointers[0] = l.Pointer(0)
	s.pointers[1] = l.Pointer(1)
	r := s.table.ResolutionFor(s.mode)
	s.res[0], s.res[1] = r, r
	return nil
}

// setCustomModeLocked stages the timing of the current mode with the user
// nudges applied.
func (s *Scheduler) setCustomModeLocked(t *kernel.Thread) {
	regs := CustomTiming(s.standard, s.mode, s.hStartMod, s.vScaleMod)
	m := t.DisableInt()
	s.vi.setMode(regs)
	t.RestoreInt(m)
}

// Swap presents the buffer that was being drawn and makes the other one the
// draw target.
func (s *Scheduler) Swap(t *kernel.Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swapLocked(t)
}

func (s *Scheduler) swapLocked(t *kernel.Thread) {
	s.current = s.pointers[s.choice]
	s.depth[1] = s.layout.Start
	s.choice ^= 1
	s.next = s.pointers[s.choice]
	s.depth[0] = s.layout.Start

	if s.current == 0 {
		return
	}
	m := t.DisableInt()
	s.vi.setOrigin(s.current)
	t.RestoreInt(m)
}

// SetBlanking turns the black screen on or off at the next retrace. It
// cancels a pending automatic unblank.
func (s *Scheduler) SetBlanking(t *kernel.Thread, on bool) {
	m := t.DisableInt()
	s.vi.setBlack(on, 0)
	t.RestoreInt(m)
}

// Blanked reports whether the staged display state is black.
func (s *Scheduler) Blanked(t *kernel.Thread) bool {
	m := t.DisableInt()
	defer t.RestoreInt(m)
	return s.vi.state&viBlack != 0
}

// ModifyViMode records horizontal and vertical nudges. With apply set the
// adjusted timing replaces the current one three retraces later.
func (s *Scheduler) ModifyViMode(t *kernel.Thread, apply bool, hStartMod, vScaleMod int8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hStartMod, s.vScaleMod = hStartMod, vScaleMod
	if !apply {
		return
	}
	regs := CustomTiming(s.standard, s.mode, hStartMod, vScaleMod)
	m := t.DisableInt()
	s.vi.deferMode(regs, modeApplyRetraces)
	t.RestoreInt(m)
}

// WaitRetrace blocks t until the next retrace notification, then swaps the
// buffers. It returns ErrReset when a pre-NMI message arrives instead.
func (s *Scheduler) WaitRetrace(t *kernel.Thread) (Frame, error) {
	s.mu.Lock()
	q := s.queue
	registered := s.registered
	s.mu.Unlock()
	if !registered {
		return Frame{}, ErrNotRegistered
	}

	msg, err := q.Recv(t, kernel.Block)
	if err != nil {
		return Frame{}, err
	}
	if msg.Kind == sched.MsgPreNMI {
		return Frame{}, ErrReset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := Frame{Retrace: msg.Value}
	if s.lastRetrace != 0 && msg.Value > s.lastRetrace+1 {
		f.Missed = msg.Value - s.lastRetrace - 1
	}
	s.lastRetrace = msg.Value
	if s.clock != nil {
		now := s.clock.Now(t)
		f.Delta = now - s.lastTime
		s.lastTime = now
	}
	s.swapLocked(t)
	s.frames++
	if s.state == StateConfigured {
		s.state = StateRunning
	}
	return f, nil
}

// Close drops the retrace registration.
func (s *Scheduler) Close(t *kernel.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registered {
		return nil
	}
	s.registered = false
	return s.sc.RemoveClient(t, s.client)
}

// SetDimensionOverride installs fn as the source of the encoded resolution.
// While fn reports ok, EncodedResolution returns a square v x v instead of
// the table entry. A nil fn removes the override.
func (s *Scheduler) SetDimensionOverride(fn func() (uint32, bool)) {
	s.mu.Lock()
	s.override = fn
	s.mu.Unlock()
}

// EncodedResolution returns the resolution of the draw target as
// 0xHHHH_WWWW.
func (s *Scheduler) EncodedResolution() uint32 {
	s.mu.Lock()
	i := s.choice
	s.mu.Unlock()
	return s.CurrentResolution(i)
}

// CurrentResolution returns the encoded resolution cached for buffer i,
// or the square override while one is active.
func (s *Scheduler) CurrentResolution(i int) uint32 {
	s.mu.Lock()
	fn := s.override
	r := s.res[i&1]
	s.mu.Unlock()

	if fn != nil {
		if v, ok := fn(); ok {
			return v<<16 | v
		}
	}
	return r.Encoded()
}

// OtherResolution returns the encoded resolution of the buffer that is not
// the draw target.
func (s *Scheduler) OtherResolution() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := 0
	if s.choice < 1 {
		i = 1
	}
	return s.res[i].Encoded()
}

// RefreshResolution reloads the cached resolution of buffer i from the
// table entry of the current mode.
func (s *Scheduler) RefreshResolution(i int) {
	s.mu.Lock()
	s.res[i&1] = s.table.ResolutionFor(s.mode)
	s.mu.Unlock()
}

// FitsResolution reports whether (x, y) lies inside the draw target.
func (s *Scheduler) FitsResolution(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.res[s.choice]
	return x >= 0 && y >= 0 && x < int(r.Width) && y < int(r.Height)
}

// SetFrameDivisor sets how many retraces one game frame lasts.
func (s *Scheduler) SetFrameDivisor(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.divisor = n
	s.mu.Unlock()
}

// TargetFPS is the frame rate the game paces itself to.
func (s *Scheduler) TargetFPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.standard.Hertz() / s.divisor
}

// RenderTarget returns the RDRAM bytes of the buffer to draw into next.
// The stride matches the scan-out width of the current mode.
func (s *Scheduler) RenderTarget() Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next == 0 {
		return Target{}
	}
	r := s.res[s.choice]
	tg := Target{
		Addr:   s.next,
		Width:  min(int(r.Width), s.layout.Width),
		Height: min(int(r.Height), s.layout.Height),
		Stride: s.layout.Width * BytesPerPixel,
	}
	off := hal.Physical(s.next)
	end := off + s.layout.FrameBytes()
	mem := s.mem.Bytes()
	if int(end) > len(mem) {
		return Target{}
	}
	tg.Pix = mem[off:end]
	return tg
}

func (s *Scheduler) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Scheduler) Standard() Standard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.standard
}

func (s *Scheduler) Hertz() int           { return s.Standard().Hertz() }
func (s *Scheduler) AspectRatio() float32 { return s.Standard().AspectRatio() }

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current is the buffer being displayed.
func (s *Scheduler) Current() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Next is the buffer being drawn.
func (s *Scheduler) Next() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// DepthBuffers returns the depth target addresses handed to the renderer
// for the draw target and the displayed buffer.
func (s *Scheduler) DepthBuffers() (next, current uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth[0], s.depth[1]
}

func (s *Scheduler) FramebufferStart() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Start
}

func (s *Scheduler) FramebufferEnd() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.End
}

func (s *Scheduler) Layout() Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

func (s *Scheduler) Table() *Table { return s.table }

// Queue is the retrace queue, nil until a double-buffered configure.
func (s *Scheduler) Queue() *kernel.MesgQueue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue
}

// Frames counts completed WaitRetrace calls since the last configure.
func (s *Scheduler) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Commits counts register loads made by the retrace handler.
func (s *Scheduler) Commits(t *kernel.Thread) uint64 {
	m := t.DisableInt()
	defer t.RestoreInt(m)
	return s.vi.commits
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}

package app

import (
	"errors"
	"image/color"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vicore/hal"
	"vicore/video"
)

type fakeCounter struct {
	v atomic.Uint32
}

func (f *fakeCounter) Count() uint32 { return f.v.Add(1000) }

type lineLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLog) WriteLineString(s string) {
	l.mu.Lock()
	l.lines = append(l.lines, s)
	l.mu.Unlock()
}
func (l *lineLog) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *lineLog) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

type fakeMemory struct {
	buf []byte
}

func (m *fakeMemory) Size() uint32  { return uint32(len(m.buf)) }
func (m *fakeMemory) Bytes() []byte { return m.buf }

type fakeVideo struct {
	mu   sync.Mutex
	regs hal.VideoRegs
	ch   chan uint64
	seq  uint64
}

func (v *fakeVideo) Load(regs hal.VideoRegs) {
	v.mu.Lock()
	v.regs = regs
	v.mu.Unlock()
}

func (v *fakeVideo) Registers() hal.VideoRegs {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.regs
}

func (v *fakeVideo) Retrace() <-chan uint64 { return v.ch }

type fakeHAL struct {
	log *lineLog
	cnt *fakeCounter
	mem *fakeMemory
	vi  *fakeVideo
}

func newFakeHAL(memSize uint32) *fakeHAL {
	return &fakeHAL{
		log: &lineLog{},
		cnt: &fakeCounter{},
		mem: &fakeMemory{buf: make([]byte, memSize)},
		vi:  &fakeVideo{ch: make(chan uint64)},
	}
}

func (h *fakeHAL) Logger() hal.Logger   { return h.log }
func (h *fakeHAL) Counter() hal.Counter { return h.cnt }
func (h *fakeHAL) Memory() hal.Memory   { return h.mem }
func (h *fakeHAL) Video() hal.Video     { return h.vi }
func (h *fakeHAL) TVType() hal.TVType   { return hal.TVNTSC }

func waitFrames(t *testing.T, h *fakeHAL, s *System, n uint64) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for s.Frames() < n {
		select {
		case <-deadline:
			t.Fatalf("drew %d frames, want %d", s.Frames(), n)
		case h.vi.ch <- h.vi.seq + 1:
			h.vi.seq++
		case <-time.After(time.Millisecond):
		}
	}
}

func TestSystemDrawsFrames(t *testing.T) {
	h := newFakeHAL(hal.MemorySizeExpanded)
	s := Start(h, Config{
		Video:    video.Config{Mode: video.ModeLowRes, DoubleBuffered: true},
		LogEvery: 2,
	})
	waitFrames(t, h, s, 4)

	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !h.log.contains("app: frame 2") {
		t.Fatal("missing status line")
	}
	if !h.log.contains("app: shut down") {
		t.Fatal("missing shutdown line")
	}

	regs := h.vi.Registers()
	if regs.Origin == 0 {
		t.Fatal("video origin never loaded")
	}
	l := s.Video().Layout()
	for i, r := range l.Buffers {
		off := hal.Physical(r.Base)
		d := newFBDisplay(h.mem.buf[off:off+r.Size], l.Width, l.Height, l.Width*2)
		if d.pixel(0, 0) == 0 {
			t.Fatalf("buffer %d was never drawn", i)
		}
	}
}

func TestSystemSingleBuffered(t *testing.T) {
	h := newFakeHAL(hal.MemorySizeBase)
	s := Start(h, Config{Video: video.Config{Mode: video.ModeLowRes}})
	waitFrames(t, h, s, 3)
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestConfigureFailureIsFatal(t *testing.T) {
	h := newFakeHAL(hal.MemorySizeBase)
	s := Start(h, Config{
		Video:       video.Config{Mode: video.ModeHiRes, DoubleBuffered: true},
		ExitOnFatal: true,
	})

	err := s.Step()
	if !errors.Is(err, video.ErrOutOfMemory) {
		t.Fatalf("Step() = %v, want ErrOutOfMemory", err)
	}
	if !h.log.contains("vicore fatal: thread=boot") {
		t.Fatal("fatal error not logged")
	}

	regs := h.vi.Registers()
	if regs.Origin != hal.Physical(video.FramebufferAddrBase) || regs.Blanked() {
		t.Fatalf("fatal screen not shown: %+v", regs)
	}
	d := newFBDisplay(h.mem.buf[regs.Origin:], fatalWidth, fatalHeight, fatalWidth*2)
	bg := hal.RGBA5551(fatalBG.R, fatalBG.G, fatalBG.B)
	var bgPixels, textPixels int
	for y := 0; y < fatalHeight; y++ {
		for x := 0; x < fatalWidth; x++ {
			if d.pixel(x, y) == bg {
				bgPixels++
			} else {
				textPixels++
			}
		}
	}
	if bgPixels < fatalWidth*fatalHeight/2 || textPixels == 0 {
		t.Fatalf("fatal screen has %d background and %d text pixels", bgPixels, textPixels)
	}

	if err := s.Shutdown(); !errors.Is(err, video.ErrOutOfMemory) {
		t.Fatalf("Shutdown() = %v", err)
	}
}

func TestFBDisplay(t *testing.T) {
	buf := make([]byte, 4*3*2)
	d := newFBDisplay(buf, 4, 3, 8)
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	d.SetPixel(1, 1, white)
	if buf[10] != 0xFF || buf[11] != 0xFF {
		t.Fatalf("pixel bytes = %#x %#x, want big-endian 0xffff", buf[10], buf[11])
	}
	d.SetPixel(4, 0, white)
	d.SetPixel(-1, 0, white)

	if err := d.FillRectangle(2, 1, 10, 10, color.RGBA{R: 0xFF, A: 0xFF}); err != nil {
		t.Fatalf("FillRectangle: %v", err)
	}
	if got := d.pixel(3, 2); got != hal.RGBA5551(0xFF, 0, 0) {
		t.Fatalf("pixel(3, 2) = %#04x", got)
	}
	if got := d.pixel(0, 0); got != 0 {
		t.Fatalf("pixel(0, 0) = %#04x, want untouched", got)
	}
	if x, y := d.Size(); x != 4 || y != 3 {
		t.Fatalf("Size() = %d, %d", x, y)
	}
}

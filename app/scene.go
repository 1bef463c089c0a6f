package app

import (
	"errors"
	"fmt"
	"image/color"

	"vicore/kernel"
	"vicore/sched"
	"vicore/video"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	overlayFG = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	barColor  = color.RGBA{R: 0xF8, G: 0xC0, B: 0x20, A: 0xFF}
)

// frameSource yields one frame per retrace. A double-buffered display
// paces through the video scheduler; a single-buffered one has no retrace
// queue there, so the game thread registers its own.
type frameSource struct {
	s     *System
	store [4]kernel.Message
	q     *kernel.MesgQueue
}

func (f *frameSource) next(t *kernel.Thread) (video.Frame, error) {
	if f.q == nil {
		fr, err := f.s.vs.WaitRetrace(t)
		if !errors.Is(err, video.ErrNotRegistered) {
			return fr, err
		}
		f.q = kernel.NewMesgQueue(f.store[:])
		if _, err := f.s.sc.AddClient(t, f.q); err != nil {
			return video.Frame{}, err
		}
	}
	msg, err := f.q.Recv(t, kernel.Block)
	if err != nil {
		return video.Frame{}, err
	}
	if msg.Kind == sched.MsgPreNMI {
		return video.Frame{}, video.ErrReset
	}
	return video.Frame{Retrace: msg.Value}, nil
}

func (s *System) game(t *kernel.Thread) {
	src := &frameSource{s: s}
	for {
		f, err := src.next(t)
		if errors.Is(err, video.ErrReset) {
			s.vs.SetBlanking(t, true)
			if err := s.vs.Close(t); err != nil {
				s.logf("app: close video: %v", err)
			}
			return
		}
		if err != nil {
			s.core.Fatal(t, fmt.Errorf("wait for retrace: %w", err))
			return
		}

		s.vs.AddDepthProbe(s.centerPixel())
		s.draw(f)
		if probes := s.vs.ResolveDepthProbes(); len(probes) > 0 {
			s.depth.Store(probes[0].Depth)
		}

		n := s.frames.Add(1)
		if s.cfg.LogEvery > 0 && n%s.cfg.LogEvery == 0 {
			st := s.sc.Stats(t)
			s.logf("app: frame %d, retrace %d, missed %d, dropped %d, dt %v",
				n, f.Retrace, f.Missed, st.Dropped, f.Delta.Duration())
		}
	}
}

func (s *System) centerPixel() int32 {
	l := s.vs.Layout()
	return int32(l.Height/2*l.Width + l.Width/2)
}

// draw renders the test scene into the draw target: a vertical gradient, a
// bar that sweeps across the screen and a status line.
func (s *System) draw(f video.Frame) {
	tg := s.vs.RenderTarget()
	if tg.Pix == nil || tg.Width <= 0 || tg.Height <= 0 {
		return
	}
	d := newFBDisplay(tg.Pix, tg.Width, tg.Height, tg.Stride)

	for y := 0; y < tg.Height; y++ {
		shade := uint8(y * 0xFF / tg.Height)
		_ = d.FillRectangle(0, int16(y), int16(tg.Width), 1, color.RGBA{B: shade, G: shade / 2, A: 0xFF})
	}
	x := int16(int(f.Retrace) % tg.Width)
	_ = d.FillRectangle(x, 0, 8, int16(tg.Height), barColor)

	line := fmt.Sprintf("%s %dx%d %dfps", s.vs.Standard(), tg.Width, tg.Height, s.vs.TargetFPS())
	tinyfont.WriteLine(d, &proggy.TinySZ8pt7b, 4, 12, line, overlayFG)
	line = fmt.Sprintf("frame %d z=%d", s.frames.Load(), s.depth.Load())
	tinyfont.WriteLine(d, &proggy.TinySZ8pt7b, 4, 24, line, overlayFG)
}

package app

import (
	"fmt"
	"image/color"
	"strings"

	"vicore/hal"
	"vicore/kernel"
	"vicore/video"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

const (
	fatalWidth      = 320
	fatalHeight     = 240
	fatalFontHeight = 10
	fatalRows       = fatalHeight/fatalFontHeight - 1
)

var fatalBG = color.RGBA{R: 0x60, A: 0xFF}

func (s *System) installFatalHandler() {
	s.core.SetFatalHandler(func(info kernel.FatalInfo) {
		s.setErr(fmt.Errorf("fatal on %s: %w", info.Thread, info.Err))

		s.logf("vicore fatal: thread=%s err=%v", info.Thread, info.Err)
		for _, line := range stackLines(info.Stack) {
			s.logf("%s", line)
		}
		s.drawFatalScreen(info)
	})
}

func stackLines(stack []byte) []string {
	var out []string
	for _, line := range strings.Split(string(stack), "\n") {
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// drawFatalScreen takes the display over: it writes the error into a
// single low resolution buffer that always fits and points the video
// interface at it directly. The retrace path is stopped by then.
func (s *System) drawFatalScreen(info kernel.FatalInfo) {
	l, err := video.Allocate(false, fatalWidth, fatalHeight, 1)
	if err != nil {
		return
	}
	mem := s.h.Memory().Bytes()
	off := hal.Physical(l.Pointer(0))
	end := off + l.FrameBytes()
	if int(end) > len(mem) {
		return
	}

	d := newFBDisplay(mem[off:end], fatalWidth, fatalHeight, fatalWidth*video.BytesPerPixel)
	_ = d.FillRectangle(0, 0, fatalWidth, fatalHeight, fatalBG)

	font := &proggy.TinySZ8pt7b
	term := tinyterm.NewTerminal(d)
	term.Configure(&tinyterm.Config{
		Font:       font,
		FontHeight: fatalFontHeight,
		FontOffset: 7,
	})
	cols := fatalWidth / 6
	if _, w := tinyfont.LineWidth(font, "0"); w > 0 {
		cols = fatalWidth/int(w) - 1
	}

	lines := []string{
		"vicore fatal error",
		"thread: " + info.Thread,
		fmt.Sprintf("error: %v", info.Err),
	}
	if st := stackLines(info.Stack); len(st) > 0 {
		lines = append(lines, "stack:")
		lines = append(lines, st...)
	} else {
		lines = append(lines, "stack: unavailable")
	}
	if len(lines) > fatalRows {
		lines = lines[:fatalRows]
	}
	// Lines are cut to one row each; the display cannot scroll.
	for _, line := range lines {
		if len(line) > cols {
			line = line[:cols]
		}
		fmt.Fprintf(term, "%s\r\n", line)
	}

	regs := video.TimingFor(video.StandardFor(s.h.TVType()), video.ModeLowRes)
	regs.Origin = off
	s.h.Video().Load(regs)
}

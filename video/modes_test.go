package video

import (
	"testing"

	"vicore/hal"
)

func TestStandardFor(t *testing.T) {
	cases := []struct {
		tv    hal.TVType
		want  Standard
		hertz int
	}{
		{hal.TVNTSC, NTSC, 60},
		{hal.TVPAL, PAL, 50},
		{hal.TVMPAL, MPAL, 60},
		{hal.TVType(9), NTSC, 60},
	}
	for _, c := range cases {
		s := StandardFor(c.tv)
		if s != c.want || s.Hertz() != c.hertz {
			t.Errorf("StandardFor(%v) = %v (%d Hz), want %v (%d Hz)", c.tv, s, s.Hertz(), c.want, c.hertz)
		}
	}
}

func TestAspectRatiosAreDistinct(t *testing.T) {
	seen := map[float32]Standard{}
	for _, s := range []Standard{NTSC, PAL, MPAL} {
		if prev, ok := seen[s.AspectRatio()]; ok {
			t.Fatalf("%v and %v share aspect ratio %v", prev, s, s.AspectRatio())
		}
		seen[s.AspectRatio()] = s
	}
	if PAL.VerticalScale() <= NTSC.VerticalScale() {
		t.Fatalf("PAL vertical scale %v not above NTSC %v", PAL.VerticalScale(), NTSC.VerticalScale())
	}
}

func TestModeIndexAliases(t *testing.T) {
	if got := Mode(9).Index(); got != 1 {
		t.Fatalf("Mode(9).Index() = %d, want 1", got)
	}
	if !Mode(14).HiRes() {
		t.Fatal("Mode(14) should alias onto the hi-res entry")
	}
	if r := ResolutionFor(Mode(14)); r != (Resolution{640, 480}) {
		t.Fatalf("ResolutionFor(14) = %+v", r)
	}
}

func TestResolutionEncoded(t *testing.T) {
	if got := (Resolution{320, 240}).Encoded(); got != 0x00F0_0140 {
		t.Fatalf("Encoded() = %#x, want 0xf00140", got)
	}
}

func TestAdjustRegionalOnce(t *testing.T) {
	tab := NewTable()
	if !tab.AdjustRegional() {
		t.Fatal("first AdjustRegional returned false")
	}
	if tab.AdjustRegional() {
		t.Fatal("second AdjustRegional returned true")
	}
	for m := Mode(0); m <= ModeMask; m++ {
		got := tab.ResolutionFor(m)
		want := DefaultResolutions[m]
		if got.Width != want.Width || got.Height != want.Height+RegionalLines {
			t.Fatalf("mode %d: %+v, want %dx%d", m, got, want.Width, want.Height+RegionalLines)
		}
	}
	if DefaultResolutions[0].Height != 240 {
		t.Fatal("AdjustRegional modified DefaultResolutions")
	}
}

func TestTimingTemplates(t *testing.T) {
	for _, s := range []Standard{NTSC, PAL, MPAL} {
		lo := TimingFor(s, ModeLowRes)
		hi := TimingFor(s, ModeHiRes)
		if lo.Width != 320 || hi.Width != 640 {
			t.Errorf("%v: widths %d/%d, want 320/640", s, lo.Width, hi.Width)
		}
		if hi.Control&hal.VICtrlSerrateOn == 0 || lo.Control&hal.VICtrlSerrateOn != 0 {
			t.Errorf("%v: only the hi-res template should be interlaced", s)
		}
		if _, h := lo.DisplaySize(); h < 230 || h > 240 {
			t.Errorf("%v: low-res template scans %d lines", s, h)
		}
	}
}

func TestCustomTimingPAL(t *testing.T) {
	regs := CustomTiming(PAL, ModeLowRes, 0, 0)
	if regs.VStart != 0x0047_0249 {
		t.Fatalf("VStart = %#x, want 0x470249", regs.VStart)
	}
	if _, h := regs.DisplaySize(); h < 255 {
		t.Fatalf("PAL custom timing scans %d lines, want room for 260", h)
	}
	if ntsc := CustomTiming(NTSC, ModeLowRes, 0, 0); ntsc != TimingFor(NTSC, ModeLowRes) {
		t.Fatal("NTSC custom timing without nudges differs from template")
	}
}

func TestCustomTimingNudges(t *testing.T) {
	base := TimingFor(NTSC, ModeLowRes)
	regs := CustomTiming(NTSC, ModeLowRes, -1, 2)
	if regs.VStart != base.VStart+2*0x2_0002 {
		t.Fatalf("VStart = %#x, want %#x", regs.VStart, base.VStart+2*0x2_0002)
	}
	if regs.HStart != base.HStart-0x2_0002 {
		t.Fatalf("HStart = %#x, want %#x", regs.HStart, base.HStart-0x2_0002)
	}
}

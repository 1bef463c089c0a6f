// Package video drives the video interface: display timing per TV standard,
// framebuffer placement in RDRAM and the double-buffer swap chain that runs
// in step with the vertical retrace.
package video

import "vicore/hal"

// Standard is a broadcast timing family.
type Standard uint8

const (
	NTSC Standard = iota
	PAL
	MPAL
)

type standardInfo struct {
	name   string
	hertz  int
	aspect float32
	vscale float32
}

// Constants fixed by each standard. PAL renders 20 extra lines into the same
// 4:3 picture, which is where its aspect and vertical scale come from.
var standards = [...]standardInfo{
	NTSC: {name: "NTSC", hertz: 60, aspect: 4.0 / 3.0, vscale: 1.0},
	PAL:  {name: "PAL", hertz: 50, aspect: 320.0 / 260.0, vscale: 260.0 / 240.0},
	MPAL: {name: "MPAL", hertz: 60, aspect: 1.3541666, vscale: 1.0},
}

// StandardFor maps the boot TV type to a standard. Anything unknown is NTSC.
func StandardFor(tv hal.TVType) Standard {
	switch tv {
	case hal.TVPAL:
		return PAL
	case hal.TVMPAL:
		return MPAL
	default:
		return NTSC
	}
}

func (s Standard) info() standardInfo {
	if int(s) >= len(standards) {
		return standards[NTSC]
	}
	return standards[s]
}

func (s Standard) String() string       { return s.info().name }
func (s Standard) Hertz() int           { return s.info().hertz }
func (s Standard) AspectRatio() float32 { return s.info().aspect }

// VerticalScale is the factor between the standard's raster height and the
// 240-line NTSC picture.
func (s Standard) VerticalScale() float32 { return s.info().vscale }

// Mode selects an entry of the resolution table and a timing template.
type Mode uint8

// ModeMask is the width of the mode field. Modes outside it alias onto an
// in-range entry instead of failing, so the retrace path never has an error
// to handle.
const ModeMask Mode = 0x7

const (
	ModeLowRes Mode = 1
	ModeHiRes  Mode = 6
	ModeUI     Mode = 7
)

// Index returns the table index of m.
func (m Mode) Index() int { return int(m & ModeMask) }

// HiRes reports whether m uses the interlaced 640x480 template.
func (m Mode) HiRes() bool { return m.Index() == ModeHiRes.Index() }

// Resolution is a framebuffer size in pixels.
type Resolution struct {
	Width  uint32
	Height uint32
}

// Encoded packs the resolution as 0xHHHH_WWWW.
func (r Resolution) Encoded() uint32 {
	return r.Height<<16 | r.Width
}

// RegionalLines is the extra raster height of PAL pictures.
const RegionalLines = 20

// DefaultResolutions is the resolution of every mode before any regional
// adjustment.
var DefaultResolutions = [ModeMask + 1]Resolution{
	{320, 240},
	{320, 240},
	{320, 224},
	{304, 224},
	{288, 216},
	{256, 192},
	{640, 480},
	{320, 240},
}

// ResolutionFor looks a mode up in DefaultResolutions.
func ResolutionFor(m Mode) Resolution {
	return DefaultResolutions[m.Index()]
}

// Table is the resolution table a scheduler works from.
type Table struct {
	res      [ModeMask + 1]Resolution
	adjusted bool
}

// NewTable returns a copy of DefaultResolutions.
func NewTable() *Table {
	return &Table{res: DefaultResolutions}
}

// ResolutionFor looks a mode up in the table.
func (t *Table) ResolutionFor(m Mode) Resolution {
	return t.res[m.Index()]
}

// AdjustRegional adds RegionalLines to every entry. The adjustment is
// applied at most once per table; later calls return false and change
// nothing.
func (t *Table) AdjustRegional() bool {
	if t.adjusted {
		return false
	}
	for i := range t.res {
		t.res[i].Height += RegionalLines
	}
	t.adjusted = true
	return true
}

// Adjusted reports whether AdjustRegional has been applied.
func (t *Table) Adjusted() bool { return t.adjusted }

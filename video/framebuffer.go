package video

import (
	"errors"
	"fmt"

	"vicore/hal"
)

// BytesPerPixel is the framebuffer depth: RGBA 5551.
const BytesPerPixel = 2

// Fixed RDRAM placement of the framebuffers.
const (
	kseg0 uint32 = 0x8000_0000

	// FramebufferAddrBase holds both framebuffers at the top of a console
	// without the memory expansion.
	FramebufferAddrBase uint32 = 0x803A_0000
	// FramebufferAddrExpanded holds both framebuffers in the expansion.
	FramebufferAddrExpanded uint32 = 0x8060_0000
	// DepthAddrExpanded is the start of the region below the framebuffers
	// the renderer uses for depth when the expansion is present.
	DepthAddrExpanded uint32 = 0x8020_0000

	// TallHeight is the height that selects the interlaced layout.
	TallHeight = 480
)

var ErrOutOfMemory = errors.New("video: framebuffers do not fit in memory")

// LayoutKind identifies which placement rule produced a layout.
type LayoutKind uint8

const (
	LayoutBase     LayoutKind = iota // no expansion
	LayoutTall                       // expansion, 480 lines
	LayoutExpanded                   // expansion, depth region below the framebuffers
)

func (k LayoutKind) String() string {
	switch k {
	case LayoutBase:
		return "base"
	case LayoutTall:
		return "tall"
	case LayoutExpanded:
		return "expanded"
	default:
		return fmt.Sprintf("LayoutKind(%d)", uint8(k))
	}
}

// Region is a KSEG0 address range.
type Region struct {
	Base uint32
	Size uint32
}

// End returns the first address past r.
func (r Region) End() uint32 { return r.Base + r.Size }

// Layout is the placement of the framebuffers in RDRAM.
type Layout struct {
	Kind    LayoutKind
	Width   int
	Height  int
	Buffers []Region

	// Start is the lowest address of video memory, which is where the
	// renderer keeps its depth buffer. End is only tracked by the expanded
	// layout and is zero otherwise.
	Start uint32
	End   uint32
}

// Pointer returns the address of buffer i. A single-buffered layout returns
// its only buffer for both indices.
func (l Layout) Pointer(i int) uint32 {
	if len(l.Buffers) == 0 {
		return 0
	}
	if i < 0 || i >= len(l.Buffers) {
		i = 0
	}
	return l.Buffers[i].Base
}

// FrameBytes is the size of one framebuffer.
func (l Layout) FrameBytes() uint32 {
	return uint32(l.Width * l.Height * BytesPerPixel)
}

// Top returns the first address past every region of the layout.
func (l Layout) Top() uint32 {
	top := l.Start
	for _, r := range l.Buffers {
		if r.End() > top {
			top = r.End()
		}
	}
	if l.End > top {
		top = l.End
	}
	return top
}

// Allocate places buffers framebuffers of width x height pixels. The
// placement depends only on whether the memory expansion is present and on
// the height: it never searches for free space, and it fails with
// ErrOutOfMemory instead of overlapping the end of RDRAM.
func Allocate(expanded bool, width, height, buffers int) (Layout, error) {
	if width <= 0 || height <= 0 {
		return Layout{}, fmt.Errorf("video: invalid framebuffer size %dx%d", width, height)
	}
	if buffers < 1 {
		buffers = 1
	}
	if buffers > 2 {
		buffers = 2
	}

	l := Layout{Width: width, Height: height}
	frame64 := uint64(width) * uint64(height) * BytesPerPixel
	ceiling := kseg0 + hal.MemorySizeBase

	var base uint32
	switch {
	case !expanded:
		l.Kind = LayoutBase
		base = FramebufferAddrBase
		l.Start = base
	case height == TallHeight:
		ceiling = kseg0 + hal.MemorySizeExpanded
		l.Kind = LayoutTall
		base = FramebufferAddrExpanded
		l.Start = base
	default:
		ceiling = kseg0 + hal.MemorySizeExpanded
		l.Kind = LayoutExpanded
		base = FramebufferAddrExpanded
		l.Start = DepthAddrExpanded
	}

	// The expanded end marker always spans two frames.
	frames := uint64(buffers)
	if l.Kind == LayoutExpanded {
		frames = 2
	}
	if top := uint64(base) + frames*frame64; top > uint64(ceiling) {
		return Layout{}, fmt.Errorf("%w: %dx%d x%d ends at %#x, memory ends at %#08x",
			ErrOutOfMemory, width, height, buffers, top, ceiling)
	}

	frame := uint32(frame64)
	if l.Kind == LayoutExpanded {
		l.End = base + 2*frame
	}
	l.Buffers = make([]Region, buffers)
	for i := range l.Buffers {
		l.Buffers[i] = Region{Base: base + uint32(i)*frame, Size: frame}
	}
	return l, nil
}

package video

import (
	"encoding/binary"

	"vicore/hal"
)

// MaxDepthProbes is the number of probes one frame can hold.
const MaxDepthProbes = 40

// zFormat expands the 14-bit floating point depth stored in the depth
// buffer: the top three bits of the mantissa field select a shift and an
// offset.
var zFormat = [8]struct{ shift, add uint32 }{
	{6, 0x0_0000},
	{5, 0x2_0000},
	{4, 0x3_0000},
	{3, 0x3_8000},
	{2, 0x3_C000},
	{1, 0x3_E000},
	{0, 0x3_F000},
	{0, 0x3_F800},
}

// DecodeDepth turns a raw depth buffer texel into a linear 15-bit depth.
func DecodeDepth(raw uint16) uint32 {
	z := uint32(raw) >> 2
	f := zFormat[(z>>11)&7]
	return ((z&0x7FF)<<f.shift + f.add) >> 3
}

// DepthProbe asks for the depth under one pixel of the frame being drawn.
type DepthProbe struct {
	Pixel int32
	Depth uint32
}

// depthProbes is double buffered like the framebuffers: probes queued while
// a frame is drawn are read back after that frame's depth is complete.
type depthProbes struct {
	lists  [2][]DepthProbe
	active int
}

func (p *depthProbes) reset() {
	for i := range p.lists {
		if p.lists[i] == nil {
			p.lists[i] = make([]DepthProbe, 0, MaxDepthProbes)
		}
		p.lists[i] = p.lists[i][:0]
	}
	p.active = 0
}

// AddDepthProbe queues a probe of pixel for the frame being drawn. It
// returns false when the frame already holds MaxDepthProbes probes.
func (s *Scheduler) AddDepthProbe(pixel int32) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &s.probes
	if p.lists[0] == nil {
		p.reset()
	}
	l := p.lists[p.active]
	if len(l) >= MaxDepthProbes {
		return 0, false
	}
	p.lists[p.active] = append(l, DepthProbe{Pixel: pixel})
	return len(l), true
}

// ResolveDepthProbes reads the depth of every queued probe from the depth
// buffer and starts a new probe list. Negative or out-of-range pixels
// resolve to zero.
func (s *Scheduler) ResolveDepthProbes() []DepthProbe {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &s.probes
	if p.lists[0] == nil {
		p.reset()
	}
	l := p.lists[p.active]
	mem := s.mem.Bytes()
	base := hal.Physical(s.layout.Start)
	pixels := int64(s.layout.Width * s.layout.Height)

	out := make([]DepthProbe, len(l))
	for i, probe := range l {
		out[i].Pixel = probe.Pixel
		if s.layout.Start == 0 || probe.Pixel < 0 || int64(probe.Pixel) >= pixels {
			continue
		}
		off := int64(base) + int64(probe.Pixel)*BytesPerPixel
		if off+2 > int64(len(mem)) {
			continue
		}
		out[i].Depth = DecodeDepth(binary.BigEndian.Uint16(mem[off:]))
	}

	p.active ^= 1
	p.lists[p.active] = p.lists[p.active][:0]
	return out
}

package video

import (
	"encoding/binary"
	"testing"

	"vicore/hal"
)

func TestDecodeDepthRange(t *testing.T) {
	if got := DecodeDepth(0); got != 0 {
		t.Fatalf("DecodeDepth(0) = %#x", got)
	}
	if got := DecodeDepth(0xFFFF); got != 0x7FFF {
		t.Fatalf("DecodeDepth(0xffff) = %#x, want 0x7fff", got)
	}
	prev := DecodeDepth(0)
	for raw := 4; raw <= 0xFFFF; raw += 4 {
		got := DecodeDepth(uint16(raw))
		if got < prev {
			t.Fatalf("DecodeDepth(%#x) = %#x, below %#x", raw, got, prev)
		}
		prev = got
	}
}

func TestDepthProbes(t *testing.T) {
	r := newRig(t, hal.TVNTSC, hal.MemorySizeExpanded)
	r.configure(t, Config{Mode: ModeLowRes, DoubleBuffered: true})

	start := hal.Physical(r.vs.FramebufferStart())
	binary.BigEndian.PutUint16(r.hal.mem.buf[start+2*100:], 0xFFFF)

	if slot, ok := r.vs.AddDepthProbe(100); !ok || slot != 0 {
		t.Fatalf("AddDepthProbe = %d, %v", slot, ok)
	}
	if _, ok := r.vs.AddDepthProbe(-1); !ok {
		t.Fatal("second probe rejected")
	}
	got := r.vs.ResolveDepthProbes()
	if len(got) != 2 || got[0].Depth != 0x7FFF || got[1].Depth != 0 {
		t.Fatalf("ResolveDepthProbes() = %+v", got)
	}
	if again := r.vs.ResolveDepthProbes(); len(again) != 0 {
		t.Fatalf("probes survived resolve: %+v", again)
	}
}

func TestDepthProbesCapacity(t *testing.T) {
	r := newRig(t, hal.TVNTSC, hal.MemorySizeExpanded)
	r.configure(t, Config{Mode: ModeLowRes, DoubleBuffered: true})
	for i := 0; i < MaxDepthProbes; i++ {
		if _, ok := r.vs.AddDepthProbe(int32(i)); !ok {
			t.Fatalf("probe %d rejected", i)
		}
	}
	if _, ok := r.vs.AddDepthProbe(0); ok {
		t.Fatal("probe beyond capacity accepted")
	}
}

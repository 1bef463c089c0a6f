//go:build !tinygo

package hal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestHostCounterWraps(t *testing.T) {
	base := time.Unix(1000, 0)
	now := base
	c := newHostCounterWithClock(func() time.Time { return now })

	now = base.Add(time.Second)
	if got := c.Count(); got != CountRate {
		t.Fatalf("Count() after 1s = %d, want %d", got, CountRate)
	}
	// 2^32 ticks is a little under 92 seconds.
	now = base.Add(92 * time.Second)
	want := uint32(uint64(92*CountRate) & 0xFFFF_FFFF)
	if got := c.Count(); got != want {
		t.Fatalf("Count() after 92s = %#x, want %#x", got, want)
	}
}

func TestHostHALMemorySize(t *testing.T) {
	var out bytes.Buffer
	h := newHostHAL(HostConfig{TV: TVPAL, Expanded: true}, &out)
	if h.Memory().Size() != MemorySizeExpanded {
		t.Fatalf("Size() = %#x", h.Memory().Size())
	}
	if !strings.Contains(out.String(), "hal: host PAL, 8192 KiB RDRAM") {
		t.Fatalf("log = %q", out.String())
	}
	h = newHostHAL(HostConfig{TV: TVNTSC}, &out)
	if h.Memory().Size() != MemorySizeBase || h.TVType() != TVNTSC {
		t.Fatal("base console misconfigured")
	}
}

func TestHostMemorySnapshot(t *testing.T) {
	m := newHostMemory(16)
	copy(m.Bytes()[8:], []byte{1, 2, 3, 4})
	dst := make([]byte, 4)
	if n := m.snapshot(dst, 0x8000_0008); n != 4 || !bytes.Equal(dst, []byte{1, 2, 3, 4}) {
		t.Fatalf("snapshot = %d %v", n, dst)
	}
	if n := m.snapshot(dst, 0x8000_0100); n != 0 {
		t.Fatalf("snapshot past end = %d", n)
	}
}

func TestHostVideoDropsUnreadRetraces(t *testing.T) {
	v := newHostVideo()
	for i := 0; i < cap(v.ch)+10; i++ {
		v.retrace()
	}
	if len(v.ch) != cap(v.ch) {
		t.Fatalf("queued %d retraces, want %d", len(v.ch), cap(v.ch))
	}
	if seq := <-v.Retrace(); seq != 1 {
		t.Fatalf("first retrace = %d", seq)
	}
	v.Load(VideoRegs{Width: 320})
	if v.Registers().Width != 320 {
		t.Fatal("Load not visible")
	}
}

func TestRunHeadlessTicks(t *testing.T) {
	var out bytes.Buffer
	h := newHostHAL(HostConfig{TV: TVNTSC}, &out)
	steps := 0
	err := runHeadless(context.Background(), h, func(HAL) func() error {
		return func() error {
			steps++
			return nil
		}
	}, HeadlessConfig{Enabled: true, Hz: 1000, Ticks: 3})
	if err != nil {
		t.Fatalf("runHeadless: %v", err)
	}
	if steps != 3 || len(h.vi.ch) != 3 {
		t.Fatalf("steps = %d, retraces = %d, want 3", steps, len(h.vi.ch))
	}
}

func TestRunHeadlessStepError(t *testing.T) {
	var out bytes.Buffer
	h := newHostHAL(HostConfig{TV: TVPAL}, &out)
	errStop := errors.New("stop")
	err := runHeadless(context.Background(), h, func(HAL) func() error {
		return func() error { return errStop }
	}, HeadlessConfig{Enabled: true, Hz: 1000})
	if !errors.Is(err, errStop) {
		t.Fatalf("err = %v, want errStop", err)
	}
}

func TestRunHeadlessCancel(t *testing.T) {
	var out bytes.Buffer
	h := newHostHAL(HostConfig{TV: TVNTSC}, &out)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runHeadless(ctx, h, func(HAL) func() error { return nil }, HeadlessConfig{Enabled: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if RefreshHz(TVPAL) != 50 || RefreshHz(TVMPAL) != 60 {
		t.Fatal("unexpected refresh rates")
	}
}

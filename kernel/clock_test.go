package kernel

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"vicore/hal"
)

type fakeCounter struct {
	v atomic.Uint32
}

func (f *fakeCounter) Count() uint32 { return f.v.Load() }
func (f *fakeCounter) set(v uint32)  { f.v.Store(v) }
func (f *fakeCounter) add(d uint32)  { f.v.Add(d) }

func TestClockNow(t *testing.T) {
	c := NewCore()
	th := c.NewThread("main", 10)
	cnt := &fakeCounter{}
	cnt.set(100)

	clk := NewClock(cnt)
	if now := clk.Now(th); now != 0 {
		t.Fatalf("Now() = %d, want 0", now)
	}
	cnt.set(150)
	if now := clk.Now(th); now != 50 {
		t.Fatalf("Now() = %d, want 50", now)
	}
}

func TestClockSurvivesCounterWrap(t *testing.T) {
	c := NewCore()
	th := c.NewThread("main", 10)
	cnt := &fakeCounter{}
	cnt.set(0xFFFF_FFF0)

	clk := NewClock(cnt)
	t1 := clk.Now(th)
	cnt.set(0x10)
	t2 := clk.Now(th)
	if t2 < t1 {
		t.Fatalf("time went backwards across wrap: %d -> %d", t1, t2)
	}
	if t2-t1 != 0x20 {
		t.Fatalf("elapsed across wrap = %#x, want 0x20", t2-t1)
	}
}

func TestClockAccumulateKeepsMonotonic(t *testing.T) {
	c := NewCore()
	th := c.NewThread("main", 10)
	cnt := &fakeCounter{}
	cnt.set(0x1234)

	clk := NewClock(cnt)
	var want Time
	last := clk.Now(th)
	for i := 0; i < 10; i++ {
		cnt.add(0x9000_0000)
		want += 0x9000_0000
		clk.Accumulate(th)
		now := clk.Now(th)
		if now <= last {
			t.Fatalf("step %d: Now() = %d, not after %d", i, now, last)
		}
		if now != want {
			t.Fatalf("step %d: Now() = %#x, want %#x", i, now, want)
		}
		last = now
	}
}

func TestClockSetTime(t *testing.T) {
	c := NewCore()
	th := c.NewThread("main", 10)
	cnt := &fakeCounter{}
	cnt.set(500)

	clk := NewClock(cnt)
	cnt.set(900)
	clk.SetTime(th, 1000)
	if now := clk.Now(th); now != 1000 {
		t.Fatalf("Now() after SetTime = %d, want 1000", now)
	}
	cnt.add(5)
	if now := clk.Now(th); now != 1005 {
		t.Fatalf("Now() = %d, want 1005", now)
	}
}

func TestTimeConversions(t *testing.T) {
	if d := Time(hal.CountRate).Duration(); d != time.Second {
		t.Fatalf("Duration() = %v, want 1s", d)
	}
	if d := Time(hal.CountRate / 1000).Duration(); d != time.Millisecond {
		t.Fatalf("Duration() = %v, want 1ms", d)
	}
	if v := Ticks(time.Second); v != hal.CountRate {
		t.Fatalf("Ticks(1s) = %d, want %d", v, hal.CountRate)
	}
	if v := Ticks(-time.Second); v != 0 {
		t.Fatalf("Ticks(-1s) = %d, want 0", v)
	}
	long := Ticks(time.Hour)
	if d := long.Duration(); d != time.Hour {
		t.Fatalf("round trip of 1h = %v", d)
	}
}

func TestFatalRunsHandlerOnce(t *testing.T) {
	c := NewCore()
	th := c.NewThread("boot", 10)

	var calls int
	var got FatalInfo
	c.SetFatalHandler(func(info FatalInfo) {
		calls++
		got = info
	})

	errBoom := errors.New("boom")
	c.Fatal(th, errBoom)
	c.Fatal(th, errors.New("second"))

	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
	if !errors.Is(got.Err, errBoom) || got.Thread != "boot" {
		t.Fatalf("FatalInfo = %+v", got)
	}
	if len(got.Stack) == 0 {
		t.Fatal("expected a stack trace")
	}
	if !c.InFatal() {
		t.Fatal("expected InFatal")
	}
}

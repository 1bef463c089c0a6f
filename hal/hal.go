package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// TVType is the broadcast standard the console was booted into.
type TVType uint8

const (
	TVPAL TVType = iota
	TVNTSC
	TVMPAL
)

func (t TVType) String() string {
	switch t {
	case TVPAL:
		return "PAL"
	case TVNTSC:
		return "NTSC"
	case TVMPAL:
		return "MPAL"
	default:
		return "unknown"
	}
}

// Counter is the free-running CPU count register.
//
// It advances at half the CPU clock and wraps at 2^32.
type Counter interface {
	Count() uint32
}

// CountRate is the rate of the count register in Hz.
const CountRate = 46_875_000

// Memory sizes reported by the boot code.
const (
	MemorySizeBase     uint32 = 0x400000
	MemorySizeExpanded uint32 = 0x800000
)

// Memory is the console's main RDRAM.
//
// Addresses handed to the video interface are KSEG0 virtual addresses; use
// Physical to turn them into offsets into Bytes.
type Memory interface {
	Size() uint32
	Bytes() []byte
}

// Physical strips the segment bits from a KSEG0/KSEG1 address.
func Physical(addr uint32) uint32 {
	return addr & 0x1FFF_FFFF
}

// VideoRegs is the video interface register file.
//
// Field names follow the register order of the hardware; HStart of zero
// blanks the output.
type VideoRegs struct {
	Control uint32
	Origin  uint32
	Width   uint32
	VIntr   uint32
	Burst   uint32
	VSync   uint32
	HSync   uint32
	Leap    uint32
	HStart  uint32
	VStart  uint32
	VBurst  uint32
	XScale  uint32
	YScale  uint32
}

// Control register bits.
const (
	VICtrlType16        uint32 = 0x0002
	VICtrlType32        uint32 = 0x0003
	VICtrlGammaDitherOn uint32 = 0x0004
	VICtrlGammaOn       uint32 = 0x0008
	VICtrlDivotOn       uint32 = 0x0010
	VICtrlSerrateOn     uint32 = 0x0040
	VICtrlAntialias1    uint32 = 0x0100
	VICtrlPixelAdv3     uint32 = 0x3000
	VICtrlDitherFilter  uint32 = 0x10000
)

// Blanked reports whether the register state produces a black screen.
func (r VideoRegs) Blanked() bool {
	return r.HStart == 0 || r.Control&0x3 == 0
}

// DisplaySize returns the framebuffer dimensions the registers scan out.
func (r VideoRegs) DisplaySize() (width, height int) {
	width = int(r.Width & 0xFFF)
	start := int((r.VStart >> 16) & 0x3FF)
	end := int(r.VStart & 0x3FF)
	lines := (end - start) / 2
	if lines <= 0 {
		return width, 0
	}
	scale := int(r.YScale & 0xFFF)
	if scale == 0 {
		scale = 0x400
	}
	height = lines * scale / 0x400
	return width, height
}

// Video is the video interface: a register file latched by the hardware and
// a retrace stream with one sequence number per vertical interrupt.
type Video interface {
	Load(regs VideoRegs)
	Registers() VideoRegs
	Retrace() <-chan uint64
}

// HAL provides the only contact point between the runtime and the outside world.
type HAL interface {
	Logger() Logger
	Counter() Counter
	Memory() Memory
	Video() Video
	TVType() TVType
}

package video

import "vicore/hal"

type template uint8

const (
	templateLAN1 template = iota // 320x240, 16 bpp, anti-aliased, non-interlaced
	templateHAF1                 // 640x480, 16 bpp, anti-aliased, interlaced
)

const (
	ctrlLAN1 = hal.VICtrlType16 | hal.VICtrlGammaDitherOn | hal.VICtrlGammaOn |
		hal.VICtrlDivotOn | hal.VICtrlAntialias1 | hal.VICtrlPixelAdv3
	ctrlHAF1 = ctrlLAN1 | hal.VICtrlSerrateOn
)

var timings = [...][2]hal.VideoRegs{
	NTSC: {
		templateLAN1: {
			Control: ctrlLAN1, Width: 320, Burst: 0x03E5_2239, VSync: 0x20D,
			HSync: 0x0C15, Leap: 0x0C15_0C15, HStart: 0x006C_02EC, XScale: 0x200,
			Origin: 0x280, YScale: 0x400, VStart: 0x0025_01FF, VBurst: 0x000E_0204, VIntr: 2,
		},
		templateHAF1: {
			Control: ctrlHAF1, Width: 640, Burst: 0x03E5_2239, VSync: 0x20C,
			HSync: 0x0C15, Leap: 0x0C15_0C15, HStart: 0x006C_02EC, XScale: 0x400,
			Origin: 0x500, YScale: 0x0200_0800, VStart: 0x0023_01FD, VBurst: 0x000E_0204, VIntr: 2,
		},
	},
	PAL: {
		templateLAN1: {
			Control: ctrlLAN1, Width: 320, Burst: 0x0404_233A, VSync: 0x271,
			HSync: 0x0015_0C69, Leap: 0x0C6F_0C6E, HStart: 0x0080_0300, XScale: 0x200,
			Origin: 0x280, YScale: 0x400, VStart: 0x005F_0239, VBurst: 0x0009_026B, VIntr: 2,
		},
		templateHAF1: {
			Control: ctrlHAF1, Width: 640, Burst: 0x0404_233A, VSync: 0x270,
			HSync: 0x0015_0C69, Leap: 0x0C6F_0C6E, HStart: 0x0080_0300, XScale: 0x400,
			Origin: 0x500, YScale: 0x0200_0800, VStart: 0x005D_0237, VBurst: 0x0009_026B, VIntr: 2,
		},
	},
	MPAL: {
		templateLAN1: {
			Control: ctrlLAN1, Width: 320, Burst: 0x0465_1E39, VSync: 0x20D,
			HSync: 0x0004_0C11, Leap: 0x0C19_0C1A, HStart: 0x006C_02EC, XScale: 0x200,
			Origin: 0x280, YScale: 0x400, VStart: 0x0025_01FF, VBurst: 0x000E_0204, VIntr: 2,
		},
		templateHAF1: {
			Control: ctrlHAF1, Width: 640, Burst: 0x0465_1E39, VSync: 0x20C,
			HSync: 0x0004_0C11, Leap: 0x0C19_0C1A, HStart: 0x006C_02EC, XScale: 0x400,
			Origin: 0x500, YScale: 0x0200_0800, VStart: 0x0023_01FD, VBurst: 0x000B_0202, VIntr: 2,
		},
	},
}

func templateFor(m Mode) template {
	if m.HiRes() {
		return templateHAF1
	}
	return templateLAN1
}

// TimingFor returns the register template of a mode under a standard.
func TimingFor(s Standard, m Mode) hal.VideoRegs {
	if int(s) >= len(timings) {
		s = NTSC
	}
	return timings[s][templateFor(m)]
}

// CustomTiming is TimingFor with the adjustments the runtime applies on top
// of the template: PAL pictures start 24 lines earlier and end 16 lines
// later, and the user nudges move the picture in steps of two half-lines
// (vertically) or two pixels (horizontally). Both start and end of a range
// register move together.
func CustomTiming(s Standard, m Mode, hStartMod, vScaleMod int8) hal.VideoRegs {
	regs := TimingFor(s, m)
	if s == PAL {
		regs.VStart -= 0x18_0000
		regs.VStart += 0x10
	}
	regs.VStart = uint32(int32(regs.VStart) + int32(vScaleMod)*0x2_0000 + int32(vScaleMod)*2)
	regs.HStart = uint32(int32(regs.HStart) + int32(hStartMod)*0x2_0000 + int32(hStartMod)*2)
	return regs
}

package app

import (
	"image/color"

	"vicore/hal"

	"tinygo.org/x/drivers"
)

// fbDisplay draws into an RGBA 5551 framebuffer in RDRAM. Pixels are stored
// big-endian, the byte order the video interface scans out.
type fbDisplay struct {
	pix    []byte
	width  int
	height int
	stride int
}

var _ drivers.Displayer = (*fbDisplay)(nil)

func newFBDisplay(pix []byte, width, height, stride int) *fbDisplay {
	return &fbDisplay{pix: pix, width: width, height: height, stride: stride}
}

func (d *fbDisplay) Size() (x, y int16) {
	return int16(d.width), int16(d.height)
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || iy < 0 || ix >= d.width || iy >= d.height {
		return
	}
	d.put(iy*d.stride+ix*2, hal.RGBA5551(c.R, c.G, c.B))
}

func (d *fbDisplay) put(off int, p uint16) {
	if off < 0 || off+1 >= len(d.pix) {
		return
	}
	d.pix[off] = byte(p >> 8)
	d.pix[off+1] = byte(p)
}

func (d *fbDisplay) Display() error { return nil }

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	x0, y0 := max(int(x), 0), max(int(y), 0)
	x1, y1 := min(int(x)+int(width), d.width), min(int(y)+int(height), d.height)
	p := hal.RGBA5551(c.R, c.G, c.B)
	for iy := y0; iy < y1; iy++ {
		row := iy * d.stride
		for ix := x0; ix < x1; ix++ {
			d.put(row+ix*2, p)
		}
	}
	return nil
}

// SetScroll is a no-op: the video interface has no hardware scroll, and the
// fatal screen never writes past the last row.
func (d *fbDisplay) SetScroll(line int16) {}

// pixel reads back the 5551 value at (x, y).
func (d *fbDisplay) pixel(x, y int) uint16 {
	off := y*d.stride + x*2
	if x < 0 || y < 0 || x >= d.width || y >= d.height || off+1 >= len(d.pix) {
		return 0
	}
	return uint16(d.pix[off])<<8 | uint16(d.pix[off+1])
}

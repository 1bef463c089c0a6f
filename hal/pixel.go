package hal

// RGBA5551 packs a colour into the 16-bit framebuffer format: rrrrrgggggbbbbba.
func RGBA5551(r, g, b uint8) uint16 {
	rr := uint16(r>>3) & 0x1F
	gg := uint16(g>>3) & 0x1F
	bb := uint16(b>>3) & 0x1F
	return (rr << 11) | (gg << 6) | (bb << 1) | 1
}

func rgb888From5551(p uint16) (r, g, b uint8) {
	rr := (p >> 11) & 0x1F
	gg := (p >> 6) & 0x1F
	bb := (p >> 1) & 0x1F

	r = uint8((rr * 255) / 31)
	g = uint8((gg * 255) / 31)
	b = uint8((bb * 255) / 31)
	return r, g, b
}

//go:build !tinygo && cgo

package hal

import (
	"image"
	"os"

	"vicore/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	windowWidth  = 640
	windowHeight = 480
)

// RunWindow starts a desktop window that scans out whatever the video
// interface registers point at. Every game update is one vertical retrace.
// It blocks until the window closes.
func RunWindow(newApp func(HAL) func() error, hcfg HostConfig) error {
	h := newHostHAL(hcfg, os.Stdout)
	step := newApp(h)

	g := &hostGame{h: h, step: step}
	ebiten.SetWindowTitle("vicore " + hcfg.TV.String() + " (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetTPS(RefreshHz(hcfg.TV))
	return ebiten.RunGame(g)
}

type hostGame struct {
	h       *hostHAL
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
	step    func() error
}

func (g *hostGame) Update() error {
	g.h.vi.retrace()
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	regs := g.h.vi.Registers()
	if regs.Blanked() {
		screen.Clear()
		return
	}
	w, h := regs.DisplaySize()
	if w <= 0 || h <= 0 {
		screen.Clear()
		return
	}

	if g.img == nil || g.img.Bounds().Dx() != w || g.img.Bounds().Dy() != h {
		g.img = image.NewRGBA(image.Rect(0, 0, w, h))
		g.scratch = make([]byte, w*h*2)
		if g.fbImg != nil {
			g.fbImg.Deallocate()
		}
		g.fbImg = ebiten.NewImage(w, h)
	}

	n := g.h.mem.snapshot(g.scratch, regs.Origin)
	src := g.scratch[:n]
	dst := g.img.Pix
	for i := 0; i+1 < len(src) && i/2*4+3 < len(dst); i += 2 {
		r, gg, b := rgb888From5551(uint16(src[i])<<8 | uint16(src[i+1]))
		j := (i / 2) * 4
		dst[j+0] = r
		dst[j+1] = gg
		dst[j+2] = b
		dst[j+3] = 0xFF
	}

	g.fbImg.WritePixels(g.img.Pix)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(windowWidth)/float64(w), float64(windowHeight)/float64(h))
	screen.DrawImage(g.fbImg, op)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowWidth, windowHeight
}

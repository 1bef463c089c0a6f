// Command vimodes prints the video mode tables, timing templates and
// framebuffer layouts for each TV standard.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"vicore/internal/buildinfo"
	"vicore/video"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("vimodes", flag.ContinueOnError)
	fs.SetOutput(w)
	tv := fs.String("tv", "all", "Standard to print: ntsc, pal, mpal or all.")
	regional := fs.Bool("regional", false, "Apply the PAL raster adjustment to the PAL table.")
	hStart := fs.Int("hstart", 0, "Horizontal nudge applied to the timing.")
	vScale := fs.Int("vscale", 0, "Vertical nudge applied to the timing.")
	version := fs.Bool("version", false, "Print the build stamp and exit.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version {
		fmt.Fprintln(w, buildinfo.String())
		return nil
	}

	stds, err := parseStandards(*tv)
	if err != nil {
		return err
	}
	for _, s := range stds {
		printStandard(w, s, *regional, int8(*hStart), int8(*vScale))
	}
	return printLayouts(w)
}

func parseStandards(s string) ([]video.Standard, error) {
	switch strings.ToLower(s) {
	case "all":
		return []video.Standard{video.NTSC, video.PAL, video.MPAL}, nil
	case "ntsc":
		return []video.Standard{video.NTSC}, nil
	case "pal":
		return []video.Standard{video.PAL}, nil
	case "mpal":
		return []video.Standard{video.MPAL}, nil
	}
	return nil, fmt.Errorf("vimodes: unknown standard %q", s)
}

func printStandard(w io.Writer, s video.Standard, regional bool, hStart, vScale int8) {
	tab := video.NewTable()
	if regional && s == video.PAL {
		tab.AdjustRegional()
	}
	fmt.Fprintf(w, "%s: %d Hz, aspect %.4f, vertical scale %.4f\n", s, s.Hertz(), s.AspectRatio(), s.VerticalScale())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "mode\tsize\tencoded\twidth\tscan\thstart\tvstart")
	for m := video.Mode(0); m <= video.ModeMask; m++ {
		r := tab.ResolutionFor(m)
		regs := video.CustomTiming(s, m, hStart, vScale)
		sw, sh := regs.DisplaySize()
		fmt.Fprintf(tw, "%d\t%dx%d\t%#08x\t%d\t%dx%d\t%#08x\t%#08x\n",
			m, r.Width, r.Height, r.Encoded(), regs.Width, sw, sh, regs.HStart, regs.VStart)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func printLayouts(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "memory\tsize\tlayout\tbuffer0\tbuffer1\tstart\tend")
	for _, expanded := range []bool{false, true} {
		mem := "4M"
		if expanded {
			mem = "8M"
		}
		for _, sz := range [][2]int{{320, 240}, {320, 260}, {640, 480}} {
			l, err := video.Allocate(expanded, sz[0], sz[1], 2)
			if errors.Is(err, video.ErrOutOfMemory) {
				fmt.Fprintf(tw, "%s\t%dx%d\tdoes not fit\t\t\t\t\n", mem, sz[0], sz[1])
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%dx%d\t%s\t%#08x\t%#08x\t%#08x\t%#08x\n",
				mem, sz[0], sz[1], l.Kind, l.Pointer(0), l.Pointer(1), l.Start, l.End)
		}
	}
	return tw.Flush()
}

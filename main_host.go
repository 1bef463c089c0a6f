//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"vicore/app"
	"vicore/hal"
	"vicore/video"
)

func parseTV(s string) (hal.TVType, error) {
	switch strings.ToLower(s) {
	case "ntsc":
		return hal.TVNTSC, nil
	case "pal":
		return hal.TVPAL, nil
	case "mpal":
		return hal.TVMPAL, nil
	}
	return 0, fmt.Errorf("unknown TV standard %q (want ntsc, pal or mpal)", s)
}

func main() {
	var (
		hcfg     hal.HostConfig
		headless hal.HeadlessConfig
		cfg      app.Config
		tv       string
		mode     uint
	)
	flag.BoolVar(&headless.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&headless.Hz, "hz", 0, "Retrace rate in headless mode (0 = TV field rate).")
	flag.Uint64Var(&headless.Ticks, "ticks", 0, "Stop after N retraces in headless mode (0 = run forever).")
	flag.StringVar(&tv, "tv", "ntsc", "TV standard: ntsc, pal or mpal.")
	flag.BoolVar(&hcfg.Expanded, "exp", true, "Emulate the 8 MiB memory expansion.")
	flag.UintVar(&mode, "mode", uint(video.ModeLowRes), "Video mode index (0-7).")
	flag.BoolVar(&cfg.Video.DoubleBuffered, "double", true, "Double-buffer the display.")
	flag.BoolVar(&cfg.Video.RegionalAdjust, "regional", true, "Add the PAL raster lines to the resolution table.")
	flag.Uint64Var(&cfg.LogEvery, "log-every", 0, "Log a status line every N frames (0 = never).")
	flag.Parse()

	var err error
	if hcfg.TV, err = parseTV(tv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.Video.Mode = video.Mode(mode)

	var sys *app.System
	newApp := func(h hal.HAL) func() error {
		sys = app.Start(h, cfg)
		return sys.Step
	}

	if headless.Enabled {
		cfg.ExitOnFatal = true
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = hal.RunHeadless(ctx, newApp, hcfg, headless)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	} else {
		err = hal.RunWindow(newApp, hcfg)
	}

	if sys != nil {
		if serr := sys.Shutdown(); err == nil {
			err = serr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

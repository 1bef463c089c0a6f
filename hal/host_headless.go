//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"os"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Hz      int
	Ticks   uint64
}

// RefreshHz is the field rate of the given TV type.
func RefreshHz(tv TVType) int {
	if tv == TVPAL {
		return 50
	}
	return 60
}

// RunHeadless runs the runtime without opening a window. Vertical retraces are
// generated from a ticker at the TV field rate unless cfg.Hz overrides it.
func RunHeadless(ctx context.Context, newApp func(HAL) func() error, hcfg HostConfig, cfg HeadlessConfig) error {
	return runHeadless(ctx, newHostHAL(hcfg, os.Stdout), newApp, cfg)
}

func runHeadless(ctx context.Context, h *hostHAL, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = RefreshHz(h.tv)
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	step := newApp(h)

	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			h.vi.retrace()
			if step != nil {
				if err := step(); err != nil {
					return err
				}
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}

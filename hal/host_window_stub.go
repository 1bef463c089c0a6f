//go:build !tinygo && !cgo

package hal

import "fmt"

// RunWindow needs cgo for the window backend.
func RunWindow(_ func(HAL) func() error, _ HostConfig) error {
	return fmt.Errorf("window mode: %w (build with CGO_ENABLED=1 or use -headless)", ErrNotImplemented)
}

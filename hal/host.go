//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// HostConfig selects the emulated console the host HAL presents.
type HostConfig struct {
	TV       TVType
	Expanded bool
}

type hostHAL struct {
	tv     TVType
	logger *hostLogger
	count  *hostCounter
	mem    *hostMemory
	vi     *hostVideo
}

// New returns a host HAL implementation.
func New(cfg HostConfig) HAL {
	return newHostHAL(cfg, os.Stdout)
}

func newHostHAL(cfg HostConfig, w io.Writer) *hostHAL {
	size := MemorySizeBase
	if cfg.Expanded {
		size = MemorySizeExpanded
	}
	logger := &hostLogger{w: w}
	logger.WriteLineString(fmt.Sprintf("hal: host %s, %d KiB RDRAM", cfg.TV, size/1024))
	return &hostHAL{
		tv:     cfg.TV,
		logger: logger,
		count:  newHostCounter(),
		mem:    newHostMemory(size),
		vi:     newHostVideo(),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Counter() Counter { return h.count }
func (h *hostHAL) Memory() Memory   { return h.mem }
func (h *hostHAL) Video() Video     { return h.vi }
func (h *hostHAL) TVType() TVType   { return h.tv }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostMemory struct {
	mu  sync.Mutex
	buf []byte
}

func newHostMemory(size uint32) *hostMemory {
	return &hostMemory{buf: make([]byte, size)}
}

func (m *hostMemory) Size() uint32  { return uint32(len(m.buf)) }

// Bytes hands out RDRAM itself. Writers do not take mu, so the window's
// scan-out can see a frame mid-draw, as the video interface would.
func (m *hostMemory) Bytes() []byte { return m.buf }

// snapshot copies n bytes starting at the physical address into dst.
func (m *hostMemory) snapshot(dst []byte, addr uint32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	off := Physical(addr)
	if off >= uint32(len(m.buf)) {
		return 0
	}
	return copy(dst, m.buf[off:])
}

package kernel

import (
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// FatalInfo describes an unrecoverable error.
type FatalInfo struct {
	Thread string
	Err    error
	Stack  []byte
}

type fatalState struct {
	active  atomic.Bool
	once    sync.Once
	handler atomic.Value // func(FatalInfo)
}

// InFatal reports whether Fatal has been called on this core.
func (c *Core) InFatal() bool {
	return c.fatal.active.Load()
}

// SetFatalHandler installs the handler Fatal invokes.
//
// The handler is invoked at most once (on the first fatal error). It must not panic.
func (c *Core) SetFatalHandler(fn func(FatalInfo)) {
	c.fatal.handler.Store(fn)
}

// Fatal stops the system on an unrecoverable error, for instance a memory
// layout that does not fit at configuration time. Only the first call has
// an effect.
func (c *Core) Fatal(t *Thread, err error) {
	c.fatal.once.Do(func() {
		c.fatal.active.Store(true)
		info := FatalInfo{Err: err, Stack: debug.Stack()}
		if t != nil {
			info.Thread = t.name
		}
		if v := c.fatal.handler.Load(); v != nil {
			if fn, ok := v.(func(FatalInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}

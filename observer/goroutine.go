package observer

import (
	"sync"

	"github.com/petermattis/goid"
)

var runtimes sync.Map

// ForGoroutine returns the Runtime bound to the calling goroutine, creating
// it with opts on first use. Later calls ignore opts.
func ForGoroutine(opts ...Option) *Runtime {
	gid := goid.Get()
	if rt, ok := runtimes.Load(gid); ok {
		return rt.(*Runtime)
	}
	rt := New(opts...)
	runtimes.Store(gid, rt)
	return rt
}

// Release unbinds the calling goroutine's Runtime.
func Release() {
	runtimes.Delete(goid.Get())
}

package observer

import "fmt"

type ComputedOptions struct {
	Scope      *Scope
	Expression string
}

// Computed is a lazily evaluated derived value. It re-evaluates at most
// once per change of its dependencies, on the first read after the change.
type Computed struct {
	w *Watcher
}

func (rt *Runtime) Computed(getter Getter, opts *ComputedOptions) *Computed {
	wopts := &WatcherOptions{Lazy: true}
	if opts != nil {
		wopts.Scope = opts.Scope
		wopts.Expression = opts.Expression
	}
	return &Computed{w: rt.NewWatcher(getter, nil, wopts)}
}

// Get returns the cached value, evaluating first when dirty. The active
// watcher, if any, ends up depending on everything the computed read.
// Reading a computed from inside its own getter panics with
// ErrCircularEvaluation.
func (c *Computed) Get() any {
	w := c.w
	if w.evaluating {
		panic(fmt.Errorf("%w: computed %q read while evaluating", ErrCircularEvaluation, w.expression))
	}
	if w.dirty {
		w.Evaluate()
	}
	if w.rt.target != nil {
		w.Depend()
	}
	return w.value
}

func (c *Computed) Watcher() *Watcher {
	return c.w
}

func (c *Computed) Teardown() {
	c.w.Teardown()
}

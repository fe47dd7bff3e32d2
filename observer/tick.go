package observer

// Ticker schedules fn to run after the current synchronous unit of work.
type Ticker interface {
	Schedule(fn func())
}

type TickerFunc func(fn func())

func (f TickerFunc) Schedule(fn func()) {
	f(fn)
}

// MicrotaskQueue is a FIFO of deferred tasks. The host drains it once its
// synchronous work is done; tasks scheduled while draining run in the same
// drain.
type MicrotaskQueue struct {
	tasks []func()
}

func (q *MicrotaskQueue) Schedule(fn func()) {
	q.tasks = append(q.tasks, fn)
}

func (q *MicrotaskQueue) Len() int {
	return len(q.tasks)
}

// Drain runs queued tasks until the queue is empty and returns how many ran.
func (q *MicrotaskQueue) Drain() int {
	n := 0
	for len(q.tasks) > 0 {
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		fn()
		n++
	}
	return n
}

// NextTick defers fn until after the current synchronous unit of work.
// Callbacks queued before the tick runs share one scheduled drain.
func (rt *Runtime) NextTick(fn func()) {
	rt.callbacks = append(rt.callbacks, fn)
	if !rt.pending {
		rt.pending = true
		rt.ticker.Schedule(rt.flushCallbacks)
	}
}

func (rt *Runtime) flushCallbacks() {
	rt.pending = false
	copies := rt.callbacks
	rt.callbacks = nil
	for _, cb := range copies {
		rt.invoke(func() error {
			cb()
			return nil
		}, nil, "nextTick")
	}
}

// Tick drains the runtime's built-in microtask queue. It is a no-op when a
// custom Ticker was configured.
func (rt *Runtime) Tick() int {
	return rt.microtasks.Drain()
}

// Do runs fn as one synchronous unit of work and then drains pending ticks.
func (rt *Runtime) Do(fn func()) {
	fn()
	rt.Tick()
}

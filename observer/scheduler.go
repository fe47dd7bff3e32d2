package observer

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type scheduler struct {
	rt *Runtime

	queue      []*Watcher
	has        map[uint64]bool
	circular   map[uint64]int
	suppressed map[uint64]bool

	waiting  bool
	flushing bool
	index    int
}

func newScheduler(rt *Runtime) *scheduler {
	return &scheduler{
		rt:         rt,
		has:        map[uint64]bool{},
		circular:   map[uint64]int{},
		suppressed: map[uint64]bool{},
	}
}

// enqueue adds w to the pending batch unless it is already there. While a
// flush is running w is spliced in by id after the current position so it
// still runs in this pass.
func (s *scheduler) enqueue(w *Watcher) {
	id := w.id
	if s.has[id] || s.suppressed[id] {
		return
	}
	s.has[id] = true
	if !s.flushing {
		s.queue = append(s.queue, w)
	} else {
		i := len(s.queue) - 1
		for i > s.index && s.queue[i].id > id {
			i--
		}
		s.queue = slices.Insert(s.queue, i+1, w)
	}

	if s.waiting {
		return
	}
	s.waiting = true
	if !s.rt.cfg.Async {
		s.flush()
		return
	}
	s.rt.NextTick(s.flush)
}

func (s *scheduler) flush() {
	// a pass is already running further up the stack and will pick up
	// anything queued since
	if s.flushing || (len(s.queue) == 0 && !s.waiting) {
		return
	}
	rt := s.rt
	start := time.Now()
	_, span := rt.tracer.Start(context.Background(), "observer.flush")
	runs := 0
	defer func() {
		if r := recover(); r != nil {
			s.reset()
			span.RecordError(toError(r))
			span.SetStatus(codes.Error, "watcher evaluation failed")
			span.End()
			panic(r)
		}
	}()

	s.flushing = true

	// Sorting ensures that:
	// 1. outer watchers run before the watchers created inside them
	// 2. user watchers run before the render watcher of the same scope,
	//    since they are created first
	// 3. a watcher torn down during a parent's run can be skipped
	slices.SortFunc(s.queue, func(a, b *Watcher) int {
		return cmp.Compare(a.id, b.id)
	})

	// length is re-read on every iteration, more watchers may be queued
	// while existing ones run
	for s.index = 0; s.index < len(s.queue); s.index++ {
		w := s.queue[s.index]
		id := w.id
		if s.suppressed[id] {
			continue
		}
		delete(s.has, id)
		if !w.active {
			continue
		}
		if w.before != nil {
			w.before()
		}
		w.Run()
		runs++
		rt.metrics.runs.WithLabelValues(runKind(w)).Inc()

		if s.has[id] {
			s.circular[id]++
			if s.circular[id] > rt.cfg.MaxUpdateCount {
				s.suppressed[id] = true
				rt.metrics.infiniteUpdates.Inc()
				rt.handleError(
					fmt.Errorf("%w in watcher with expression %q", ErrInfiniteUpdate, w.expression),
					w, "scheduler flush",
				)
			}
		}
	}

	updated := slices.Clone(s.queue)
	queued := len(s.queue)
	s.reset()

	rt.metrics.flushes.Inc()
	rt.metrics.queueSize.Observe(float64(queued))
	span.SetAttributes(
		attribute.Int("observer.queue_size", queued),
		attribute.Int("observer.runs", runs),
	)
	span.End()
	rt.log.WithField("queue", queued).WithField("duration", time.Since(start)).Debug("flushed watchers")

	callUpdatedHooks(updated)
}

func (s *scheduler) reset() {
	clear(s.queue)
	s.queue = s.queue[:0]
	s.index = 0
	clear(s.has)
	clear(s.circular)
	clear(s.suppressed)
	s.waiting = false
	s.flushing = false
}

func callUpdatedHooks(queue []*Watcher) {
	for i := len(queue) - 1; i >= 0; i-- {
		w := queue[i]
		sc := w.scope
		if sc == nil || sc.render != w || sc.destroyed {
			continue
		}
		for _, fn := range sc.updated {
			fn()
		}
	}
}

// Flush runs every queued watcher now instead of waiting for the next tick.
// Called from inside a running flush it does nothing. A panic from a non-user watcher propagates to the caller after the
// scheduler state is reset.
func (rt *Runtime) Flush() {
	rt.sched.flush()
}

// Pending returns how many watchers are waiting for the next flush.
func (rt *Runtime) Pending() int {
	return len(rt.sched.queue) - rt.sched.index
}

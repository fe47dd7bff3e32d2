package observer

import (
	"fmt"
	"reflect"
	"runtime"

	mapset "github.com/deckarep/golang-set/v2"
)

// Getter is the evaluation function of a watcher. Failures are panics: a
// user watcher reports them, any other watcher lets them propagate.
type Getter func() any

// Callback receives the new and previous value after a watcher re-evaluates
// to a different (or mutable) value.
type Callback func(newValue, oldValue any) error

type State uint8

const (
	StateFresh State = iota
	StateClean
	StateDirty
	StateQueued
	StateEvaluating
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateClean:
		return "clean"
	case StateDirty:
		return "dirty"
	case StateQueued:
		return "queued"
	case StateEvaluating:
		return "evaluating"
	case StateTornDown:
		return "torn-down"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

type WatcherOptions struct {
	// Deep traverses the value after each evaluation so nested mutations
	// re-trigger the watcher.
	Deep bool
	// User marks a watcher registered by application code; its failures are
	// reported instead of propagated.
	User bool
	// Lazy defers evaluation until Evaluate is called on a dirty watcher.
	Lazy bool
	// Sync runs the watcher inside Notify instead of queueing it.
	Sync bool
	// Before runs right before the scheduler calls Run.
	Before func()
	Scope  *Scope
	// Expression labels the watcher in reported errors. Defaults to the
	// getter's function name.
	Expression string
}

// Watcher is one unit of recomputation: it evaluates a getter, records the
// deps read while doing so and re-runs when any of them notifies.
type Watcher struct {
	rt         *Runtime
	id         uint64
	expression string
	getter     Getter
	cb         Callback
	scope      *Scope
	before     func()

	deep bool
	user bool
	lazy bool
	sync bool

	active     bool
	dirty      bool
	evaluating bool
	evaluated  bool

	deps      []*Dep
	newDeps   []*Dep
	depIDs    mapset.Set[uint64]
	newDepIDs mapset.Set[uint64]

	value any
}

// NewWatcher creates a watcher. Unless opts.Lazy is set the getter runs
// immediately to collect the initial value and dependencies.
func (rt *Runtime) NewWatcher(getter Getter, cb Callback, opts *WatcherOptions) *Watcher {
	if opts == nil {
		opts = &WatcherOptions{}
	}
	rt.watcherUID++
	w := &Watcher{
		rt:         rt,
		id:         rt.watcherUID,
		getter:     getter,
		cb:         cb,
		scope:      opts.Scope,
		before:     opts.Before,
		deep:       opts.Deep,
		user:       opts.User,
		lazy:       opts.Lazy,
		sync:       opts.Sync,
		active:     true,
		dirty:      opts.Lazy,
		depIDs:     mapset.NewThreadUnsafeSet[uint64](),
		newDepIDs:  mapset.NewThreadUnsafeSet[uint64](),
		expression: opts.Expression,
	}
	if w.expression == "" {
		w.expression = funcName(getter)
	}
	if w.scope != nil {
		w.scope.watchers = append(w.scope.watchers, w)
	}
	if !w.lazy {
		w.value = w.get()
	}
	return w
}

func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return ""
}

func (w *Watcher) ID() uint64 { return w.id }
func (w *Watcher) Expression() string { return w.expression }
func (w *Watcher) Value() any { return w.value }
func (w *Watcher) Dirty() bool { return w.dirty }
func (w *Watcher) Active() bool { return w.active }
func (w *Watcher) Lazy() bool { return w.lazy }
func (w *Watcher) User() bool { return w.user }
func (w *Watcher) Scope() *Scope { return w.scope }
func (w *Watcher) Runtime() *Runtime { return w.rt }
func (w *Watcher) Deps() []*Dep { return append([]*Dep(nil), w.deps...) }

func (w *Watcher) State() State {
	switch {
	case !w.active:
		return StateTornDown
	case w.evaluating:
		return StateEvaluating
	case w.rt.sched.has[w.id]:
		return StateQueued
	case !w.evaluated:
		return StateFresh
	case w.dirty:
		return StateDirty
	default:
		return StateClean
	}
}

// get evaluates the getter under this watcher and re-collects dependencies.
func (w *Watcher) get() (value any) {
	rt := w.rt
	rt.pushTarget(w)
	w.evaluating = true
	defer func() {
		if w.user {
			if r := recover(); r != nil {
				rt.handleError(toError(r), w, fmt.Sprintf("getter for watcher %q", w.expression))
			}
		}
		// touch every nested property so they are all tracked for deep watching
		if w.deep {
			rt.Traverse(value)
		}
		rt.popTarget()
		w.cleanupDeps()
		w.evaluating = false
		w.evaluated = true
	}()
	value = w.getter()
	return value
}

// AddDep records dep for the evaluation in progress. A dep already
// subscribed during the previous evaluation is not subscribed again.
func (w *Watcher) AddDep(dep *Dep) {
	id := dep.id
	if w.newDepIDs.Contains(id) {
		return
	}
	w.newDepIDs.Add(id)
	w.newDeps = append(w.newDeps, dep)
	if !w.depIDs.Contains(id) {
		dep.AddSub(w)
	}
}

// cleanupDeps unsubscribes from deps that were not read this time and makes
// the rebuilt set current.
func (w *Watcher) cleanupDeps() {
	for i := len(w.deps) - 1; i >= 0; i-- {
		dep := w.deps[i]
		if !w.newDepIDs.Contains(dep.id) {
			dep.RemoveSub(w)
		}
	}
	w.depIDs, w.newDepIDs = w.newDepIDs, w.depIDs
	w.newDepIDs.Clear()

	old := w.deps
	clear(old)
	w.deps = w.newDeps
	w.newDeps = old[:0]
}

// Update is called by a Dep when something the watcher read has changed.
func (w *Watcher) Update() {
	switch {
	case !w.active:
	case w.lazy:
		w.dirty = true
	case w.sync:
		w.Run()
	default:
		w.rt.sched.enqueue(w)
	}
}

// Run re-evaluates the watcher and fires the callback when the value changed.
// Containers and deep watchers always fire since they may have mutated in
// place.
func (w *Watcher) Run() {
	if !w.active {
		return
	}
	value := w.get()
	if identical(value, w.value) && !isObject(value) && !w.deep {
		return
	}
	oldValue := w.value
	w.value = value
	if w.cb == nil {
		return
	}
	w.rt.invoke(func() error {
		return w.cb(value, oldValue)
	}, w, fmt.Sprintf("callback for watcher %q", w.expression))
}

// Evaluate recomputes a lazy watcher's value and clears its dirty flag.
func (w *Watcher) Evaluate() {
	w.value = w.get()
	w.dirty = false
}

// Depend makes the current target depend on everything this watcher
// depends on.
func (w *Watcher) Depend() {
	for i := len(w.deps) - 1; i >= 0; i-- {
		w.deps[i].Depend()
	}
}

// Teardown removes the watcher from every dep's subscriber list.
func (w *Watcher) Teardown() {
	if !w.active {
		return
	}
	// removing from the scope list is skipped while the scope itself is
	// being destroyed
	if w.scope != nil && !w.scope.beingDestroyed {
		w.scope.remove(w)
	}
	for i := len(w.deps) - 1; i >= 0; i-- {
		w.deps[i].RemoveSub(w)
	}
	w.active = false
}

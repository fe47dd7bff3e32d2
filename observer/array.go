package observer

import (
	"fmt"
	"slices"
)

// Array is an observed sequence. Its mutators are the only way to change
// it; each one notifies the container Dep exactly once and converts the
// elements it inserts.
type Array struct {
	rt    *Runtime
	ob    *Observer
	items []any
}

// ReactiveArray wraps s, converting its elements. Like Reactive it always
// returns a wrapper.
func (rt *Runtime) ReactiveArray(s []any) *Array {
	if ob := rt.registry.lookup(sliceKey(s)); ob != nil {
		if a, ok := ob.value.(*Array); ok {
			return a
		}
	}
	return rt.wrapSlice(s)
}

func (rt *Runtime) wrapSlice(s []any) *Array {
	a := &Array{rt: rt, items: slices.Clone(s)}
	a.ob = &Observer{dep: rt.NewDep(), value: a}
	rt.registry.store(sliceKey(s), s, a.ob)
	a.observeItems(a.items)
	return a
}

func (a *Array) observeItems(items []any) {
	for i, item := range items {
		items[i], _ = a.rt.convert(item)
	}
}

func (a *Array) Runtime() *Runtime {
	return a.rt
}

func (a *Array) Observer() *Observer {
	return a.ob
}

func (a *Array) Len() int {
	a.ob.dep.Depend()
	return len(a.items)
}

// At returns the element at i, or nil when i is out of range.
func (a *Array) At(i int) any {
	a.ob.dep.Depend()
	if i < 0 || i >= len(a.items) {
		return nil
	}
	return a.items[i]
}

// Values returns a copy of the elements.
func (a *Array) Values() []any {
	a.ob.dep.Depend()
	return slices.Clone(a.items)
}

func (a *Array) Push(items ...any) int {
	items = slices.Clone(items)
	a.observeItems(items)
	a.items = append(a.items, items...)
	a.ob.dep.Notify()
	return len(a.items)
}

func (a *Array) Pop() any {
	var last any
	if n := len(a.items); n > 0 {
		last = a.items[n-1]
		a.items[n-1] = nil
		a.items = a.items[:n-1]
	}
	a.ob.dep.Notify()
	return last
}

func (a *Array) Shift() any {
	var first any
	if len(a.items) > 0 {
		first = a.items[0]
		a.items = slices.Delete(a.items, 0, 1)
	}
	a.ob.dep.Notify()
	return first
}

func (a *Array) Unshift(items ...any) int {
	items = slices.Clone(items)
	a.observeItems(items)
	a.items = slices.Insert(a.items, 0, items...)
	a.ob.dep.Notify()
	return len(a.items)
}

// Splice removes deleteCount elements at start, inserts items in their place
// and returns the removed elements. A negative start counts from the end;
// start and deleteCount are clamped to the array bounds.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	n := len(a.items)
	switch {
	case start < 0:
		start = max(n+start, 0)
	case start > n:
		start = n
	}
	deleteCount = min(max(deleteCount, 0), n-start)

	removed := slices.Clone(a.items[start : start+deleteCount])
	items = slices.Clone(items)
	a.observeItems(items)
	a.items = slices.Replace(a.items, start, start+deleteCount, items...)
	a.ob.dep.Notify()
	return removed
}

// Sort orders the elements with cmp, keeping equal elements in place. A nil
// cmp leaves the order unchanged but still notifies.
func (a *Array) Sort(cmp func(x, y any) int) {
	if cmp != nil {
		slices.SortStableFunc(a.items, cmp)
	}
	a.ob.dep.Notify()
}

func (a *Array) Reverse() {
	slices.Reverse(a.items)
	a.ob.dep.Notify()
}

// SetAt stores value at i through Splice, growing the array with nil
// elements when i is past the end.
func (a *Array) SetAt(i int, value any) {
	if i < 0 {
		a.rt.warn(fmt.Sprintf("%v: invalid array index %d", ErrInvalidTarget, i))
		return
	}
	if i > len(a.items) {
		a.items = append(a.items, make([]any, i-len(a.items))...)
	}
	a.Splice(i, 1, value)
}

// DeleteAt removes the element at i through Splice.
func (a *Array) DeleteAt(i int) {
	if i < 0 {
		a.rt.warn(fmt.Sprintf("%v: invalid array index %d", ErrInvalidTarget, i))
		return
	}
	a.Splice(i, 1)
}

func (a *Array) String() string {
	return fmt.Sprintf("Array(%d)", len(a.items))
}

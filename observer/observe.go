package observer

import (
	"reflect"
)

// Observer is attached to every observed container. Its Dep is notified for
// container-level changes: keys added or removed, array mutations.
type Observer struct {
	dep       *Dep
	value     any
	rootCount int
}

func (o *Observer) Dep() *Dep {
	return o.dep
}

// Value returns the *Object or *Array this observer belongs to.
func (o *Observer) Value() any {
	return o.value
}

// AsRoot marks the container as the root data of an owner. Root containers
// refuse new keys added through Set.
func (o *Observer) AsRoot() {
	o.rootCount++
}

func (o *Observer) IsRoot() bool {
	return o.rootCount > 0
}

type containerKey struct {
	kind reflect.Kind
	ptr  uintptr
	len  int
}

// registry maps raw container identity to the observer created for it, so
// shared references share one wrapper and self-referencing data terminates.
// Each entry holds the raw container so its address is not reused while the
// runtime lives.
type registry struct {
	entries map[containerKey]registryEntry
}

type registryEntry struct {
	raw any
	ob  *Observer
}

func newRegistry() *registry {
	return &registry{entries: map[containerKey]registryEntry{}}
}

func (r *registry) lookup(key containerKey) *Observer {
	if key.ptr == 0 {
		return nil
	}
	return r.entries[key].ob
}

func (r *registry) store(key containerKey, raw any, ob *Observer) {
	if key.ptr == 0 {
		return
	}
	r.entries[key] = registryEntry{raw: raw, ob: ob}
}

func mapKey(m map[string]any) containerKey {
	return containerKey{kind: reflect.Map, ptr: reflect.ValueOf(m).Pointer()}
}

func sliceKey(s []any) containerKey {
	// zero-length slices may all point at the same zero-size allocation
	if len(s) == 0 {
		return containerKey{}
	}
	return containerKey{kind: reflect.Slice, ptr: reflect.ValueOf(s).Pointer(), len: len(s)}
}

// Observe returns the observer of v, wrapping raw maps and slices on first
// sight. Primitives, frozen objects and (while observing is disabled)
// unwrapped containers return nil.
func (rt *Runtime) Observe(v any) *Observer {
	_, ob := rt.convert(v)
	return ob
}

// convert returns the value to store in place of v and its observer.
func (rt *Runtime) convert(v any) (any, *Observer) {
	switch val := v.(type) {
	case *Object:
		if val == nil || val.frozen {
			return v, nil
		}
		return val, val.ob
	case *Array:
		if val == nil {
			return v, nil
		}
		return val, val.ob
	case map[string]any:
		if ob := rt.registry.lookup(mapKey(val)); ob != nil {
			return ob.value, ob
		}
		if !rt.observing {
			return v, nil
		}
		o := rt.wrapMap(val)
		return o, o.ob
	case []any:
		if ob := rt.registry.lookup(sliceKey(val)); ob != nil {
			return ob.value, ob
		}
		if !rt.observing {
			return v, nil
		}
		a := rt.wrapSlice(val)
		return a, a.ob
	}
	return v, nil
}

func observerOf(v any) *Observer {
	switch val := v.(type) {
	case *Object:
		if val != nil && !val.frozen {
			return val.ob
		}
	case *Array:
		if val != nil {
			return val.ob
		}
	}
	return nil
}

// dependArray registers element observers since array elements are not
// read through property getters.
func dependArray(a *Array) {
	for _, e := range a.items {
		if ob := observerOf(e); ob != nil {
			ob.dep.Depend()
		}
		if nested, ok := e.(*Array); ok {
			dependArray(nested)
		}
	}
}

// ToRaw copies v back into plain maps and slices without tracking any reads.
func (rt *Runtime) ToRaw(v any) any {
	var out any
	rt.Untracked(func() {
		out = toRaw(v, map[any]any{})
	})
	return out
}

func toRaw(v any, seen map[any]any) any {
	switch val := v.(type) {
	case *Object:
		if raw, ok := seen[val]; ok {
			return raw
		}
		m := make(map[string]any, len(val.keys))
		seen[val] = m
		for _, k := range val.keys {
			m[k] = toRaw(val.props[k].read(), seen)
		}
		return m
	case *Array:
		if raw, ok := seen[val]; ok {
			return raw
		}
		s := make([]any, len(val.items))
		seen[val] = s
		for i, item := range val.items {
			s[i] = toRaw(item, seen)
		}
		return s
	}
	return v
}

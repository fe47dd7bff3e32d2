package observer

import (
	"math"
	"reflect"

	mapset "github.com/deckarep/golang-set/v2"
)

// Traverse reads every nested property and element of v so the active
// watcher depends on all of them. Containers are visited once, keyed by
// their Dep id; frozen objects are skipped.
func (rt *Runtime) Traverse(v any) {
	rt.traverse(v, mapset.NewThreadUnsafeSet[uint64]())
}

func (rt *Runtime) traverse(v any, seen mapset.Set[uint64]) {
	switch val := v.(type) {
	case *Object:
		if val == nil || val.frozen || !seen.Add(val.ob.dep.id) {
			return
		}
		val.ob.dep.Depend()
		for _, k := range val.keys {
			rt.traverse(val.props[k].read(), seen)
		}
	case *Array:
		if val == nil || !seen.Add(val.ob.dep.id) {
			return
		}
		val.ob.dep.Depend()
		for _, item := range val.items {
			rt.traverse(item, seen)
		}
	}
}

// identical is strict identity: containers compare by reference, NaN equals
// NaN and values of different types never match.
func identical(a, b any) bool {
	if isNaN(a) && isNaN(b) {
		return true
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return va.IsValid() == vb.IsValid()
	}
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}
	return va.Comparable() && vb.Comparable() && a == b
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}

// isObject reports whether v can change without its identity changing.
func isObject(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
		return true
	}
	return false
}

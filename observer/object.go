package observer

import (
	"fmt"
	"maps"
	"slices"
)

// Object is an observed string-keyed container. Every key is a reactive
// property with its own Dep; adding or removing keys notifies the
// container's Dep.
type Object struct {
	rt     *Runtime
	ob     *Observer
	keys   []string
	props  map[string]*property
	frozen bool
}

// Reactive wraps m, converting nested maps and slices as well. It always
// returns an *Object, even while observing is disabled; only nested values
// follow the observing switch then.
func (rt *Runtime) Reactive(m map[string]any) *Object {
	if ob := rt.registry.lookup(mapKey(m)); ob != nil {
		if o, ok := ob.value.(*Object); ok {
			return o
		}
	}
	return rt.wrapMap(m)
}

func (rt *Runtime) newObject() *Object {
	o := &Object{rt: rt, props: map[string]*property{}}
	o.ob = &Observer{dep: rt.NewDep(), value: o}
	return o
}

func (rt *Runtime) wrapMap(m map[string]any) *Object {
	o := rt.newObject()
	rt.registry.store(mapKey(m), m, o.ob)
	for _, k := range slices.Sorted(maps.Keys(m)) {
		DefineReactive(o, k, m[k])
	}
	return o
}

func (o *Object) Runtime() *Runtime {
	return o.rt
}

func (o *Object) Observer() *Observer {
	if o.frozen {
		return nil
	}
	return o.ob
}

// Get returns the value at key and records the read. A missing key records
// the container Dep so that adding it later re-triggers the reader.
func (o *Object) Get(key string) any {
	p, ok := o.props[key]
	if !ok {
		if !o.frozen {
			o.ob.dep.Depend()
		}
		return nil
	}
	return p.read()
}

// Set assigns key, adding it as a reactive property when absent.
func (o *Object) Set(key string, value any) {
	if o.frozen {
		o.rt.warn(fmt.Sprintf("%v: cannot assign %q on a frozen object", ErrReadonly, key))
		return
	}
	if p, ok := o.props[key]; ok {
		p.write(value)
		return
	}
	if o.ob.IsRoot() {
		o.rt.warn(fmt.Sprintf("Avoid adding reactive property %q to a root object at runtime, declare it upfront", key))
		return
	}
	DefineReactive(o, key, value)
	o.ob.dep.Notify()
}

// Delete removes key and notifies both its property Dep and the container
// Dep when it existed.
func (o *Object) Delete(key string) {
	if o.frozen {
		o.rt.warn(fmt.Sprintf("%v: cannot delete %q on a frozen object", ErrReadonly, key))
		return
	}
	if o.ob.IsRoot() {
		o.rt.warn(fmt.Sprintf("Avoid deleting property %q on a root object, set it to nil instead", key))
		return
	}
	p, ok := o.props[key]
	if !ok {
		return
	}
	delete(o.props, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
	// readers of the key itself only hold its property Dep
	notifyDeps(o.rt, p.dep, o.ob.dep)
}

func (o *Object) Has(key string) bool {
	o.dependContainer()
	_, ok := o.props[key]
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	o.dependContainer()
	return slices.Clone(o.keys)
}

func (o *Object) Len() int {
	o.dependContainer()
	return len(o.keys)
}

// Freeze makes the object read-only. A frozen object is skipped by Observe
// and Traverse; Set and Delete warn and do nothing.
func (o *Object) Freeze() {
	o.frozen = true
}

func (o *Object) Frozen() bool {
	return o.frozen
}

func (o *Object) dependContainer() {
	if !o.frozen {
		o.ob.dep.Depend()
	}
}

func (o *Object) String() string {
	return fmt.Sprintf("Object%v", o.keys)
}

package observer

import "fmt"

type property struct {
	obj   *Object
	key   string
	dep   *Dep
	value any
	child *Observer

	getter       func() any
	setter       func(any)
	customSetter func(any)
	shallow      bool

	computed    *Computed
	computedSet func(any)
}

type PropertyOption func(*property)

// WithAccessor backs the property with get and set instead of a stored
// value. A nil set makes the property read-only: assignments are ignored.
func WithAccessor(get func() any, set func(any)) PropertyOption {
	return func(p *property) {
		p.getter = get
		p.setter = set
	}
}

// WithCustomSetter calls fn with every new value before it is stored.
func WithCustomSetter(fn func(any)) PropertyOption {
	return func(p *property) {
		p.customSetter = fn
	}
}

// Shallow stores assigned values as they are, without converting them.
func Shallow() PropertyOption {
	return func(p *property) {
		p.shallow = true
	}
}

// DefineReactive installs key on obj as a reactive property holding val.
// Redefining an existing key replaces its Dep.
func DefineReactive(obj *Object, key string, val any, opts ...PropertyOption) {
	p := &property{obj: obj, key: key, dep: obj.rt.NewDep()}
	for _, opt := range opts {
		opt(p)
	}
	if p.shallow {
		p.value = val
	} else {
		p.value, p.child = obj.rt.convert(val)
	}
	obj.install(key, p)
}

// DefineComputed installs key on obj as a property reading through a lazy
// computed. Assigning the key calls set, or warns when set is nil.
func DefineComputed(obj *Object, key string, getter Getter, set func(any)) *Computed {
	c := obj.rt.Computed(getter, &ComputedOptions{Expression: key})
	obj.install(key, &property{obj: obj, key: key, dep: obj.rt.NewDep(), computed: c, computedSet: set})
	return c
}

func (o *Object) install(key string, p *property) {
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = p
}

func (p *property) read() any {
	if p.computed != nil {
		return p.computed.Get()
	}
	value := p.value
	if p.getter != nil {
		value = p.getter()
	}
	if p.obj.rt.target != nil {
		p.dep.Depend()
		if p.child != nil {
			p.child.dep.Depend()
			if arr, ok := value.(*Array); ok {
				dependArray(arr)
			}
		}
	}
	return value
}

func (p *property) write(newVal any) {
	rt := p.obj.rt
	if p.computed != nil {
		if p.computedSet == nil {
			rt.warn(fmt.Sprintf("Computed property %q was assigned to but it has no setter", p.key))
			return
		}
		p.computedSet(newVal)
		return
	}

	value := p.value
	if p.getter != nil {
		value = p.getter()
	}
	stored, child := newVal, (*Observer)(nil)
	if !p.shallow {
		stored, child = rt.convert(newVal)
	}
	if identical(stored, value) {
		return
	}
	if p.customSetter != nil {
		p.customSetter(newVal)
	}
	if p.getter != nil && p.setter == nil {
		return
	}
	if p.setter != nil {
		p.setter(stored)
	} else {
		p.value = stored
	}
	p.child = child
	p.dep.Notify()
}

// DepOf returns the Dep backing key, or nil when key is absent or computed.
func (o *Object) DepOf(key string) *Dep {
	p, ok := o.props[key]
	if !ok || p.computed != nil {
		return nil
	}
	return p.dep
}

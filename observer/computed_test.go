package observer_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/delaneyj/watchparty/observer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputedIsLazy(t *testing.T) {
	rt, _ := newRuntime(t)
	obj := rt.Reactive(map[string]any{"a": 1, "b": 2})

	evaluations := 0
	sum := rt.Computed(func() any {
		evaluations++
		return obj.Get("a").(int) + obj.Get("b").(int)
	}, nil)
	assert.Equal(t, 0, evaluations)

	assert.Equal(t, 3, sum.Get())
	assert.Equal(t, 1, evaluations)

	obj.Set("a", 10)
	assert.Equal(t, 1, evaluations)
	assert.True(t, sum.Watcher().Dirty())
	assert.Equal(t, 0, rt.Pending())

	assert.Equal(t, 12, sum.Get())
	assert.Equal(t, 2, evaluations)
	assert.Equal(t, 12, sum.Get())
	assert.Equal(t, 2, evaluations)
}

func TestComputedDiamond(t *testing.T) {
	rt, _ := newRuntime(t)
	obj := rt.Reactive(map[string]any{"a": "a"})

	//     A
	//   /   \
	//  B     C
	//   \   /
	//     D
	b := rt.Computed(func() any { return obj.Get("a") }, nil)
	c := rt.Computed(func() any { return obj.Get("a") }, nil)

	callCount := 0
	d := rt.Computed(func() any {
		callCount++
		return fmt.Sprintf("%s %s", b.Get(), c.Get())
	}, nil)

	renders := 0
	var rendered any
	rt.Render(rt.NewScope("diamond"), func() {
		renders++
		rendered = d.Get()
	}, nil)
	assert.Equal(t, "a a", rendered)
	assert.Equal(t, 1, callCount)

	obj.Set("a", "aa")
	rt.Tick()
	assert.Equal(t, "aa aa", rendered)
	assert.Equal(t, 2, callCount)
	assert.Equal(t, 2, renders)
}

// a watcher reading a computed depends on everything the computed read
func TestComputedTransitiveDependency(t *testing.T) {
	rt, _ := newRuntime(t)
	obj := rt.Reactive(map[string]any{"x": 1})
	double := rt.Computed(func() any { return obj.Get("x").(int) * 2 }, nil)

	var got []any
	w := rt.NewWatcher(func() any { return double.Get() }, func(newValue, _ any) error {
		got = append(got, newValue)
		return nil
	}, nil)
	assert.Contains(t, obj.DepOf("x").Subs(), w)

	obj.Set("x", 4)
	rt.Tick()
	assert.Equal(t, []any{8}, got)
}

func TestComputedSelfReadFailsFast(t *testing.T) {
	rt, r := newRuntime(t)
	obj := rt.Reactive(map[string]any{"n": 1})

	var self *observer.Computed
	self = rt.Computed(func() any {
		if obj.Get("n").(int) > 1 {
			return self.Get()
		}
		return 1
	}, &observer.ComputedOptions{Expression: "self"})
	assert.Equal(t, 1, self.Get())

	obj.Set("n", 2)
	assert.Panics(t, func() { self.Get() })

	var panicked error
	func() {
		defer func() { panicked, _ = recover().(error) }()
		self.Get()
	}()
	assert.True(t, errors.Is(panicked, observer.ErrCircularEvaluation))
	assert.True(t, self.Watcher().Dirty())
	assert.Nil(t, rt.Target())

	// a user watcher reading it reports instead of panicking
	rt.Watch(func() any { return self.Get() }, nil, nil)
	require.Len(t, r.errors, 1)
	assert.ErrorIs(t, r.errors[0], observer.ErrCircularEvaluation)
}

func TestComputedTeardown(t *testing.T) {
	rt, _ := newRuntime(t)
	obj := rt.Reactive(map[string]any{"a": 1})
	c := rt.Computed(func() any { return obj.Get("a") }, nil)
	c.Get()

	c.Teardown()
	assert.Empty(t, obj.DepOf("a").Subs())
	obj.Set("a", 2)
	assert.False(t, c.Watcher().Dirty())
	assert.Equal(t, 1, c.Get())
}

func TestDefineComputed(t *testing.T) {
	rt, r := newRuntime(t)
	obj := rt.Reactive(map[string]any{"first": "Ada", "last": "Lovelace"})

	observer.DefineComputed(obj, "full", func() any {
		return fmt.Sprintf("%s %s", obj.Get("first"), obj.Get("last"))
	}, nil)

	var got []any
	rt.Watch(func() any { return obj.Get("full") }, func(newValue, _ any) error {
		got = append(got, newValue)
		return nil
	}, nil)

	obj.Set("first", "Grace")
	rt.Tick()
	assert.Equal(t, []any{"Grace Lovelace"}, got)

	obj.Set("full", "nope")
	require.Len(t, r.warnings, 1)
	assert.Contains(t, r.warnings[0], `Computed property "full" was assigned to but it has no setter`)
}

func TestDefineComputedWithSetter(t *testing.T) {
	rt, _ := newRuntime(t)
	obj := rt.Reactive(map[string]any{"celsius": 0.0})

	observer.DefineComputed(obj, "fahrenheit", func() any {
		return obj.Get("celsius").(float64)*9/5 + 32
	}, func(v any) {
		obj.Set("celsius", (v.(float64)-32)*5/9)
	})

	assert.Equal(t, 32.0, obj.Get("fahrenheit"))
	obj.Set("fahrenheit", 212.0)
	assert.Equal(t, 100.0, obj.Get("celsius"))
	assert.Equal(t, 212.0, obj.Get("fahrenheit"))
}

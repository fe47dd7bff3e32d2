package observer_test

import (
	"testing"

	"github.com/delaneyj/watchparty/observer"
	"github.com/stretchr/testify/assert"
)

func TestComputedGraphs(t *testing.T) {
	num := func(c *observer.Computed) int {
		return c.Get().(int)
	}

	/*
	   a  b
	   | /
	   c
	*/
	t.Run("two sources", func(t *testing.T) {
		rt, _ := newRuntime(t)
		src := rt.Reactive(map[string]any{"a": 7, "b": 1})
		callCount := 0

		c := rt.Computed(func() any {
			callCount++
			return src.Get("a").(int) * src.Get("b").(int)
		}, nil)

		assert.Equal(t, 7, c.Get())

		src.Set("a", 2)
		assert.Equal(t, 2, c.Get())

		src.Set("b", 3)
		assert.Equal(t, 6, c.Get())

		assert.Equal(t, 3, callCount)
		c.Get()
		assert.Equal(t, 3, callCount)
	})

	/*
	   a  b
	   | /
	   c
	   |
	   d
	*/
	t.Run("dependent computed", func(t *testing.T) {
		rt, _ := newRuntime(t)
		src := rt.Reactive(map[string]any{"a": 7, "b": 1})

		callCount1 := 0
		c := rt.Computed(func() any {
			callCount1++
			return src.Get("a").(int) * src.Get("b").(int)
		}, nil)

		callCount2 := 0
		d := rt.Computed(func() any {
			callCount2++
			return num(c) + 1
		}, nil)

		assert.Equal(t, 8, d.Get())
		assert.Equal(t, 1, callCount1)
		assert.Equal(t, 1, callCount2)
		src.Set("a", 3)
		assert.Equal(t, 4, d.Get())
		assert.Equal(t, 2, callCount1)
		assert.Equal(t, 2, callCount2)
	})

	/*
	   a
	   |
	   c
	*/
	t.Run("identical write", func(t *testing.T) {
		rt, _ := newRuntime(t)
		src := rt.Reactive(map[string]any{"a": 7})
		callCount := 0
		c := rt.Computed(func() any {
			callCount++
			return src.Get("a").(int) + 10
		}, nil)

		c.Get()
		c.Get()
		assert.Equal(t, 1, callCount)
		src.Set("a", 7)
		c.Get()
		assert.Equal(t, 1, callCount)
	})

	/*
	   a     b
	   |     |
	   cA   cB
	   |   / (dynamically depends on cB)
	   cAB
	*/
	t.Run("dynamic computed", func(t *testing.T) {
		rt, _ := newRuntime(t)
		src := rt.Reactive(map[string]any{"a": 1, "b": 2})
		var callCountA, callCountB, callCountAB int

		cA := rt.Computed(func() any {
			callCountA++
			return src.Get("a")
		}, nil)
		cB := rt.Computed(func() any {
			callCountB++
			return src.Get("b")
		}, nil)
		cAB := rt.Computed(func() any {
			callCountAB++
			if av := num(cA); av != 0 {
				return av
			}
			return cB.Get()
		}, nil)

		assert.Equal(t, 1, cAB.Get())
		src.Set("a", 2)
		src.Set("b", 3)
		assert.Equal(t, 2, cAB.Get())

		assert.Equal(t, 2, callCountA)
		assert.Equal(t, 2, callCountAB)
		assert.Equal(t, 0, callCountB)
		src.Set("a", 0)
		assert.Equal(t, 3, cAB.Get())
		assert.Equal(t, 3, callCountA)
		assert.Equal(t, 3, callCountAB)
		assert.Equal(t, 1, callCountB)
		src.Set("b", 4)
		assert.Equal(t, 4, cAB.Get())
		assert.Equal(t, 3, callCountA)
		assert.Equal(t, 4, callCountAB)
		assert.Equal(t, 2, callCountB)
	})

	/*
	   a
	   |
	   b (a > 0)
	   |
	   c
	*/
	t.Run("no cutoff on equal intermediate", func(t *testing.T) {
		rt, _ := newRuntime(t)
		src := rt.Reactive(map[string]any{"a": 0})
		b := rt.Computed(func() any {
			return src.Get("a").(int) > 0
		}, nil)
		callCount := 0
		c := rt.Computed(func() any {
			callCount++
			if b.Get().(bool) {
				return 1
			}
			return 0
		}, nil)

		assert.Equal(t, 0, c.Get())
		src.Set("a", 1)
		assert.Equal(t, 1, c.Get())
		assert.Equal(t, 2, callCount)

		// c depends on a directly, so it re-evaluates although b is unchanged
		src.Set("a", 2)
		assert.Equal(t, 1, c.Get())
		assert.Equal(t, 3, callCount)
	})

	/*
	   s
	   |
	   a
	   | \
	   b  c
	    \ |
	      d
	*/
	t.Run("diamond computeds", func(t *testing.T) {
		rt, _ := newRuntime(t)
		src := rt.Reactive(map[string]any{"s": 1})
		a := rt.Computed(func() any { return src.Get("s") }, nil)
		b := rt.Computed(func() any { return num(a) * 2 }, nil)
		c := rt.Computed(func() any { return num(a) * 3 }, nil)
		callCount := 0
		d := rt.Computed(func() any {
			callCount++
			return num(b) + num(c)
		}, nil)

		assert.Equal(t, 5, d.Get())
		assert.Equal(t, 1, callCount)
		src.Set("s", 2)
		assert.Equal(t, 10, d.Get())
		assert.Equal(t, 2, callCount)
		src.Set("s", 3)
		assert.Equal(t, 15, d.Get())
		assert.Equal(t, 3, callCount)
	})

	/*
	   s
	   |
	   l  a (sets s)
	*/
	t.Run("set inside computed", func(t *testing.T) {
		rt, _ := newRuntime(t)
		src := rt.Reactive(map[string]any{"s": 1})
		a := rt.Computed(func() any {
			src.Set("s", 2)
			return true
		}, nil)
		l := rt.Computed(func() any {
			return src.Get("s").(int) + 100
		}, nil)

		a.Get()
		assert.Equal(t, 102, l.Get())
	})

	t.Run("consistent after computed panic", func(t *testing.T) {
		rt, _ := newRuntime(t)
		src := rt.Reactive(map[string]any{"a": 0})
		b := rt.Computed(func() any {
			panic("fail")
		}, nil)
		c := rt.Computed(func() any {
			return src.Get("a")
		}, nil)

		assert.Panics(t, func() {
			b.Get()
		})
		assert.Nil(t, rt.Target())

		src.Set("a", 1)
		assert.Equal(t, 1, c.Get())
	})
}

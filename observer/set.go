package observer

import "fmt"

// Set adds or assigns key on an observed container. Objects take string
// keys, arrays take int indexes. Any other target warns and is ignored.
func (rt *Runtime) Set(target any, key any, value any) any {
	switch t := target.(type) {
	case *Object:
		if k, ok := key.(string); ok && t != nil {
			t.Set(k, value)
			return value
		}
	case *Array:
		if i, ok := key.(int); ok && t != nil {
			t.SetAt(i, value)
			return value
		}
	}
	rt.warn(fmt.Sprintf("%v: cannot set reactive property %v on %T", ErrInvalidTarget, key, target))
	return value
}

// Delete removes key from an observed container, notifying only when
// something was removed from an object.
func (rt *Runtime) Delete(target any, key any) {
	switch t := target.(type) {
	case *Object:
		if k, ok := key.(string); ok && t != nil {
			t.Delete(k)
			return
		}
	case *Array:
		if i, ok := key.(int); ok && t != nil {
			t.DeleteAt(i)
			return
		}
	}
	rt.warn(fmt.Sprintf("%v: cannot delete reactive property %v on %T", ErrInvalidTarget, key, target))
}

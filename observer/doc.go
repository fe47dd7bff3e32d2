// Package observer tracks which computations read which data and re-runs
// them, batched and in creation order, when that data changes.
//
// Data is wrapped into *Object and *Array values whose reads are recorded
// against the Watcher currently evaluating. Writes notify the recorded
// watchers: lazy ones (Computed) are marked dirty, the rest are queued and
// flushed on the next tick of their Runtime.
//
//	rt := observer.New()
//	state := rt.Reactive(map[string]any{"count": 1})
//	double := rt.Computed(func() any { return state.Get("count").(int) * 2 }, nil)
//	rt.Watch(double.Get, func(newValue, oldValue any) error {
//		fmt.Println(oldValue, "->", newValue)
//		return nil
//	}, nil)
//	state.Set("count", 2)
//	rt.Tick() // prints 2 -> 4
package observer

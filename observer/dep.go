package observer

import (
	"cmp"
	"slices"
)

// Dep is the subscriber list of one observed property or container.
type Dep struct {
	rt   *Runtime
	id   uint64
	subs []*Watcher
}

// NewDep creates a Dep for collaborators that need a hand-rolled
// observable slot.
func (rt *Runtime) NewDep() *Dep {
	rt.depUID++
	return &Dep{rt: rt, id: rt.depUID}
}

func (d *Dep) ID() uint64 {
	return d.id
}

// Subs returns a copy of the subscribers in subscription order.
func (d *Dep) Subs() []*Watcher {
	return slices.Clone(d.subs)
}

func (d *Dep) AddSub(w *Watcher) {
	if slices.Contains(d.subs, w) {
		return
	}
	d.subs = append(d.subs, w)
}

func (d *Dep) RemoveSub(w *Watcher) {
	if i := slices.Index(d.subs, w); i >= 0 {
		d.subs = slices.Delete(d.subs, i, i+1)
	}
}

// Depend registers d with the watcher currently collecting dependencies.
func (d *Dep) Depend() {
	if t := d.rt.target; t != nil {
		t.AddDep(d)
	}
}

// Notify calls Update on a snapshot of the subscribers.
func (d *Dep) Notify() {
	notifyDeps(d.rt, d)
}

// notifyDeps updates the subscribers of every dep once, even when a watcher
// is subscribed to more than one of them.
func notifyDeps(rt *Runtime, deps ...*Dep) {
	var subs []*Watcher
	for _, d := range deps {
		for _, sub := range d.subs {
			if !slices.Contains(subs, sub) {
				subs = append(subs, sub)
			}
		}
	}
	if !rt.cfg.Async {
		// without the scheduler sorting for us, keep creation order
		slices.SortFunc(subs, func(a, b *Watcher) int {
			return cmp.Compare(a.id, b.id)
		})
	}
	for _, sub := range subs {
		sub.Update()
	}
}

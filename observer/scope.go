package observer

import "slices"

// Scope owns a group of watchers that share a lifetime, typically one
// rendered unit together with its computeds and watches.
type Scope struct {
	rt       *Runtime
	name     string
	watchers []*Watcher
	render   *Watcher
	updated  []func()

	beingDestroyed bool
	destroyed      bool
}

func (rt *Runtime) NewScope(name string) *Scope {
	return &Scope{rt: rt, name: name}
}

func (s *Scope) Name() string {
	return s.name
}

// Watchers returns the live watchers owned by the scope in creation order.
func (s *Scope) Watchers() []*Watcher {
	return slices.Clone(s.watchers)
}

// RenderWatcher returns the watcher created by Render for this scope, if any.
func (s *Scope) RenderWatcher() *Watcher {
	return s.render
}

// OnUpdated registers fn to run after any flush in which this scope's render
// watcher ran.
func (s *Scope) OnUpdated(fn func()) {
	s.updated = append(s.updated, fn)
}

// Destroy tears down every owned watcher, newest first.
func (s *Scope) Destroy() {
	if s.beingDestroyed {
		return
	}
	s.beingDestroyed = true
	for i := len(s.watchers) - 1; i >= 0; i-- {
		s.watchers[i].Teardown()
	}
	s.watchers = nil
	s.destroyed = true
	s.rt.log.WithField("scope", s.name).Debug("scope destroyed")
}

func (s *Scope) Destroyed() bool {
	return s.destroyed
}

func (s *Scope) remove(w *Watcher) {
	if i := slices.Index(s.watchers, w); i >= 0 {
		s.watchers = slices.Delete(s.watchers, i, i+1)
	}
}

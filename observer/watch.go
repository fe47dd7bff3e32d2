package observer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type WatchOptions struct {
	Deep bool
	// Immediate calls the callback with the initial value right away.
	Immediate bool
	Sync      bool
	Scope     *Scope
	// Expression names the watcher in reported errors.
	Expression string
}

// Watch registers a user watcher. Failures in getter or cb are reported and
// never propagate. The returned function tears the watcher down.
func (rt *Runtime) Watch(getter Getter, cb Callback, opts *WatchOptions) (unwatch func()) {
	if opts == nil {
		opts = &WatchOptions{}
	}
	w := rt.NewWatcher(getter, cb, &WatcherOptions{
		Deep:       opts.Deep,
		Sync:       opts.Sync,
		User:       true,
		Scope:      opts.Scope,
		Expression: opts.Expression,
	})
	if opts.Immediate && cb != nil {
		rt.Untracked(func() {
			rt.invoke(func() error {
				return cb(w.value, nil)
			}, w, fmt.Sprintf("callback for immediate watcher %q", w.expression))
		})
	}
	return w.Teardown
}

var unsafePathChars = regexp.MustCompile(`[^\p{L}\p{N}_.$]`)

// WatchPath watches a dot-delimited path below root, such as "a.b.c".
// Numeric segments index arrays. An unparsable path warns and watches nil.
func (rt *Runtime) WatchPath(root *Object, path string, cb Callback, opts *WatchOptions) (unwatch func()) {
	o := WatchOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Expression == "" {
		o.Expression = path
	}

	segments, ok := rt.parsePath(path)
	if !ok {
		rt.warn(fmt.Sprintf("Failed watching path: %q (%v). Only simple dot-delimited paths are accepted, use Watch with a function instead", path, ErrInvalidPath))
		return rt.Watch(func() any { return nil }, cb, &o)
	}
	return rt.Watch(func() any {
		var cur any = root
		for _, seg := range segments {
			if cur == nil {
				return nil
			}
			cur = lookup(cur, seg)
		}
		return cur
	}, cb, &o)
}

func (rt *Runtime) parsePath(path string) ([]string, bool) {
	if unsafePathChars.MatchString(path) {
		return nil, false
	}
	h := xxhash.Sum64String(path)
	if segments, ok := rt.paths[h]; ok && strings.Join(segments, ".") == path {
		return segments, true
	}
	segments := strings.Split(path, ".")
	rt.paths[h] = segments
	return segments, true
}

func lookup(v any, seg string) any {
	switch c := v.(type) {
	case *Object:
		return c.Get(seg)
	case *Array:
		i, err := strconv.Atoi(seg)
		if err != nil {
			c.ob.dep.Depend()
			return nil
		}
		return c.At(i)
	case map[string]any:
		return c[seg]
	case []any:
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 && i < len(c) {
			return c[i]
		}
	}
	return nil
}

// Render creates the render watcher of scope. fn is re-run whenever
// anything it read changes, after before is called. A nil scope gets an
// anonymous one.
func (rt *Runtime) Render(scope *Scope, fn func(), before func()) *Watcher {
	if scope == nil {
		scope = rt.NewScope("")
	}
	w := rt.NewWatcher(func() any {
		fn()
		return nil
	}, nil, &WatcherOptions{
		Before:     before,
		Scope:      scope,
		Expression: "render " + scope.name,
	})
	scope.render = w
	return w
}

package observer

import (
	"errors"
	"fmt"
)

var (
	// ErrInfiniteUpdate is reported when a watcher keeps re-queuing itself
	// within one flush.
	ErrInfiniteUpdate = errors.New("observer: infinite update loop")
	// ErrCircularEvaluation is raised when a lazy watcher's value is read
	// while that same watcher is still evaluating.
	ErrCircularEvaluation = errors.New("observer: circular evaluation")
	ErrInvalidPath        = errors.New("observer: invalid watch path")
	ErrInvalidTarget      = errors.New("observer: invalid reactive target")
	ErrReadonly           = errors.New("observer: readonly value")
)

// WatcherError wraps a failure caught at a user-code boundary together with
// where it happened.
type WatcherError struct {
	Info       string
	Expression string
	Scope      string
	Err        error
}

func (e *WatcherError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("observer: error in %s (scope %q): %v", e.Info, e.Scope, e.Err)
	}
	return fmt.Sprintf("observer: error in %s: %v", e.Info, e.Err)
}

func (e *WatcherError) Unwrap() error {
	return e.Err
}

func toError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

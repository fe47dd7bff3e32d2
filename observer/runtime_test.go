package observer_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/delaneyj/watchparty/observer"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReportingLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rt := observer.New(observer.WithLogger(logger.WithField("component", "observer")))
	obj := rt.Reactive(map[string]any{"a": 1})

	rt.Set(nil, "a", 1)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	rt.Watch(func() any { return obj.Get("a") }, func(_, _ any) error {
		return errors.New("bad")
	}, nil)
	obj.Set("a", 2)
	rt.Tick()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "error in watcher", entry.Message)
	assert.EqualError(t, entry.Data[logrus.ErrorKey].(error), "bad")
}

func TestIndependentRuntimes(t *testing.T) {
	rt1, _ := newRuntime(t)
	rt2, _ := newRuntime(t)
	a := rt1.Reactive(map[string]any{"v": 1})
	b := rt2.Reactive(map[string]any{"v": 1})

	runs := 0
	rt1.Watch(func() any {
		runs++
		return a.Get("v")
	}, nil, nil)

	b.Set("v", 2)
	assert.Equal(t, 0, rt1.Pending())
	assert.Equal(t, 0, rt2.Pending())
	a.Set("v", 2)
	assert.Equal(t, 1, rt1.Pending())
	assert.Equal(t, 1, rt1.Tick())
	assert.Equal(t, 2, runs)
}

func TestForGoroutine(t *testing.T) {
	rt := observer.ForGoroutine()
	defer observer.Release()
	assert.Same(t, rt, observer.ForGoroutine())

	var other *observer.Runtime
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer observer.Release()
		other = observer.ForGoroutine()
	}()
	wg.Wait()
	assert.NotSame(t, rt, other)

	observer.Release()
	assert.NotSame(t, rt, observer.ForGoroutine())
}

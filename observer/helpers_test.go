package observer_test

import (
	"testing"

	"github.com/delaneyj/watchparty/observer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type reports struct {
	errors   []error
	warnings []string
}

// newRuntime returns a runtime whose reported errors and warnings are
// collected instead of logged.
func newRuntime(t *testing.T, opts ...observer.Option) (*observer.Runtime, *reports) {
	t.Helper()
	r := &reports{}
	opts = append([]observer.Option{
		observer.WithErrorHandler(func(err error) {
			r.errors = append(r.errors, err)
		}),
		observer.WithWarnHandler(func(msg string) {
			r.warnings = append(r.warnings, msg)
		}),
	}, opts...)
	return observer.New(opts...), r
}

func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

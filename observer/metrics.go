package observer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "observer"

type metrics struct {
	flushes         prometheus.Counter
	runs            *prometheus.CounterVec
	queueSize       prometheus.Histogram
	infiniteUpdates prometheus.Counter
	errors          prometheus.Counter
}

// newMetrics builds the runtime collectors. A nil registerer leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		flushes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "flushes_total",
			Help:      "Total number of scheduler flushes",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "watcher_runs_total",
			Help:      "Total number of watcher runs performed by the scheduler",
		}, []string{"kind"}),
		queueSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "flush_queue_size",
			Help:      "Number of watchers processed per flush",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
		}),
		infiniteUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "infinite_updates_total",
			Help:      "Total number of watchers suppressed for re-queuing too often within one flush",
		}),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "errors_total",
			Help:      "Total number of errors reported from user code",
		}),
	}
}

func runKind(w *Watcher) string {
	switch {
	case w.scope != nil && w.scope.render == w:
		return "render"
	case w.user:
		return "user"
	case w.sync:
		return "sync"
	default:
		return "internal"
	}
}

package observer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/delaneyj/watchparty/observer"

// Runtime is one independent reactive graph. It holds the tracking context
// (the stack of watchers currently evaluating), the scheduler and the
// reporting channels. A Runtime must only be used from one goroutine at a time.
type Runtime struct {
	cfg Config
	log *logrus.Entry

	depUID     uint64
	watcherUID uint64

	target      *Watcher
	targetStack []*Watcher

	observing bool
	registry  *registry
	paths     map[uint64][]string

	sched      *scheduler
	callbacks  []func()
	pending    bool
	ticker     Ticker
	microtasks *MicrotaskQueue

	registerer prometheus.Registerer
	metrics    *metrics
	tracer     trace.Tracer

	onError func(err error)
	onWarn  func(msg string)
}

type Option func(*Runtime)

func WithConfig(cfg Config) Option {
	return func(rt *Runtime) {
		rt.cfg = cfg
	}
}

// WithLogger replaces the logrus entry used for warnings and reported errors.
func WithLogger(entry *logrus.Entry) Option {
	return func(rt *Runtime) {
		rt.log = entry
	}
}

// WithTicker replaces the deferred-execution primitive used to schedule
// flushes. The default is an in-process MicrotaskQueue drained by Tick.
func WithTicker(t Ticker) Option {
	return func(rt *Runtime) {
		rt.ticker = t
	}
}

// WithRegisterer registers the runtime's prometheus collectors with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(rt *Runtime) {
		rt.registerer = reg
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(rt *Runtime) {
		rt.tracer = tp.Tracer(tracerName)
	}
}

// WithErrorHandler receives every error caught at a user-code boundary
// (watch getters, watch callbacks, nextTick callbacks, runaway updates).
func WithErrorHandler(fn func(err error)) Option {
	return func(rt *Runtime) {
		rt.onError = fn
	}
}

func WithWarnHandler(fn func(msg string)) Option {
	return func(rt *Runtime) {
		rt.onWarn = fn
	}
}

func New(opts ...Option) *Runtime {
	rt := &Runtime{
		cfg:        DefaultConfig(),
		observing:  true,
		registry:   newRegistry(),
		paths:      map[uint64][]string{},
		microtasks: &MicrotaskQueue{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.cfg.MaxUpdateCount <= 0 {
		rt.cfg.MaxUpdateCount = defaultMaxUpdateCount
	}
	if rt.log == nil {
		rt.log = newLogger(rt.cfg)
	}
	if rt.ticker == nil {
		rt.ticker = rt.microtasks
	}
	if rt.tracer == nil {
		rt.tracer = otel.Tracer(tracerName)
	}
	rt.metrics = newMetrics(rt.registerer)
	rt.sched = newScheduler(rt)
	return rt
}

func newLogger(cfg Config) *logrus.Entry {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger.WithField("component", "observer")
}

func (rt *Runtime) Config() Config {
	return rt.cfg
}

// Target returns the watcher currently collecting dependencies, if any.
func (rt *Runtime) Target() *Watcher {
	return rt.target
}

func (rt *Runtime) pushTarget(w *Watcher) {
	rt.targetStack = append(rt.targetStack, w)
	rt.target = w
}

func (rt *Runtime) popTarget() {
	last := len(rt.targetStack) - 1
	rt.targetStack[last] = nil
	rt.targetStack = rt.targetStack[:last]
	if last == 0 {
		rt.target = nil
		return
	}
	rt.target = rt.targetStack[last-1]
}

// Untracked runs fn with dependency collection suspended. Reads inside fn are
// not attributed to the enclosing watcher.
func (rt *Runtime) Untracked(fn func()) {
	rt.pushTarget(nil)
	defer rt.popTarget()
	fn()
}

// Observing reports whether new containers are currently wrapped.
func (rt *Runtime) Observing() bool {
	return rt.observing
}

// WithoutObserving runs fn with container wrapping disabled and restores the
// previous state afterwards.
func (rt *Runtime) WithoutObserving(fn func()) {
	prev := rt.observing
	rt.observing = false
	defer func() { rt.observing = prev }()
	fn()
}

func (rt *Runtime) warn(msg string) {
	if rt.cfg.Silent {
		return
	}
	if rt.onWarn != nil {
		rt.onWarn(msg)
		return
	}
	rt.log.Warn(msg)
}

func (rt *Runtime) handleError(err error, w *Watcher, info string) {
	werr := &WatcherError{Info: info, Err: err}
	if w != nil {
		werr.Expression = w.expression
		if w.scope != nil {
			werr.Scope = w.scope.name
		}
	}
	rt.metrics.errors.Inc()
	if rt.onError != nil {
		rt.onError(werr)
		return
	}
	entry := rt.log.WithError(err).WithField("info", info)
	if werr.Scope != "" {
		entry = entry.WithField("scope", werr.Scope)
	}
	entry.Error("error in watcher")
}

// invoke calls fn, turning a returned error or a panic into a reported error.
func (rt *Runtime) invoke(fn func() error, w *Watcher, info string) {
	defer func() {
		if r := recover(); r != nil {
			rt.handleError(toError(r), w, info)
		}
	}()
	if err := fn(); err != nil {
		rt.handleError(err, w, info)
	}
}

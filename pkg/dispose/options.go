package dispose

import (
	"log/slog"

	"github.com/randalmurphal/dispose/pkg/dispose/journal"
	"github.com/randalmurphal/dispose/pkg/dispose/observability"
)

// bindConfig holds per-object configuration collected by Bind.
type bindConfig struct {
	name      string
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
	tracing   bool
	finalizer bool
	journal   journal.Store
}

// defaultBindConfig returns the default binding configuration.
func defaultBindConfig() bindConfig {
	return bindConfig{
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
		finalizer: true,
	}
}

// BindOption configures how an object is bound.
type BindOption func(*bindConfig)

// WithName sets the diagnostic name used in logs, metrics, traces, and
// journal entries.
// Default: the owner's dynamic type, e.g. "*pool.Conn".
//
// Example:
//
//	conn := dispose.Bind(&Conn{}, dispose.WithName("billing-db"))
func WithName(name string) BindOption {
	return func(c *bindConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger enables structured lifecycle logging.
// Default: no logging.
//
// Binds log at Debug, explicit disposals at Debug, finalizer-path
// disposals at Warn, hook failures at Error.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	conn := dispose.Bind(&Conn{}, dispose.WithLogger(logger))
func WithLogger(logger *slog.Logger) BindOption {
	return func(c *bindConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics for this object's disposal.
// Default: no metrics.
//
// Uses the global OTel meter provider. Metrics: dispose.disposals,
// dispose.latency_ms, dispose.hook.errors, dispose.leaks,
// dispose.journal.size_bytes.
func WithMetrics(enabled bool) BindOption {
	return func(c *bindConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder sets a custom metrics recorder.
// Useful for tests or for routing metrics somewhere other than the global
// OTel meter provider. A nil recorder disables metrics.
func WithMetricsRecorder(m observability.MetricsRecorder) BindOption {
	return func(c *bindConfig) {
		if m == nil {
			c.metrics = observability.NoopMetrics{}
			return
		}
		c.metrics = m
	}
}

// WithTracing enables OpenTelemetry spans for the release sequence.
// Default: no tracing.
//
// Uses the global OTel tracer provider. Spans: dispose.object with child
// dispose.hook.unmanaged and dispose.hook.managed spans.
func WithTracing(enabled bool) BindOption {
	return func(c *bindConfig) {
		c.tracing = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithoutFinalizer disarms the garbage-collector safety net for this
// object.
// Default: the safety net is armed.
//
// Use this when the object's lifetime is managed entirely by scoped
// constructs (Using, Cleanup, defer) and you want leaks surfaced by the
// leakcheck package instead of silently repaired by the finalizer.
func WithoutFinalizer() BindOption {
	return func(c *bindConfig) {
		c.finalizer = false
	}
}

// WithJournal records this object's lifecycle events to the given store.
// Default: no journaling.
//
// Example:
//
//	store, err := journal.NewSQLiteStore("./lifecycle.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	conn := dispose.Bind(&Conn{}, dispose.WithJournal(store))
func WithJournal(store journal.Store) BindOption {
	return func(c *bindConfig) {
		c.journal = store
	}
}

package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records disposal metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDisposal records one completed release sequence with its duration
	// and error status. The trigger is "explicit" or "finalizer".
	RecordDisposal(ctx context.Context, object, trigger string, duration time.Duration, err error)

	// RecordLeak records an object whose release ran on the finalizer path or
	// that a leak check found still pending.
	RecordLeak(ctx context.Context, object string)

	// RecordJournalAppend records a lifecycle journal write.
	RecordJournalAppend(ctx context.Context, object string, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	disposals   metric.Int64Counter
	latency     metric.Float64Histogram
	hookErrors  metric.Int64Counter
	leaks       metric.Int64Counter
	journalSize metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("dispose")

	disposals, err := meter.Int64Counter("dispose.disposals",
		metric.WithDescription("Number of completed release sequences"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("dispose.latency_ms",
		metric.WithDescription("Release sequence latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	hookErrors, err := meter.Int64Counter("dispose.hook.errors",
		metric.WithDescription("Number of release sequences whose hooks returned errors"),
	)
	if err != nil {
		return nil, err
	}

	leaks, err := meter.Int64Counter("dispose.leaks",
		metric.WithDescription("Number of objects that were never explicitly disposed"),
	)
	if err != nil {
		return nil, err
	}

	journalSize, err := meter.Int64Histogram("dispose.journal.size_bytes",
		metric.WithDescription("Lifecycle journal entry size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		disposals:   disposals,
		latency:     latency,
		hookErrors:  hookErrors,
		leaks:       leaks,
		journalSize: journalSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordDisposal records one completed release sequence.
func (m *otelMetrics) RecordDisposal(ctx context.Context, object, trigger string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("object", object),
		attribute.String("trigger", trigger),
	}

	m.disposals.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.latency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.hookErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordLeak records a leaked object.
func (m *otelMetrics) RecordLeak(ctx context.Context, object string) {
	attrs := []attribute.KeyValue{
		attribute.String("object", object),
	}
	m.leaks.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordJournalAppend records a lifecycle journal write.
func (m *otelMetrics) RecordJournalAppend(ctx context.Context, object string, sizeBytes int64) {
	attrs := []attribute.KeyValue{
		attribute.String("object", object),
	}
	m.journalSize.Record(ctx, sizeBytes, metric.WithAttributes(attrs...))
}

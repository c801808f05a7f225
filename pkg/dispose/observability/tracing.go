package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the dispose tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("dispose")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartDisposeSpan starts a span for the entire release sequence.
	// Returns the context with span and the span itself.
	StartDisposeSpan(ctx context.Context, object, trigger string) (context.Context, trace.Span)

	// StartHookSpan starts a span for a single release hook ("managed" or
	// "unmanaged"). The hook span should be a child of the dispose span.
	StartHookSpan(ctx context.Context, hook string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartDisposeSpan starts a span for the entire release sequence.
func (m *otelSpanManager) StartDisposeSpan(ctx context.Context, object, trigger string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dispose.object",
		trace.WithAttributes(
			attribute.String("object", object),
			attribute.String("trigger", trigger),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartHookSpan starts a span for a single release hook.
func (m *otelSpanManager) StartHookSpan(ctx context.Context, hook string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dispose.hook."+hook,
		trace.WithAttributes(
			attribute.String("hook", hook),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Convenience functions that operate on the global tracer.
// These are useful for simple cases where you don't need the interface.

// StartDisposeSpan starts a span for the entire release sequence.
// Uses the global OTel tracer.
func StartDisposeSpan(ctx context.Context, object, trigger string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dispose.object",
		trace.WithAttributes(
			attribute.String("object", object),
			attribute.String("trigger", trigger),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartHookSpan starts a span for a single release hook.
// Uses the global OTel tracer.
func StartHookSpan(ctx context.Context, hook string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dispose.hook."+hook,
		trace.WithAttributes(
			attribute.String("hook", hook),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// Package observability provides production-grade observability features
// for dispose: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds disposal context to a logger.
// Returns a new logger with object, object_id, and trigger fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "*pool.Conn", "obj-1a2b3c4d", "explicit")
//	enriched.Debug("releasing") // includes object, object_id, trigger
func EnrichLogger(logger *slog.Logger, object, objectID, trigger string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("object", object),
		slog.String("object_id", objectID),
		slog.String("trigger", trigger),
	)
}

// LogBound logs that an object was bound and its disposal armed.
func LogBound(logger *slog.Logger, object, objectID string) {
	if logger == nil {
		return
	}
	logger.Debug("disposal armed",
		slog.String("object", object),
		slog.String("object_id", objectID),
	)
}

// LogDisposed logs successful completion of the release sequence.
func LogDisposed(logger *slog.Logger, object, objectID, trigger string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("object disposed",
		slog.String("object", object),
		slog.String("object_id", objectID),
		slog.String("trigger", trigger),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDisposeError logs a release sequence that reported hook errors.
func LogDisposeError(logger *slog.Logger, object, objectID, trigger string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("disposal hooks failed",
		slog.String("object", object),
		slog.String("object_id", objectID),
		slog.String("trigger", trigger),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogFinalizerDisposal logs that an object was reclaimed by the garbage
// collector without an explicit Dispose call. This is always a bug in the
// owning code, even though the safety net covered for it.
func LogFinalizerDisposal(logger *slog.Logger, object, objectID string) {
	if logger == nil {
		return
	}
	logger.Warn("object reclaimed without explicit disposal",
		slog.String("object", object),
		slog.String("object_id", objectID),
	)
}

// LogLeakDetected logs an object that is still awaiting disposal at a point
// where the caller asserted none should remain.
func LogLeakDetected(logger *slog.Logger, object, objectID string, ageMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("undisposed object detected",
		slog.String("object", object),
		slog.String("object_id", objectID),
		slog.Float64("age_ms", ageMs),
	)
}

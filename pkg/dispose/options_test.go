package dispose

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/randalmurphal/dispose/pkg/dispose/journal"
	"github.com/randalmurphal/dispose/pkg/dispose/observability"
)

func TestDefaultBindConfig(t *testing.T) {
	cfg := defaultBindConfig()

	assert.Empty(t, cfg.name)
	assert.Nil(t, cfg.logger)
	assert.Equal(t, observability.NoopMetrics{}, cfg.metrics)
	assert.Equal(t, observability.NoopSpanManager{}, cfg.spans)
	assert.False(t, cfg.tracing)
	assert.True(t, cfg.finalizer, "the safety net is armed by default")
	assert.Nil(t, cfg.journal)
}

func TestBindOptions_AreApplied(t *testing.T) {
	t.Run("WithName sets name", func(t *testing.T) {
		cfg := defaultBindConfig()
		WithName("billing-db")(&cfg)
		assert.Equal(t, "billing-db", cfg.name)
	})

	t.Run("WithName ignores empty", func(t *testing.T) {
		cfg := defaultBindConfig()
		WithName("cache")(&cfg)
		WithName("")(&cfg)
		assert.Equal(t, "cache", cfg.name)
	})

	t.Run("WithLogger sets logger", func(t *testing.T) {
		cfg := defaultBindConfig()
		logger := slog.Default()
		WithLogger(logger)(&cfg)
		assert.Equal(t, logger, cfg.logger)
	})

	t.Run("WithMetrics true sets recorder", func(t *testing.T) {
		cfg := defaultBindConfig()
		WithMetrics(true)(&cfg)
		assert.NotNil(t, cfg.metrics)
		assert.NotEqual(t, observability.NoopMetrics{}, cfg.metrics)
	})

	t.Run("WithMetrics false sets noop", func(t *testing.T) {
		cfg := defaultBindConfig()
		WithMetrics(true)(&cfg)
		WithMetrics(false)(&cfg)
		assert.Equal(t, observability.NoopMetrics{}, cfg.metrics)
	})

	t.Run("WithMetricsRecorder sets custom recorder", func(t *testing.T) {
		cfg := defaultBindConfig()
		fm := &fakeMetrics{}
		WithMetricsRecorder(fm)(&cfg)
		assert.Equal(t, fm, cfg.metrics)
	})

	t.Run("WithMetricsRecorder nil sets noop", func(t *testing.T) {
		cfg := defaultBindConfig()
		WithMetricsRecorder(nil)(&cfg)
		assert.Equal(t, observability.NoopMetrics{}, cfg.metrics)
	})

	t.Run("WithTracing true sets span manager", func(t *testing.T) {
		cfg := defaultBindConfig()
		WithTracing(true)(&cfg)
		assert.True(t, cfg.tracing)
		assert.NotEqual(t, observability.NoopSpanManager{}, cfg.spans)
	})

	t.Run("WithTracing false sets noop", func(t *testing.T) {
		cfg := defaultBindConfig()
		WithTracing(true)(&cfg)
		WithTracing(false)(&cfg)
		assert.False(t, cfg.tracing)
		assert.Equal(t, observability.NoopSpanManager{}, cfg.spans)
	})

	t.Run("WithoutFinalizer disarms safety net", func(t *testing.T) {
		cfg := defaultBindConfig()
		WithoutFinalizer()(&cfg)
		assert.False(t, cfg.finalizer)
	})

	t.Run("WithJournal sets store", func(t *testing.T) {
		cfg := defaultBindConfig()
		store := journal.NewMemoryStore()
		defer store.Close()
		WithJournal(store)(&cfg)
		assert.Equal(t, store, cfg.journal)
	})
}

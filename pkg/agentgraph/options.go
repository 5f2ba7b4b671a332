package agentgraph

import (
	"log/slog"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
)

// DefaultMaxSteps bounds the number of node executions in a single Run.
const DefaultMaxSteps = 25

// DefaultLockTTL bounds how long a crashed process can hold a thread lock
// in a shared store.
const DefaultLockTTL = 5 * time.Minute

// engineConfig holds configuration for an Engine.
type engineConfig struct {
	store          checkpoint.Store
	maxSteps       int
	lockTTL        time.Duration
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() engineConfig {
	return engineConfig{
		maxSteps: DefaultMaxSteps,
		lockTTL:  DefaultLockTTL,
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithCheckpointer sets the store that holds each thread's state.
// Default: a fresh in-memory store owned by the engine.
//
// Example:
//
//	store, err := checkpoint.NewSQLiteStore("./threads.db")
//	engine := agentgraph.NewEngine(compiled, agentgraph.WithCheckpointer(store))
func WithCheckpointer(store checkpoint.Store) EngineOption {
	return func(c *engineConfig) {
		if store != nil {
			c.store = store
		}
	}
}

// WithMaxSteps sets the maximum number of node executions per Run.
// Default: 25
//
// A run that would execute more nodes fails with a *RunawayError.
// Non-positive values are ignored.
func WithMaxSteps(n int) EngineOption {
	return func(c *engineConfig) {
		if n > 0 {
			c.maxSteps = n
		}
	}
}

// WithLockTTL sets the expiry of thread locks taken on stores that
// implement checkpoint.Locker. Default: 5 minutes.
func WithLockTTL(ttl time.Duration) EngineOption {
	return func(c *engineConfig) {
		if ttl >= 0 {
			c.lockTTL = ttl
		}
	}
}

// WithLogger sets the structured logger for runs.
// Default: slog.Default()
//
// Nodes receive a child logger enriched with thread_id, run_id, node_id
// and step through Context.Logger().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(c *engineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter provider.
// Default: disabled
func WithMetrics(enabled bool) EngineOption {
	return func(c *engineConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder sets a specific metrics recorder.
func WithMetricsRecorder(m observability.MetricsRecorder) EngineOption {
	return func(c *engineConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry tracing using the global tracer provider.
// Default: disabled
//
// Each run produces an "agentgraph.run" span with one child span per step.
func WithTracing(enabled bool) EngineOption {
	return func(c *engineConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithSpanManager sets a specific span manager and enables tracing.
func WithSpanManager(sm observability.SpanManager) EngineOption {
	return func(c *engineConfig) {
		if sm != nil {
			c.spans = sm
			c.tracingEnabled = true
		}
	}
}

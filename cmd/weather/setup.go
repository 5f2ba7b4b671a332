package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go/v3/option"
	"github.com/randalmurphal/agentgraph/internal/weather"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/config"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
)

// openStore opens the configured checkpoint store.
func openStore(s config.StoreSettings) (checkpoint.Store, error) {
	switch s.Backend {
	case config.BackendMemory:
		return checkpoint.NewMemoryStore(), nil
	case config.BackendSQLite:
		store, err := checkpoint.NewSQLiteStore(s.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case config.BackendRedis:
		return checkpoint.NewRedisStore(s.RedisAddr, s.RedisPassword, s.RedisDB,
			checkpoint.WithPrefix(s.Prefix),
			checkpoint.WithTTL(s.TTL),
		), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", s.Backend)
	}
}

// newReasoner builds the configured model.
func newReasoner(s config.ModelSettings) (llm.Reasoner, error) {
	switch s.Provider {
	case config.ProviderOffline:
		return weather.Offline{}, nil
	case config.ProviderOpenAI:
		var opts []option.RequestOption
		if s.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(s.BaseURL))
		}
		if key := os.Getenv(s.APIKeyEnv); key != "" {
			opts = append(opts, option.WithAPIKey(key))
		}
		return llm.NewOpenAI(s.Name, opts...), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", s.Provider)
	}
}

// newEngine wires settings into a ready-to-run engine. The caller closes the store.
func newEngine(s config.Settings, logger *slog.Logger) (*agentgraph.Engine[agentgraph.MessagesState], checkpoint.Store, error) {
	reasoner, err := newReasoner(s.Model)
	if err != nil {
		return nil, nil, err
	}

	var metrics observability.MetricsRecorder = observability.NoopMetrics{}
	if s.Metrics {
		metrics = observability.NewMetricsRecorder()
	}

	compiled, err := weather.BuildGraph(weather.Options{
		Reasoner:        reasoner,
		ToolTimeout:     s.Tools.Timeout,
		ToolConcurrency: s.Tools.Concurrency,
		ToolRetries:     s.Tools.Retries,
		Metrics:         metrics,
	})
	if err != nil {
		return nil, nil, err
	}

	store, err := openStore(s.Store)
	if err != nil {
		return nil, nil, err
	}

	engine := agentgraph.NewEngine(compiled,
		agentgraph.WithCheckpointer(store),
		agentgraph.WithMaxSteps(s.MaxSteps),
		agentgraph.WithLogger(logger),
		agentgraph.WithMetricsRecorder(metrics),
		agentgraph.WithTracing(s.Tracing),
	)
	return engine, store, nil
}

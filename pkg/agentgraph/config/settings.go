package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Model providers.
const (
	ProviderOffline = "offline"
	ProviderOpenAI  = "openai"
)

// StoreSettings selects and configures the checkpoint store.
type StoreSettings struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
}

// ModelSettings selects the reasoning model.
type ModelSettings struct {
	Provider  string
	BaseURL   string
	Name      string
	APIKeyEnv string
}

// ToolSettings configures the tool executor.
type ToolSettings struct {
	Timeout     time.Duration
	Concurrency int
	Retries     int
}

// Settings is the full runtime configuration of an agent process.
type Settings struct {
	MaxSteps int
	LogLevel string
	Metrics  bool
	Tracing  bool
	Store    StoreSettings
	Model    ModelSettings
	Tools    ToolSettings
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		MaxSteps: 25,
		LogLevel: "info",
		Store: StoreSettings{
			Backend:   BackendSQLite,
			Path:      "agentgraph.db",
			RedisAddr: "localhost:6379",
			Prefix:    "agentgraph:",
		},
		Model: ModelSettings{
			Provider:  ProviderOffline,
			Name:      "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Tools: ToolSettings{
			Timeout:     30 * time.Second,
			Concurrency: 1,
		},
	}
}

// FromConfig overlays the values present in c onto Defaults.
//
//	max_steps: 25
//	log_level: info
//	metrics: false
//	tracing: false
//	store:
//	  backend: sqlite   # memory | sqlite | redis
//	  path: agentgraph.db
//	  redis_addr: localhost:6379
//	  redis_password: ""
//	  redis_db: 0
//	  prefix: "agentgraph:"
//	  ttl: 0s
//	model:
//	  provider: offline # offline | openai
//	  base_url: ""
//	  name: gpt-4o-mini
//	  api_key_env: OPENAI_API_KEY
//	tools:
//	  timeout: 30s
//	  concurrency: 1
//	  retries: 0
func FromConfig(c Config) Settings {
	d := Defaults()
	return Settings{
		MaxSteps: c.Int("max_steps", d.MaxSteps),
		LogLevel: c.String("log_level", d.LogLevel),
		Metrics:  c.Bool("metrics", d.Metrics),
		Tracing:  c.Bool("tracing", d.Tracing),
		Store: StoreSettings{
			Backend:       c.String("store.backend", d.Store.Backend),
			Path:          c.String("store.path", d.Store.Path),
			RedisAddr:     c.String("store.redis_addr", d.Store.RedisAddr),
			RedisPassword: c.String("store.redis_password", d.Store.RedisPassword),
			RedisDB:       c.Int("store.redis_db", d.Store.RedisDB),
			Prefix:        c.String("store.prefix", d.Store.Prefix),
			TTL:           c.Duration("store.ttl", d.Store.TTL),
		},
		Model: ModelSettings{
			Provider:  c.String("model.provider", d.Model.Provider),
			BaseURL:   c.String("model.base_url", d.Model.BaseURL),
			Name:      c.String("model.name", d.Model.Name),
			APIKeyEnv: c.String("model.api_key_env", d.Model.APIKeyEnv),
		},
		Tools: ToolSettings{
			Timeout:     c.Duration("tools.timeout", d.Tools.Timeout),
			Concurrency: c.Int("tools.concurrency", d.Tools.Concurrency),
			Retries:     c.Int("tools.retries", d.Tools.Retries),
		},
	}
}

// Load reads settings from path. An empty path yields Defaults.
func Load(path string) (Settings, error) {
	if path == "" {
		return Defaults(), nil
	}
	c, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	s := FromConfig(c)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return s, nil
}

// Validate reports every invalid field.
func (s Settings) Validate() error {
	var errs []error

	if s.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("max_steps must be positive, got %d", s.MaxSteps))
	}
	if _, err := parseLevel(s.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch s.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if s.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for sqlite"))
		}
	case BackendRedis:
		if s.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr is required for redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", s.Store.Backend))
	}
	if s.Store.TTL < 0 {
		errs = append(errs, errors.New("store.ttl must not be negative"))
	}

	switch s.Model.Provider {
	case ProviderOffline:
	case ProviderOpenAI:
		if s.Model.Name == "" {
			errs = append(errs, errors.New("model.name is required for openai"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown model.provider %q", s.Model.Provider))
	}

	if s.Tools.Timeout < 0 {
		errs = append(errs, errors.New("tools.timeout must not be negative"))
	}
	if s.Tools.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("tools.concurrency must be positive, got %d", s.Tools.Concurrency))
	}
	if s.Tools.Retries < 0 {
		errs = append(errs, errors.New("tools.retries must not be negative"))
	}

	return errors.Join(errs...)
}

// SlogLevel returns the configured log level, defaulting to Info.
func (s Settings) SlogLevel() slog.Level {
	level, err := parseLevel(s.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
	}
}

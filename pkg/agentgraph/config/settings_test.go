package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	d := config.Defaults()

	assert.Equal(t, 25, d.MaxSteps)
	assert.Equal(t, config.BackendSQLite, d.Store.Backend)
	assert.Equal(t, config.ProviderOffline, d.Model.Provider)
	assert.Equal(t, 30*time.Second, d.Tools.Timeout)
	assert.Equal(t, 1, d.Tools.Concurrency)
	assert.NoError(t, d.Validate())
}

func TestLoad_EmptyPath(t *testing.T) {
	s, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), s)
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv("AGENTGRAPH_TEST_REDIS", "cache:6380")
	path := writeFile(t, "agent.yaml", `
max_steps: 12
log_level: debug
metrics: true
store:
  backend: redis
  redis_addr: ${AGENTGRAPH_TEST_REDIS}
  redis_db: 3
  ttl: 48h
model:
  provider: openai
  base_url: http://localhost:11434/v1/
  name: llama3
tools:
  timeout: 5s
  concurrency: 4
  retries: 2
`)

	s, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, s.MaxSteps)
	assert.Equal(t, "debug", s.LogLevel)
	assert.True(t, s.Metrics)
	assert.False(t, s.Tracing)
	assert.Equal(t, config.StoreSettings{
		Backend:   config.BackendRedis,
		Path:      "agentgraph.db",
		RedisAddr: "cache:6380",
		RedisDB:   3,
		Prefix:    "agentgraph:",
		TTL:       48 * time.Hour,
	}, s.Store)
	assert.Equal(t, config.ModelSettings{
		Provider:  config.ProviderOpenAI,
		BaseURL:   "http://localhost:11434/v1/",
		Name:      "llama3",
		APIKeyEnv: "OPENAI_API_KEY",
	}, s.Model)
	assert.Equal(t, config.ToolSettings{Timeout: 5 * time.Second, Concurrency: 4, Retries: 2}, s.Tools)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "agent.json", `{"max_steps": 7, "store": {"backend": "memory"}}`)

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, s.MaxSteps)
	assert.Equal(t, config.BackendMemory, s.Store.Backend)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unsupported extension", "agent.toml", "max_steps = 3", "unsupported config file extension"},
		{"malformed yaml", "agent.yaml", "store: [", "parse yaml"},
		{"invalid values", "agent.yaml", "max_steps: 0\nstore:\n  backend: etcd\n", "max_steps must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Settings)
		want   []string
	}{
		{"zero steps", func(s *config.Settings) { s.MaxSteps = 0 }, []string{"max_steps"}},
		{"bad level", func(s *config.Settings) { s.LogLevel = "loud" }, []string{"log_level"}},
		{"unknown backend", func(s *config.Settings) { s.Store.Backend = "etcd" }, []string{"store.backend"}},
		{"sqlite without path", func(s *config.Settings) { s.Store.Path = "" }, []string{"store.path"}},
		{"redis without addr", func(s *config.Settings) {
			s.Store.Backend = config.BackendRedis
			s.Store.RedisAddr = ""
		}, []string{"store.redis_addr"}},
		{"negative ttl", func(s *config.Settings) { s.Store.TTL = -time.Second }, []string{"store.ttl"}},
		{"unknown provider", func(s *config.Settings) { s.Model.Provider = "oracle" }, []string{"model.provider"}},
		{"openai without model", func(s *config.Settings) {
			s.Model.Provider = config.ProviderOpenAI
			s.Model.Name = ""
		}, []string{"model.name"}},
		{"bad tools", func(s *config.Settings) {
			s.Tools.Timeout = -1
			s.Tools.Concurrency = 0
			s.Tools.Retries = -1
		}, []string{"tools.timeout", "tools.concurrency", "tools.retries"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.Defaults()
			tt.modify(&s)

			err := s.Validate()
			require.Error(t, err)
			for _, want := range tt.want {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, config.Settings{LogLevel: tt.level}.SlogLevel())
		})
	}
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/config"
	"github.com/spf13/cobra"
)

// DefaultThreadID is the conversation used when --thread is not given.
const DefaultThreadID = "42"

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "weather",
		Short:         "Ask a tool-using agent about the weather",
		Long:          `weather runs an agent that searches for the weather and remembers each conversation thread across invocations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML or JSON config file")
	flags.String("thread", DefaultThreadID, "Conversation thread ID")
	flags.String("store", "", "Checkpoint store: memory, sqlite or redis")
	flags.String("db", "", "SQLite database path")
	flags.String("redis-addr", "", "Redis address")
	flags.Duration("ttl", 0, "Expire Redis threads after this long (0 keeps them)")
	flags.Int("max-steps", 0, "Maximum node executions per question")
	flags.String("model", "", "Model provider: offline or openai")
	flags.String("model-name", "", "Model name for the openai provider")
	flags.String("base-url", "", "OpenAI-compatible API base URL")
	flags.String("log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(newAskCmd(), newHistoryCmd(), newThreadsCmd(), newForgetCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadSettings reads --config and applies any explicitly set flags on top.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	s, err := config.Load(path)
	if err != nil {
		return s, err
	}

	if flags.Changed("store") {
		s.Store.Backend, _ = flags.GetString("store")
	}
	if flags.Changed("db") {
		s.Store.Path, _ = flags.GetString("db")
	}
	if flags.Changed("redis-addr") {
		s.Store.RedisAddr, _ = flags.GetString("redis-addr")
	}
	if flags.Changed("ttl") {
		s.Store.TTL, _ = flags.GetDuration("ttl")
	}
	if flags.Changed("max-steps") {
		s.MaxSteps, _ = flags.GetInt("max-steps")
	}
	if flags.Changed("model") {
		s.Model.Provider, _ = flags.GetString("model")
	}
	if flags.Changed("model-name") {
		s.Model.Name, _ = flags.GetString("model-name")
	}
	if flags.Changed("base-url") {
		s.Model.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("log-level") {
		s.LogLevel, _ = flags.GetString("log-level")
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func newLogger(cmd *cobra.Command, s config.Settings) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: s.SlogLevel(),
	}))
}

func threadID(cmd *cobra.Command) (string, error) {
	id, _ := cmd.Flags().GetString("thread")
	if id == "" {
		return "", fmt.Errorf("--thread must not be empty")
	}
	return id, nil
}

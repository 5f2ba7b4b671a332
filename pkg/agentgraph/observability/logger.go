// Package observability provides structured logging, metrics, and tracing
// helpers for agentgraph runs.
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
	"time"
)

// LogRunStart logs the start of a run.
func LogRunStart(logger *slog.Logger, threadID, runID string, resumed bool) {
	if logger == nil {
		return
	}
	logger.Info("graph run starting",
		slog.String("thread_id", threadID),
		slog.String("run_id", runID),
		slog.Bool("resumed", resumed),
	)
}

// LogRunComplete logs successful run completion.
func LogRunComplete(logger *slog.Logger, threadID, runID string, durationMs float64, steps int) {
	if logger == nil {
		return
	}
	logger.Info("graph run completed",
		slog.String("thread_id", threadID),
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("steps", steps),
	)
}

// LogRunError logs run failure.
func LogRunError(logger *slog.Logger, threadID, runID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("graph run failed",
		slog.String("thread_id", threadID),
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

// LogNodeStart logs node execution start.
func LogNodeStart(logger *slog.Logger, nodeID string, step int) {
	if logger == nil {
		return
	}
	logger.Debug("node starting",
		slog.String("node_id", nodeID),
		slog.Int("step", step),
	)
}

// LogNodeComplete logs successful node completion.
func LogNodeComplete(logger *slog.Logger, nodeID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogNodeError logs node execution error.
func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String("node_id", nodeID),
		slog.String("error", err.Error()),
	)
}

// LogRoute logs a routing decision.
func LogRoute(logger *slog.Logger, from, to string) {
	if logger == nil {
		return
	}
	logger.Debug("routing",
		slog.String("from", from),
		slog.String("to", to),
	)
}

// LogCheckpoint logs checkpoint creation.
func LogCheckpoint(logger *slog.Logger, nodeID string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("node_id", nodeID),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogCheckpointError logs checkpoint failure.
func LogCheckpointError(logger *slog.Logger, nodeID string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Error("checkpoint failed",
		slog.String("node_id", nodeID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogToolCall logs a completed tool invocation.
func LogToolCall(logger *slog.Logger, tool, callID string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("tool called",
		slog.String("tool", tool),
		slog.String("call_id", callID),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogToolError logs a failed tool invocation. Tool failures are reported
// back to the model, so this is a warning rather than an error.
func LogToolError(logger *slog.Logger, tool, callID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("tool failed",
		slog.String("tool", tool),
		slog.String("call_id", callID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}

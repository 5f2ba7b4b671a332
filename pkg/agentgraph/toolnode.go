package agentgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// toolNodeConfig holds configuration for a tool node.
type toolNodeConfig struct {
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
}

// ToolNodeOption configures a tool node.
type ToolNodeOption func(*toolNodeConfig)

// WithToolTimeout bounds each tool invocation. An invocation that exceeds
// the deadline is reported to the model as a failure. Default: no timeout.
func WithToolTimeout(d time.Duration) ToolNodeOption {
	return func(c *toolNodeConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithToolConcurrency invokes up to n tool calls of the same turn at once.
// Results are still emitted in call order. Default: 1 (sequential).
func WithToolConcurrency(n int) ToolNodeOption {
	return func(c *toolNodeConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithToolLogger overrides the logger. Default: the node Context's logger.
func WithToolLogger(logger *slog.Logger) ToolNodeOption {
	return func(c *toolNodeConfig) {
		c.logger = logger
	}
}

// WithToolMetrics records one metric per tool invocation.
func WithToolMetrics(m observability.MetricsRecorder) ToolNodeOption {
	return func(c *toolNodeConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewToolNode returns a node that executes the tool calls requested by the
// last ai message and appends one tool message per call, in call order.
//
// Calls naming unregistered tools fail the node with ErrUnknownTool before
// anything runs. A tool that returns an error, panics or times out does not
// fail the node: its message content is "Error: <tool>: <cause>" so the
// model can react to it.
func NewToolNode(registry *tool.Registry, opts ...ToolNodeOption) NodeFunc[MessagesState] {
	cfg := toolNodeConfig{
		concurrency: 1,
		metrics:     observability.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx Context, state MessagesState) (MessagesState, error) {
		last, ok := state.Last()
		if !ok || !last.HasToolCalls() {
			return MessagesState{}, ErrNoPendingToolCalls
		}

		calls := last.ToolCalls
		tools := make([]tool.Tool, len(calls))
		for i, call := range calls {
			t, ok := registry.Get(call.Name)
			if !ok {
				return MessagesState{}, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
			}
			tools[i] = t
		}

		logger := cfg.logger
		if logger == nil {
			logger = ctx.Logger()
		}

		results := make([]Message, len(calls))
		invoke := func(i int) {
			results[i] = cfg.invoke(ctx, logger, tools[i], calls[i])
		}

		if cfg.concurrency <= 1 || len(calls) == 1 {
			for i := range calls {
				invoke(i)
			}
			return Messages(results...), nil
		}

		if err := runPooled(min(cfg.concurrency, len(calls)), len(calls), invoke); err != nil {
			return MessagesState{}, err
		}
		return Messages(results...), nil
	}
}

// runPooled runs fn(0..n-1) on an ants pool of the given size and waits.
func runPooled(size, n int, fn func(i int)) error {
	pool, err := ants.NewPool(size)
	if err != nil {
		return fmt.Errorf("create tool pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			fn(i)
		}); err != nil {
			wg.Done()
			fn(i)
		}
	}
	wg.Wait()
	return nil
}

// invoke runs one tool call and converts its outcome into a tool message.
func (c *toolNodeConfig) invoke(ctx context.Context, logger *slog.Logger, t tool.Tool, call ToolCall) Message {
	start := time.Now()
	content, err := c.call(ctx, t, call.Arguments)
	duration := time.Since(start)

	c.metrics.RecordToolCall(ctx, t.Name, duration, err != nil)
	if err != nil {
		observability.LogToolError(logger, t.Name, call.ID, err)
		return ToolMessage(call.ID, fmt.Sprintf("Error: %s: %v", t.Name, err))
	}
	observability.LogToolCall(logger, t.Name, call.ID, float64(duration.Milliseconds()))
	return ToolMessage(call.ID, content)
}

// call invokes the tool with panic recovery and the configured deadline.
// A tool that ignores its context is abandoned once the deadline passes.
func (c *toolNodeConfig) call(ctx context.Context, t tool.Tool, args map[string]any) (string, error) {
	if c.timeout <= 0 {
		return safeCall(ctx, t, args)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type outcome struct {
		content string
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		content, err := safeCall(callCtx, t, args)
		done <- outcome{content, err}
	}()

	var out outcome
	select {
	case out = <-done:
		if out.err == nil {
			return out.content, nil
		}
	case <-callCtx.Done():
		out.err = callCtx.Err()
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("timed out after %s", c.timeout)
	}
	return "", out.err
}

func safeCall(ctx context.Context, t tool.Tool, args map[string]any) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Func(ctx, args)
}

// ToolsCondition routes to toolsNode when the last message is an ai message
// with tool calls, and to END otherwise.
//
// Declare both targets when wiring it:
//
//	graph.AddConditionalEdge("agent", agentgraph.ToolsCondition("tools"), "tools", agentgraph.END)
func ToolsCondition(toolsNode string) RouterFunc[MessagesState] {
	return func(ctx Context, state MessagesState) string {
		if last, ok := state.Last(); ok && last.HasToolCalls() {
			ctx.Logger().Info("routing to tools", slog.Int("tool_calls", len(last.ToolCalls)))
			return toolsNode
		}
		ctx.Logger().Info("routing to end")
		return END
	}
}

package agentgraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context provides execution context to nodes and routers.
// It extends context.Context with agentgraph metadata and an enriched logger.
//
// Context is immutable after creation. The engine derives a new Context for
// each step with the current node and step number.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with thread, run and node context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// ThreadID returns the conversation the run belongs to.
	ThreadID() string

	// RunID returns the unique identifier for this invocation of Run.
	RunID() string

	// NodeID returns the node being executed or routed from.
	// Empty string before execution starts.
	NodeID() string

	// Step returns the 1-based step number within the run. Zero before execution starts.
	Step() int
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger   *slog.Logger
	threadID string
	runID    string
	nodeID   string
	step     int
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// ThreadID returns the thread identifier.
func (c *executionContext) ThreadID() string {
	return c.threadID
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// NodeID returns the current node identifier.
func (c *executionContext) NodeID() string {
	return c.nodeID
}

// Step returns the current step number.
func (c *executionContext) Step() int {
	return c.step
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithContextLogger sets the logger for the context.
func WithContextLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextThreadID sets the thread identifier for the context.
func WithContextThreadID(id string) ContextOption {
	return func(c *executionContext) {
		c.threadID = id
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID is generated.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
// The engine builds one per run; NewContext is exported so nodes and
// routers can be exercised directly.
//
// Example:
//
//	ctx := agentgraph.NewContext(context.Background(),
//	    agentgraph.WithContextThreadID("42"))
//	update, err := toolNode(ctx, state)
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withNode returns a derived context for the given node and step.
func (c *executionContext) withNode(nodeID string, step int) *executionContext {
	return &executionContext{
		Context: c.Context,
		logger: c.logger.With(
			slog.String("thread_id", c.threadID),
			slog.String("run_id", c.runID),
			slog.String("node_id", nodeID),
			slog.Int("step", step),
		),
		threadID: c.threadID,
		runID:    c.runID,
		nodeID:   nodeID,
		step:     step,
	}
}

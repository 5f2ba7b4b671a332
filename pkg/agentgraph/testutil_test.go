package agentgraph

import (
	"context"
	"io"
	"log/slog"
)

// Test state types used across tests

// Counter sums the updates it receives.
type Counter struct {
	Value int `json:"value"`
}

func (c Counter) Merge(u Counter) Counter {
	return Counter{Value: c.Value + u.Value}
}

// Trail records the nodes that ran, in order.
type Trail struct {
	Visited []string `json:"visited"`
}

func (t Trail) Merge(u Trail) Trail {
	out := make([]string, 0, len(t.Visited)+len(u.Visited))
	out = append(out, t.Visited...)
	return Trail{Visited: append(out, u.Visited...)}
}

// Helper node functions

// increment adds one to the counter.
func increment(ctx Context, s Counter) (Counter, error) {
	return Counter{Value: 1}, nil
}

// visit creates a node that records its own name.
func visit(name string) NodeFunc[Trail] {
	return func(ctx Context, s Trail) (Trail, error) {
		return Trail{Visited: []string{name}}, nil
	}
}

// makeFailingNode creates a node that returns the given error.
func makeFailingNode(err error) NodeFunc[Trail] {
	return func(ctx Context, s Trail) (Trail, error) {
		return Trail{}, err
	}
}

// makePanicNode creates a node that panics with the given value.
func makePanicNode(value any) NodeFunc[Trail] {
	return func(ctx Context, s Trail) (Trail, error) {
		panic(value)
	}
}

// testCtx creates a simple test context.
func testCtx() Context {
	return NewContext(context.Background(), WithContextLogger(discardLogger()))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// quietEngine builds an engine that logs nowhere.
func quietEngine[S Mergeable[S]](cg *CompiledGraph[S], opts ...EngineOption) *Engine[S] {
	return NewEngine(cg, append([]EngineOption{WithLogger(discardLogger())}, opts...)...)
}

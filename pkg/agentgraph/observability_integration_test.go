package agentgraph

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// runRecorder captures engine-level metrics.
type runRecorder struct {
	mu          sync.Mutex
	nodes       []string
	nodeErrors  int
	runs        []bool
	checkpoints int
}

func (r *runRecorder) RecordNodeExecution(_ context.Context, nodeID string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, nodeID)
	if err != nil {
		r.nodeErrors++
	}
}

func (r *runRecorder) RecordGraphRun(_ context.Context, success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, success)
}

func (r *runRecorder) RecordCheckpoint(context.Context, string, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkpoints++
}

func (r *runRecorder) RecordToolCall(context.Context, string, time.Duration, bool) {}

func tracedEngine(t *testing.T, compiled *CompiledGraph[Trail], rec *runRecorder) (*Engine[Trail], *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	engine := NewEngine(compiled,
		WithLogger(discardLogger()),
		WithSpanManager(observability.NewSpanManagerWithProvider(tp)),
		WithMetricsRecorder(rec),
	)
	return engine, exporter
}

// TestObservability_SpansAndMetrics verifies a run emits one span per step
// under a run span, and one metric per node and run.
func TestObservability_SpansAndMetrics(t *testing.T) {
	compiled, err := NewGraph[Trail]().
		AddNode("agent", visit("agent")).
		AddNode("tools", visit("tools")).
		AddEdge("agent", "tools").
		AddEdge("tools", END).
		SetEntry("agent").
		Compile()
	require.NoError(t, err)

	rec := &runRecorder{}
	engine, exporter := tracedEngine(t, compiled, rec)

	_, err = engine.Run(context.Background(), "42", Trail{})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "agentgraph.node.agent", spans[0].Name)
	assert.Equal(t, "agentgraph.node.tools", spans[1].Name)
	assert.Equal(t, "agentgraph.run", spans[2].Name)
	for _, s := range spans[:2] {
		assert.Equal(t, spans[2].SpanContext.SpanID(), s.Parent.SpanID())
	}
	assert.Equal(t, codes.Ok, spans[2].Status.Code)

	assert.Equal(t, []string{"agent", "tools"}, rec.nodes)
	assert.Equal(t, []bool{true}, rec.runs)
	assert.Equal(t, 2, rec.checkpoints)
}

// TestObservability_FailedRun verifies failures mark spans and metrics.
func TestObservability_FailedRun(t *testing.T) {
	compiled, err := NewGraph[Trail]().
		AddNode("agent", makeFailingNode(errors.New("model unavailable"))).
		AddEdge("agent", END).
		SetEntry("agent").
		Compile()
	require.NoError(t, err)

	rec := &runRecorder{}
	engine, exporter := tracedEngine(t, compiled, rec)

	_, err = engine.Run(context.Background(), "42", Trail{})
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)

	assert.Equal(t, 1, rec.nodeErrors)
	assert.Equal(t, []bool{false}, rec.runs)
	assert.Equal(t, 0, rec.checkpoints)
}

// TestObservability_NodeLogger verifies nodes log with run metadata attached.
func TestObservability_NodeLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	compiled, err := NewGraph[Trail]().
		AddNode("agent", func(ctx Context, s Trail) (Trail, error) {
			ctx.Logger().Info("thinking")
			return Trail{}, nil
		}).
		AddEdge("agent", END).
		SetEntry("agent").
		Compile()
	require.NoError(t, err)

	_, err = NewEngine(compiled, WithLogger(logger)).Run(context.Background(), "42", Trail{})
	require.NoError(t, err)

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "msg=thinking") {
			line = l
		}
	}
	require.NotEmpty(t, line, "node log line missing from:\n%s", buf.String())
	assert.Contains(t, line, "thread_id=42")
	assert.Contains(t, line, "node_id=agent")
	assert.Contains(t, line, "step=1")
	assert.Contains(t, line, "run_id=")
}

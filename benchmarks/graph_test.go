package benchmarks

import (
	"testing"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
)

// Counter is the benchmark state. Updates add to Value.
type Counter struct {
	Value int
}

// Merge implements agentgraph.Mergeable.
func (c Counter) Merge(update Counter) Counter {
	return Counter{Value: c.Value + update.Value}
}

// incrementNode does minimal work to measure framework overhead.
func incrementNode(ctx agentgraph.Context, s Counter) (Counter, error) {
	return Counter{Value: 1}, nil
}

// BenchmarkNewGraph measures graph creation overhead.
func BenchmarkNewGraph(b *testing.B) {
	for i := 0; i < b.N; i++ {
		agentgraph.NewGraph[Counter]()
	}
}

// BenchmarkAddNode_10 measures adding 10 nodes.
func BenchmarkAddNode_10(b *testing.B) {
	for i := 0; i < b.N; i++ {
		graph := agentgraph.NewGraph[Counter]()
		for j := 0; j < 10; j++ {
			graph.AddNode(nodeID(j), incrementNode)
		}
	}
}

// BenchmarkCompile_Linear_10 compiles a 10-node linear graph.
func BenchmarkCompile_Linear_10(b *testing.B) {
	graph := buildLinearGraph(10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = graph.Compile()
	}
}

// BenchmarkCompile_Linear_100 compiles a 100-node linear graph.
func BenchmarkCompile_Linear_100(b *testing.B) {
	graph := buildLinearGraph(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = graph.Compile()
	}
}

// BenchmarkCompile_AgentLoop compiles the agent/tools cycle.
func BenchmarkCompile_AgentLoop(b *testing.B) {
	graph := buildLoopGraph(3)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = graph.Compile()
	}
}

// Helper functions

func nodeID(n int) string {
	return string(rune('a'+n%26)) + string(rune('0'+n/26%10))
}

func buildLinearGraph(n int) *agentgraph.Graph[Counter] {
	graph := agentgraph.NewGraph[Counter]()
	for i := 0; i < n; i++ {
		graph.AddNode(nodeID(i), incrementNode)
	}
	for i := 0; i < n-1; i++ {
		graph.AddEdge(nodeID(i), nodeID(i+1))
	}
	graph.AddEdge(nodeID(n-1), agentgraph.END)
	graph.SetEntry(nodeID(0))
	return graph
}

// buildLoopGraph mirrors an agent/tools cycle that ends after n tool turns.
func buildLoopGraph(n int) *agentgraph.Graph[Counter] {
	router := func(ctx agentgraph.Context, s Counter) string {
		if s.Value < 2*n+1 {
			return "tools"
		}
		return agentgraph.END
	}
	return agentgraph.NewGraph[Counter]().
		AddNode("agent", incrementNode).
		AddNode("tools", incrementNode).
		AddConditionalEdge("agent", router, "tools", agentgraph.END).
		AddEdge("tools", "agent").
		SetEntry("agent")
}

func mustCompile(g *agentgraph.Graph[Counter]) *agentgraph.CompiledGraph[Counter] {
	compiled, err := g.Compile()
	if err != nil {
		panic(err)
	}
	return compiled
}

// Package weather assembles the city-weather agent: a placeholder web
// search tool, a reasoning step, and the agent/tools cycle between them.
package weather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// Node names.
const (
	AgentNode = "agent"
	ToolsNode = "tools"
)

// SearchToolName is the name the model uses to call the search tool.
const SearchToolName = "search"

// Canned search results.
const (
	Foggy = "It's 60 degrees and foggy."
	Sunny = "It's 90 degrees and sunny."
)

var foggyCities = []string{"taipei", "san francisco"}

// Search answers every query with canned weather.
func Search(ctx context.Context, args map[string]any) (string, error) {
	query := tool.StringArg(args, "query")
	if ac, ok := ctx.(agentgraph.Context); ok {
		ac.Logger().Info("search called", slog.String("query", query))
	}

	q := strings.ToLower(query)
	for _, city := range foggyCities {
		if strings.Contains(q, city) {
			return Foggy, nil
		}
	}
	return Sunny, nil
}

// SearchTool describes Search to the model.
func SearchTool() tool.Tool {
	return tool.Tool{
		Name:        SearchToolName,
		Description: "Call to surf the web.",
		Parameters:  tool.StringParam("query", "The search query."),
		Func:        Search,
	}
}

// Options configures the agent graph.
type Options struct {
	// Reasoner drives the agent node. Default: Offline.
	Reasoner llm.Reasoner
	// SystemPrompt is sent ahead of the conversation on every model call.
	SystemPrompt string
	// ToolTimeout bounds each search call. Zero means no bound.
	ToolTimeout time.Duration
	// ToolConcurrency runs parallel tool calls of one turn concurrently.
	ToolConcurrency int
	// ToolRetries retries a failing search this many extra times.
	ToolRetries int
	// Metrics records tool calls. Default: no-op.
	Metrics observability.MetricsRecorder
}

// Registry returns the tool table of the agent.
func Registry(opts Options) (*tool.Registry, error) {
	search := SearchTool()
	if opts.ToolRetries > 0 {
		cfg := tool.DefaultRetry
		cfg.MaxAttempts = opts.ToolRetries + 1
		search.Func = tool.WithRetry(cfg, search.Func)
	}
	return tool.NewRegistry(search)
}

// BuildGraph compiles the agent graph:
//
//	agent --(tool calls)--> tools --> agent
//	agent --(no tool calls)--> END
func BuildGraph(opts Options) (*agentgraph.CompiledGraph[agentgraph.MessagesState], error) {
	reasoner := opts.Reasoner
	if reasoner == nil {
		reasoner = Offline{}
	}

	reg, err := Registry(opts)
	if err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}

	var agentOpts []llm.AgentOption
	if opts.SystemPrompt != "" {
		agentOpts = append(agentOpts, llm.WithSystemPrompt(opts.SystemPrompt))
	}

	toolOpts := []agentgraph.ToolNodeOption{
		agentgraph.WithToolTimeout(opts.ToolTimeout),
		agentgraph.WithToolConcurrency(opts.ToolConcurrency),
	}
	if opts.Metrics != nil {
		toolOpts = append(toolOpts, agentgraph.WithToolMetrics(opts.Metrics))
	}

	return agentgraph.NewGraph[agentgraph.MessagesState]().
		AddNode(AgentNode, llm.AgentNode(reasoner, reg, agentOpts...)).
		AddNode(ToolsNode, agentgraph.NewToolNode(reg, toolOpts...)).
		AddConditionalEdge(AgentNode, agentgraph.ToolsCondition(ToolsNode), ToolsNode, agentgraph.END).
		AddEdge(ToolsNode, AgentNode).
		SetEntry(AgentNode).
		Compile()
}

package weather

import (
	"context"
	"fmt"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// Offline is a deterministic stand-in for a model. It searches for every
// human question and answers with the search result it gets back.
type Offline struct{}

// Reason implements llm.Reasoner.
func (Offline) Reason(ctx context.Context, messages []agentgraph.Message, tools []tool.Definition) (agentgraph.Message, error) {
	if err := ctx.Err(); err != nil {
		return agentgraph.Message{}, err
	}
	if len(messages) == 0 {
		return agentgraph.AIMessage("Ask me about the weather somewhere."), nil
	}

	last := messages[len(messages)-1]
	switch last.Role {
	case agentgraph.RoleHuman:
		if !offers(tools, SearchToolName) {
			return agentgraph.AIMessage("I have no way to look that up."), nil
		}
		return agentgraph.AIMessage("", agentgraph.ToolCall{
			ID:        fmt.Sprintf("call_%d", len(messages)),
			Name:      SearchToolName,
			Arguments: map[string]any{"query": last.Content},
		}), nil
	case agentgraph.RoleTool:
		return agentgraph.AIMessage(last.Content), nil
	default:
		return agentgraph.AIMessage("Ask me about the weather somewhere."), nil
	}
}

func offers(tools []tool.Definition, name string) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

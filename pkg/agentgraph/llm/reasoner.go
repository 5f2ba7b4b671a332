// Package llm adapts reasoning models to agentgraph nodes.
//
// A Reasoner turns the conversation so far plus the available tool
// definitions into the next ai message. AgentNode wraps a Reasoner as a
// node of a MessagesState graph.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// Reasoner produces the next ai message of a conversation.
// The returned message may request tool calls.
type Reasoner interface {
	Reason(ctx context.Context, messages []agentgraph.Message, tools []tool.Definition) (agentgraph.Message, error)
}

// ReasonerFunc adapts a function to the Reasoner interface.
type ReasonerFunc func(ctx context.Context, messages []agentgraph.Message, tools []tool.Definition) (agentgraph.Message, error)

// Reason calls f.
func (f ReasonerFunc) Reason(ctx context.Context, messages []agentgraph.Message, tools []tool.Definition) (agentgraph.Message, error) {
	return f(ctx, messages, tools)
}

type agentConfig struct {
	systemPrompt string
}

// AgentOption configures an agent node.
type AgentOption func(*agentConfig)

// WithSystemPrompt prepends a system message to every model call.
// The prompt is not stored in the conversation.
func WithSystemPrompt(prompt string) AgentOption {
	return func(c *agentConfig) {
		c.systemPrompt = prompt
	}
}

// AgentNode returns a node that asks the reasoner for the next message and
// appends it to the conversation. Tools in registry are offered to the model;
// registry may be nil for a tool-less agent.
//
// Tool calls returned without an ID are assigned one, so every tool message
// can reference its call.
func AgentNode(reasoner Reasoner, registry *tool.Registry, opts ...AgentOption) agentgraph.NodeFunc[agentgraph.MessagesState] {
	var cfg agentConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var defs []tool.Definition
	if registry != nil {
		defs = registry.Definitions()
	}

	return func(ctx agentgraph.Context, state agentgraph.MessagesState) (agentgraph.MessagesState, error) {
		messages := state.Messages
		if cfg.systemPrompt != "" {
			messages = append([]agentgraph.Message{agentgraph.SystemMessage(cfg.systemPrompt)}, messages...)
		}

		ctx.Logger().Info("calling model", slog.Int("messages", len(messages)))

		reply, err := reasoner.Reason(ctx, messages, defs)
		if err != nil {
			return agentgraph.MessagesState{}, fmt.Errorf("reason: %w", err)
		}

		reply.Role = agentgraph.RoleAI
		reply.ToolCallID = ""
		if len(reply.ToolCalls) > 0 {
			calls := make([]agentgraph.ToolCall, len(reply.ToolCalls))
			for i, call := range reply.ToolCalls {
				if call.ID == "" {
					call.ID = "call_" + uuid.New().String()
				}
				calls[i] = call
			}
			reply.ToolCalls = calls
		}

		return agentgraph.Messages(reply), nil
	}
}

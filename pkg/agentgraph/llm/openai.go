package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// DefaultModel is used when NewOpenAI is given an empty model name.
const DefaultModel = "gpt-4o-mini"

// ErrEmptyResponse indicates the model returned no choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// OpenAI is a Reasoner backed by an OpenAI-compatible chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// Compile-time interface check.
var _ Reasoner = (*OpenAI)(nil)

// NewOpenAI creates a reasoner for the given model.
// Request options configure the endpoint and credentials:
//
//	r := llm.NewOpenAI("gpt-4o-mini",
//	    option.WithBaseURL("http://localhost:11434/v1/"),
//	    option.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
func NewOpenAI(model string, opts ...option.RequestOption) *OpenAI {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Model returns the model name sent with each request.
func (o *OpenAI) Model() string {
	return o.model
}

// Reason sends the conversation to the chat completions endpoint.
func (o *OpenAI) Reason(ctx context.Context, messages []agentgraph.Message, tools []tool.Definition) (agentgraph.Message, error) {
	params := openai.ChatCompletionNewParams{Model: o.model}

	for _, m := range messages {
		p, err := toParam(m)
		if err != nil {
			return agentgraph.Message{}, err
		}
		params.Messages = append(params.Messages, p)
	}
	for _, def := range tools {
		params.Tools = append(params.Tools, toToolParam(def))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return agentgraph.Message{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return agentgraph.Message{}, ErrEmptyResponse
	}

	return fromCompletion(resp.Choices[0].Message)
}

func toParam(m agentgraph.Message) (openai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case agentgraph.RoleSystem:
		return openai.SystemMessage(m.Content), nil
	case agentgraph.RoleHuman:
		return openai.UserMessage(m.Content), nil
	case agentgraph.RoleTool:
		return openai.ToolMessage(m.Content, m.ToolCallID), nil
	case agentgraph.RoleAI:
		p := openai.AssistantMessage(m.Content)
		for _, call := range m.ToolCalls {
			args, err := json.Marshal(call.Arguments)
			if err != nil {
				return p, fmt.Errorf("encode arguments for %s: %w", call.Name, err)
			}
			p.OfAssistant.ToolCalls = append(p.OfAssistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      call.Name,
						Arguments: string(args),
					},
				},
			})
		}
		return p, nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported message role %q", m.Role)
	}
}

func toToolParam(def tool.Definition) openai.ChatCompletionToolUnionParam {
	fn := openai.FunctionDefinitionParam{
		Name:        def.Name,
		Description: openai.String(def.Description),
	}
	if def.Parameters != nil {
		fn.Parameters = openai.FunctionParameters(def.Parameters)
	}
	return openai.ChatCompletionToolUnionParam{
		OfFunction: &openai.ChatCompletionFunctionToolParam{Function: fn},
	}
}

func fromCompletion(msg openai.ChatCompletionMessage) (agentgraph.Message, error) {
	var calls []agentgraph.ToolCall
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return agentgraph.Message{}, fmt.Errorf("decode arguments for %s: %w", tc.Function.Name, err)
			}
		}
		calls = append(calls, agentgraph.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return agentgraph.AIMessage(msg.Content, calls...), nil
}

package agentgraph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAppendMessages verifies order is preserved and nothing is dropped.
func TestAppendMessages(t *testing.T) {
	hi := HumanMessage("hi")
	hello := AIMessage("hello")

	tests := []struct {
		name     string
		existing []Message
		update   []Message
		want     []Message
	}{
		{"both empty", nil, nil, []Message{}},
		{"into empty", nil, []Message{hi}, []Message{hi}},
		{"empty update", []Message{hi}, nil, []Message{hi}},
		{"append", []Message{hi}, []Message{hello}, []Message{hi, hello}},
		{"duplicates kept", []Message{hi}, []Message{hi}, []Message{hi, hi}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AppendMessages(tt.existing, tt.update))
		})
	}
}

// TestMerge_DoesNotAlias verifies merging leaves earlier states intact.
func TestMerge_DoesNotAlias(t *testing.T) {
	base := Messages(HumanMessage("hi"))
	base.Messages = append(make([]Message, 0, 8), base.Messages...)

	a := base.Merge(Messages(AIMessage("a")))
	b := base.Merge(Messages(AIMessage("b")))

	assert.Len(t, base.Messages, 1)
	assert.Equal(t, "a", a.Messages[1].Content)
	assert.Equal(t, "b", b.Messages[1].Content)
}

// TestMessagesState_Last verifies the last message lookup.
func TestMessagesState_Last(t *testing.T) {
	_, ok := MessagesState{}.Last()
	assert.False(t, ok)

	last, ok := Messages(HumanMessage("hi"), AIMessage("hello")).Last()
	require.True(t, ok)
	assert.Equal(t, AIMessage("hello"), last)
}

// TestHasToolCalls verifies only ai messages carry pending calls.
func TestHasToolCalls(t *testing.T) {
	call := ToolCall{ID: "c1", Name: "search"}

	assert.True(t, AIMessage("", call).HasToolCalls())
	assert.False(t, AIMessage("done").HasToolCalls())
	assert.False(t, Message{Role: RoleHuman, ToolCalls: []ToolCall{call}}.HasToolCalls())
	assert.False(t, ToolMessage("c1", "ok").HasToolCalls())
}

// TestMessagesState_JSON verifies the wire shape of a conversation.
func TestMessagesState_JSON(t *testing.T) {
	state := Messages(
		HumanMessage("weather?"),
		AIMessage("", ToolCall{ID: "c1", Name: "search", Arguments: map[string]any{"query": "sf"}}),
		ToolMessage("c1", "foggy"),
	)

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{"messages":[
		{"role":"human","content":"weather?"},
		{"role":"ai","content":"","tool_calls":[{"id":"c1","name":"search","arguments":{"query":"sf"}}]},
		{"role":"tool","content":"foggy","tool_call_id":"c1"}
	]}`, string(data))
}

package agentgraph

// Mergeable is implemented by state types that can fold a partial update
// produced by a node into themselves.
//
// Merge is the per-field merge policy: it receives the partial update and
// returns the new cumulative state. It must not modify the receiver's
// backing arrays in a way that is visible to previously returned states.
type Mergeable[S any] interface {
	Merge(update S) S
}

// Role identifies the author of a message.
type Role string

// Message roles.
const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
)

// ToolCall is a tool invocation requested by an ai message.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message is one entry of a conversation.
//
// ToolCalls is only populated on ai messages. ToolCallID is only set on
// tool-result messages and references a ToolCall of the preceding ai message.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// HumanMessage creates a message authored by the user.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// SystemMessage creates a system instruction message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AIMessage creates a model response, optionally requesting tool calls.
func AIMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAI, Content: content, ToolCalls: calls}
}

// ToolMessage creates the result message for the tool call with the given ID.
func ToolMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// HasToolCalls reports whether m is an ai message with pending tool calls.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAI && len(m.ToolCalls) > 0
}

// MessagesState is the conversation state threaded through an agent graph.
// Its only field, Messages, uses the append merge policy.
type MessagesState struct {
	Messages []Message `json:"messages"`
}

// Compile-time interface check.
var _ Mergeable[MessagesState] = MessagesState{}

// Messages builds a partial update that appends the given messages.
func Messages(msgs ...Message) MessagesState {
	return MessagesState{Messages: msgs}
}

// Merge appends update.Messages to the conversation.
func (s MessagesState) Merge(update MessagesState) MessagesState {
	return MessagesState{Messages: AppendMessages(s.Messages, update.Messages)}
}

// Last returns the most recent message, if any.
func (s MessagesState) Last() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// AppendMessages concatenates existing and update into a new slice.
// Order is preserved exactly; nothing is removed, reordered or deduplicated.
// The result never aliases existing, so earlier states stay intact.
func AppendMessages(existing, update []Message) []Message {
	if len(update) == 0 && existing != nil {
		return existing
	}
	out := make([]Message, 0, len(existing)+len(update))
	out = append(out, existing...)
	return append(out, update...)
}

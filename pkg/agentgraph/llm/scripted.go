package llm

import (
	"context"
	"errors"
	"sync"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// ErrScriptExhausted is returned when a Scripted reasoner has no replies left.
var ErrScriptExhausted = errors.New("scripted reasoner exhausted")

// Scripted replays a fixed sequence of replies, one per call.
// It records the conversation it was given on each call.
type Scripted struct {
	mu      sync.Mutex
	replies []agentgraph.Message
	calls   [][]agentgraph.Message
}

// Compile-time interface check.
var _ Reasoner = (*Scripted)(nil)

// NewScripted creates a reasoner that returns replies in order.
func NewScripted(replies ...agentgraph.Message) *Scripted {
	return &Scripted{replies: replies}
}

// Reason returns the next scripted reply.
func (s *Scripted) Reason(ctx context.Context, messages []agentgraph.Message, _ []tool.Definition) (agentgraph.Message, error) {
	if err := ctx.Err(); err != nil {
		return agentgraph.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, append([]agentgraph.Message(nil), messages...))
	if len(s.replies) == 0 {
		return agentgraph.Message{}, ErrScriptExhausted
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

// Calls returns the conversations passed to each Reason call.
func (s *Scripted) Calls() [][]agentgraph.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]agentgraph.Message(nil), s.calls...)
}

// Remaining returns the number of unused replies.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}

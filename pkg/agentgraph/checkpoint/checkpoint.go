package checkpoint

import (
	"encoding/json"
	"time"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to checkpoint structure.
const Version = 1

// Checkpoint is the persisted snapshot of a thread.
// State always holds the full cumulative state, never a delta.
type Checkpoint struct {
	// Metadata
	Version   int       `json:"version"`
	ThreadID  string    `json:"thread_id"`
	RunID     string    `json:"run_id,omitempty"`
	NodeID    string    `json:"node_id"`
	Step      int       `json:"step"`
	UpdatedAt time.Time `json:"updated_at"`

	// Conversation state
	State json.RawMessage `json:"state"`
}

// New creates a new checkpoint with the given parameters.
// State must already be JSON-serialized.
func New(threadID, nodeID string, step int, state []byte) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		ThreadID:  threadID,
		NodeID:    nodeID,
		Step:      step,
		UpdatedAt: time.Now().UTC(),
		State:     state,
	}
}

// WithRunID records which run wrote the checkpoint.
func (c *Checkpoint) WithRunID(runID string) *Checkpoint {
	c.RunID = runID
	return c
}

// Marshal serializes a checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

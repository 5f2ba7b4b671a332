package agentgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for graph construction.
var (
	// ErrDuplicateNode indicates a node ID was registered twice.
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrInvalidNode indicates a malformed node ID or a nil node function.
	ErrInvalidNode = errors.New("invalid node")

	// ErrUnknownNode indicates an edge or entry point references an unregistered node.
	ErrUnknownNode = errors.New("unknown node")

	// ErrConflictingRouting indicates a node has both conditional and unconditional
	// outgoing edges, or more than one of either kind.
	ErrConflictingRouting = errors.New("conflicting routing")

	// ErrNoEntryPoint indicates SetEntry() was not called before Compile().
	ErrNoEntryPoint = errors.New("entry point not set")

	// ErrUnreachableNode indicates a node cannot be reached from the entry point.
	ErrUnreachableNode = errors.New("unreachable node")
)

// Sentinel errors for execution.
var (
	// ErrInvalidRoute indicates a router returned something other than a node ID or END.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrRunawayExecution indicates the run exceeded its step bound.
	ErrRunawayExecution = errors.New("runaway execution")

	// ErrConcurrentRun indicates another run is already driving the thread.
	ErrConcurrentRun = errors.New("concurrent run on thread")

	// ErrThreadIDRequired indicates Run() was called with an empty thread ID.
	ErrThreadIDRequired = errors.New("thread ID required")

	// ErrNilContext indicates Run() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")
)

// Sentinel errors for the tool executor.
var (
	// ErrNoPendingToolCalls indicates the tool node ran without an ai message
	// carrying tool calls at the end of the conversation.
	ErrNoPendingToolCalls = errors.New("no pending tool calls")

	// ErrUnknownTool indicates a tool call names a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
)

// Sentinel errors for checkpointing.
var (
	// ErrSerializeState indicates state serialization failed.
	ErrSerializeState = errors.New("failed to serialize state")

	// ErrDeserializeState indicates state deserialization failed.
	ErrDeserializeState = errors.New("failed to deserialize state")

	// ErrCheckpointVersionMismatch indicates the checkpoint version is incompatible.
	ErrCheckpointVersionMismatch = errors.New("checkpoint version mismatch")
)

// CheckpointError wraps errors from checkpoint operations.
type CheckpointError struct {
	// ThreadID is the conversation the checkpoint belongs to.
	ThreadID string
	// NodeID is the node after which checkpointing failed. Empty on load.
	NodeID string
	// Op is the operation that failed ("load", "decode", "serialize", "save").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CheckpointError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("checkpoint %s for thread %s: %v", e.Op, e.ThreadID, e.Err)
	}
	return fmt.Sprintf("checkpoint %s for thread %s at node %s: %v", e.Op, e.ThreadID, e.NodeID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// NodeError wraps an error with node context.
type NodeError struct {
	// NodeID is the identifier of the node that failed.
	NodeID string
	// Op is the operation that failed (e.g., "execute").
	Op string
	// Err is the underlying error from the node.
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from node execution.
type PanicError struct {
	// NodeID is the identifier of the node that panicked.
	NodeID string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value)
}

// CancellationError captures the state when execution was cancelled.
// Cancellation is only observed between steps.
type CancellationError struct {
	// NodeID is the node that was about to execute.
	NodeID string
	// State is the state at cancellation (can type-assert to the actual type).
	State any
	// Cause is context.Canceled or context.DeadlineExceeded.
	Cause error
}

// Error implements the error interface.
func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancelled before node %s: %v", e.NodeID, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CancellationError) Unwrap() error {
	return e.Cause
}

// RouterError wraps errors from edge routing.
type RouterError struct {
	// FromNode is the node whose outgoing edge was evaluated.
	FromNode string
	// Returned is the value the router returned.
	Returned string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RouterError) Error() string {
	if e.Returned == "" {
		return fmt.Sprintf("router from %s: %v", e.FromNode, e.Err)
	}
	return fmt.Sprintf("router from %s returned %q: %v", e.FromNode, e.Returned, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RouterError) Unwrap() error {
	return e.Err
}

// RunawayError is returned when a run exceeds its step bound.
// It points at a router that never reaches END.
type RunawayError struct {
	// Max is the configured step bound.
	Max int
	// NextNodeID is the node that would have executed next.
	NextNodeID string
	// State is the state at termination (can type-assert to the actual type).
	State any
}

// Error implements the error interface.
func (e *RunawayError) Error() string {
	return fmt.Sprintf("exceeded maximum steps (%d) before node %s", e.Max, e.NextNodeID)
}

// Unwrap returns ErrRunawayExecution for errors.Is support.
func (e *RunawayError) Unwrap() error {
	return ErrRunawayExecution
}

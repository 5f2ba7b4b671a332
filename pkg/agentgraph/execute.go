package agentgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
	"go.opentelemetry.io/otel/trace"
)

// Run feeds input into the thread and drives the graph until END.
// Returns the final cumulative state and any error encountered.
//
// The thread's last checkpoint, if any, is loaded and input is merged into
// it; otherwise input is merged into the zero state. Execution always starts
// at the entry point.
//
// Execution flow:
//  1. Check for cancellation
//  2. Execute the current node and merge its partial update
//  3. Persist the full state as the thread's checkpoint
//  4. Determine the next node (via unconditional or conditional edge)
//  5. Repeat until END is reached, an error occurs, or the step bound is hit
//
// On error, returns the state at the point of failure. Everything up to the
// last successful step has already been checkpointed.
func (e *Engine[S]) Run(ctx context.Context, threadID string, input S) (result S, runErr error) {
	if ctx == nil {
		return input, ErrNilContext
	}
	if threadID == "" {
		return input, ErrThreadIDRequired
	}

	release, err := e.acquire(ctx, threadID)
	if err != nil {
		return input, err
	}
	defer release()

	prev, resumed, err := e.loadState(ctx, threadID)
	if err != nil {
		return input, err
	}
	state := prev.Merge(input)

	rc := NewContext(ctx,
		WithContextLogger(e.cfg.logger),
		WithContextThreadID(threadID),
	).(*executionContext)

	startTime := time.Now()
	observability.LogRunStart(e.cfg.logger, threadID, rc.runID, resumed)

	var tracingCtx context.Context = ctx
	if e.cfg.tracingEnabled {
		var runSpan trace.Span
		tracingCtx, runSpan = e.cfg.spans.StartRunSpan(ctx, threadID, rc.runID)
		defer func() {
			e.cfg.spans.EndSpanWithError(runSpan, runErr)
		}()
	}

	var steps int
	var lastNode string
	result, steps, lastNode, runErr = e.runLoop(tracingCtx, rc, state)

	duration := time.Since(startTime)
	e.cfg.metrics.RecordGraphRun(ctx, runErr == nil, duration)

	if runErr != nil {
		observability.LogRunError(e.cfg.logger, threadID, rc.runID, runErr, float64(duration.Milliseconds()), lastNode)
	} else {
		observability.LogRunComplete(e.cfg.logger, threadID, rc.runID, float64(duration.Milliseconds()), steps)
	}

	return result, runErr
}

// runLoop executes nodes from the entry point until END.
// tracingCtx carries span context; rc carries run metadata.
// Returns the final state, number of executed steps, and the last node run.
func (e *Engine[S]) runLoop(tracingCtx context.Context, rc *executionContext, state S) (S, int, string, error) {
	current := e.graph.entryPoint
	lastNode := ""
	step := 0

	for current != END {
		if step >= e.cfg.maxSteps {
			return state, step, lastNode, &RunawayError{
				Max:        e.cfg.maxSteps,
				NextNodeID: current,
				State:      state,
			}
		}

		// Cancellation is observed only between steps
		if err := rc.Err(); err != nil {
			return state, step, lastNode, &CancellationError{
				NodeID: current,
				State:  state,
				Cause:  err,
			}
		}

		step++
		observability.LogNodeStart(e.cfg.logger, current, step)

		nodeTracingCtx := tracingCtx
		var nodeSpan trace.Span
		if e.cfg.tracingEnabled {
			nodeTracingCtx, nodeSpan = e.cfg.spans.StartNodeSpan(tracingCtx, current, step)
		}

		nodeCtx := rc.withNode(current, step)
		nodeCtx.Context = nodeTracingCtx

		nodeStart := time.Now()
		update, nodeErr := e.executeNode(nodeCtx, current, state)
		nodeDuration := time.Since(nodeStart)

		e.cfg.metrics.RecordNodeExecution(nodeTracingCtx, current, nodeDuration, nodeErr)
		if e.cfg.tracingEnabled {
			e.cfg.spans.EndSpanWithError(nodeSpan, nodeErr)
		}

		if nodeErr != nil {
			observability.LogNodeError(e.cfg.logger, current, nodeErr)
			return state, step, current, nodeErr
		}
		observability.LogNodeComplete(e.cfg.logger, current, float64(nodeDuration.Milliseconds()))
		lastNode = current

		state = state.Merge(update)

		if err := e.saveCheckpoint(nodeCtx, current, step, state); err != nil {
			return state, step, current, err
		}

		next, err := e.nextNode(nodeCtx, state, current)
		if err != nil {
			return state, step, current, err
		}
		observability.LogRoute(e.cfg.logger, current, next)

		current = next
	}

	return state, step, lastNode, nil
}

// executeNode executes a single node with panic recovery.
// Returns the node's partial update and any error (including wrapped panics).
func (e *Engine[S]) executeNode(ctx *executionContext, nodeID string, state S) (update S, err error) {
	fn, exists := e.graph.getNode(nodeID)
	if !exists {
		// Unreachable after a successful Compile
		return update, &NodeError{
			NodeID: nodeID,
			Op:     "lookup",
			Err:    fmt.Errorf("%w: %s", ErrUnknownNode, nodeID),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			var zero S
			update = zero
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	update, err = fn(ctx, state)
	if err != nil {
		return update, &NodeError{
			NodeID: nodeID,
			Op:     "execute",
			Err:    err,
		}
	}
	return update, nil
}

// saveCheckpoint persists the full state after a step.
// Checkpoint failures abort the run.
func (e *Engine[S]) saveCheckpoint(ctx *executionContext, nodeID string, step int, state S) error {
	stateBytes, err := json.Marshal(state)
	if err != nil {
		observability.LogCheckpointError(e.cfg.logger, nodeID, "serialize", err)
		return &CheckpointError{
			ThreadID: ctx.threadID,
			NodeID:   nodeID,
			Op:       "serialize",
			Err:      errors.Join(ErrSerializeState, err),
		}
	}

	data, err := checkpoint.New(ctx.threadID, nodeID, step, stateBytes).
		WithRunID(ctx.runID).
		Marshal()
	if err != nil {
		observability.LogCheckpointError(e.cfg.logger, nodeID, "marshal", err)
		return &CheckpointError{ThreadID: ctx.threadID, NodeID: nodeID, Op: "marshal", Err: err}
	}

	if err := e.cfg.store.Save(ctx, ctx.threadID, data); err != nil {
		observability.LogCheckpointError(e.cfg.logger, nodeID, "save", err)
		return &CheckpointError{ThreadID: ctx.threadID, NodeID: nodeID, Op: "save", Err: err}
	}

	observability.LogCheckpoint(e.cfg.logger, nodeID, len(data))
	e.cfg.metrics.RecordCheckpoint(ctx, nodeID, int64(len(data)))
	return nil
}

// nextNode determines the node that follows current.
// Conditional edges take precedence; their result must be a registered node or END.
func (e *Engine[S]) nextNode(ctx *executionContext, state S, current string) (string, error) {
	if router, exists := e.graph.getRouter(current); exists {
		next, err := callRouter(ctx, router, state, current)
		if err != nil {
			return "", err
		}
		if next != END && !e.graph.HasNode(next) {
			return "", &RouterError{
				FromNode: current,
				Returned: next,
				Err:      ErrInvalidRoute,
			}
		}
		return next, nil
	}

	if next, ok := e.graph.getEdge(current); ok {
		return next, nil
	}

	return "", &RouterError{
		FromNode: current,
		Err:      fmt.Errorf("%w: no outgoing edge", ErrInvalidRoute),
	}
}

// callRouter runs a router, turning a panic into a RouterError.
func callRouter[S any](ctx *executionContext, router RouterFunc[S], state S, current string) (next string, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = ""
			err = &RouterError{
				FromNode: current,
				Err: &PanicError{
					NodeID: current,
					Value:  r,
					Stack:  string(debug.Stack()),
				},
			}
		}
	}()
	return router(ctx, state), nil
}

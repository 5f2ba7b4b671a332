package agentgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
)

// Engine drives a CompiledGraph for many independent threads.
//
// Each thread's cumulative state lives in the checkpoint store under its
// thread ID. Runs on different threads may proceed concurrently; a second
// Run on a thread that is already running fails with ErrConcurrentRun.
//
// Example:
//
//	engine := agentgraph.NewEngine(compiled,
//	    agentgraph.WithCheckpointer(store),
//	    agentgraph.WithMaxSteps(10))
//
//	final, err := engine.Run(ctx, "42",
//	    agentgraph.Messages(agentgraph.HumanMessage("what is the weather in sf")))
type Engine[S Mergeable[S]] struct {
	graph *CompiledGraph[S]
	cfg   engineConfig

	mu     sync.Mutex
	active map[string]struct{}
}

// NewEngine creates an engine for the compiled graph.
func NewEngine[S Mergeable[S]](graph *CompiledGraph[S], opts ...EngineOption) *Engine[S] {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = checkpoint.NewMemoryStore()
	}

	return &Engine[S]{
		graph:  graph,
		cfg:    cfg,
		active: make(map[string]struct{}),
	}
}

// Graph returns the compiled graph the engine drives.
func (e *Engine[S]) Graph() *CompiledGraph[S] {
	return e.graph
}

// Store returns the checkpoint store.
func (e *Engine[S]) Store() checkpoint.Store {
	return e.cfg.store
}

// MaxSteps returns the configured step bound.
func (e *Engine[S]) MaxSteps() int {
	return e.cfg.maxSteps
}

// State returns the last persisted state of a thread.
// The boolean is false if the thread has never been checkpointed.
func (e *Engine[S]) State(ctx context.Context, threadID string) (S, bool, error) {
	var zero S
	if ctx == nil {
		return zero, false, ErrNilContext
	}
	if threadID == "" {
		return zero, false, ErrThreadIDRequired
	}
	return e.loadState(ctx, threadID)
}

// Forget deletes the persisted state of a thread.
// Forgetting an unknown thread is not an error.
func (e *Engine[S]) Forget(ctx context.Context, threadID string) error {
	if ctx == nil {
		return ErrNilContext
	}
	if threadID == "" {
		return ErrThreadIDRequired
	}
	if err := e.cfg.store.Delete(ctx, threadID); err != nil {
		return &CheckpointError{ThreadID: threadID, Op: "delete", Err: err}
	}
	return nil
}

// Threads lists every thread with persisted state.
func (e *Engine[S]) Threads(ctx context.Context) ([]checkpoint.Info, error) {
	infos, err := e.cfg.store.List(ctx)
	if err != nil {
		return nil, &CheckpointError{Op: "list", Err: err}
	}
	return infos, nil
}

// acquire marks threadID as running. The returned func releases it.
func (e *Engine[S]) acquire(ctx context.Context, threadID string) (func(), error) {
	e.mu.Lock()
	if _, busy := e.active[threadID]; busy {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrConcurrentRun, threadID)
	}
	e.active[threadID] = struct{}{}
	e.mu.Unlock()

	releaseLocal := func() {
		e.mu.Lock()
		delete(e.active, threadID)
		e.mu.Unlock()
	}

	locker, ok := e.cfg.store.(checkpoint.Locker)
	if !ok {
		return releaseLocal, nil
	}

	unlock, err := locker.Lock(ctx, threadID, e.cfg.lockTTL)
	if err != nil {
		releaseLocal()
		if errors.Is(err, checkpoint.ErrLocked) {
			return nil, fmt.Errorf("%w: %s", ErrConcurrentRun, threadID)
		}
		return nil, &CheckpointError{ThreadID: threadID, Op: "lock", Err: err}
	}

	return func() {
		// The run's context may already be cancelled.
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			e.cfg.logger.Warn("thread unlock failed",
				"thread_id", threadID,
				"error", err.Error())
		}
		releaseLocal()
	}, nil
}

// loadState reads and decodes a thread's checkpoint.
func (e *Engine[S]) loadState(ctx context.Context, threadID string) (S, bool, error) {
	var state S

	data, err := e.cfg.store.Load(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return state, false, nil
	}
	if err != nil {
		return state, false, &CheckpointError{ThreadID: threadID, Op: "load", Err: err}
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return state, false, &CheckpointError{
			ThreadID: threadID,
			Op:       "decode",
			Err:      fmt.Errorf("%w: %v", ErrDeserializeState, err),
		}
	}
	if cp.Version != checkpoint.Version {
		return state, false, &CheckpointError{
			ThreadID: threadID,
			Op:       "decode",
			Err:      fmt.Errorf("%w: got %d, want %d", ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version),
		}
	}
	if err := json.Unmarshal(cp.State, &state); err != nil {
		return state, false, &CheckpointError{
			ThreadID: threadID,
			Op:       "decode",
			Err:      fmt.Errorf("%w: %v", ErrDeserializeState, err),
		}
	}
	return state, true, nil
}

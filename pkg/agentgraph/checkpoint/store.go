// Package checkpoint provides durable, per-thread snapshots of conversation state.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// Store persists the latest checkpoint of each thread.
// Implementations must be safe for concurrent use across distinct thread IDs.
type Store interface {
	// Save stores the checkpoint for a thread, overwriting any previous one.
	Save(ctx context.Context, threadID string, data []byte) error

	// Load retrieves the checkpoint for a thread.
	// Returns ErrNotFound if the thread has no checkpoint.
	Load(ctx context.Context, threadID string) ([]byte, error)

	// List returns metadata for every stored thread, ordered by thread ID.
	// Returns empty slice (not error) if the store is empty.
	List(ctx context.Context) ([]Info, error)

	// Delete removes the checkpoint for a thread.
	// Returns nil if the thread has no checkpoint.
	Delete(ctx context.Context, threadID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// UnlockFunc releases a thread lock acquired with Locker.Lock.
type UnlockFunc func(ctx context.Context) error

// Locker is implemented by stores that can guard a thread against
// concurrent runs, including runs in other processes sharing the backend.
type Locker interface {
	// Lock acquires the thread lock without waiting.
	// Returns ErrLocked if another holder owns it. ttl bounds how long a
	// crashed holder can keep the lock; zero means no expiry.
	Lock(ctx context.Context, threadID string, ttl time.Duration) (UnlockFunc, error)
}

// Info provides metadata without loading full state.
type Info struct {
	ThreadID  string
	UpdatedAt time.Time
	Size      int64
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a checkpoint doesn't exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")

	// ErrLocked indicates the thread is locked by another run.
	ErrLocked = errors.New("thread locked")
)

package checkpoint

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory checkpoint store.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]storedCheckpoint // threadID -> checkpoint
	locks  map[string]uint64           // threadID -> lock generation
	gen    uint64
	closed bool
}

// storedCheckpoint holds checkpoint data with metadata for List().
type storedCheckpoint struct {
	data      []byte
	updatedAt time.Time
}

// Compile-time interface checks.
var (
	_ Store  = (*MemoryStore)(nil)
	_ Locker = (*MemoryStore)(nil)
)

// NewMemoryStore creates a new in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]storedCheckpoint),
		locks: make(map[string]uint64),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, threadID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// Copy data to avoid retaining caller's slice
	stored := make([]byte, len(data))
	copy(stored, data)

	m.data[threadID] = storedCheckpoint{
		data:      stored,
		updatedAt: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, threadID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	cp, ok := m.data[threadID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to prevent modification
	result := make([]byte, len(cp.data))
	copy(result, cp.data)
	return result, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.data))
	for threadID, cp := range m.data {
		infos = append(infos, Info{
			ThreadID:  threadID,
			UpdatedAt: cp.updatedAt,
			Size:      int64(len(cp.data)),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ThreadID < infos[j].ThreadID
	})
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, threadID)
	return nil
}

// Lock implements Locker. The ttl is ignored; locks live until unlocked
// or the store is closed.
func (m *MemoryStore) Lock(_ context.Context, threadID string, _ time.Duration) (UnlockFunc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrStoreClosed
	}
	if _, held := m.locks[threadID]; held {
		return nil, ErrLocked
	}

	m.gen++
	token := m.gen
	m.locks[threadID] = token

	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.locks[threadID] == token {
			delete(m.locks, threadID)
		}
		return nil
	}, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	m.locks = nil
	return nil
}

// Len returns the number of stored threads.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists checkpoints to SQLite.
// Thread locks are kept in the same database file, so processes sharing
// the file also share the locks.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Compile-time interface checks.
var (
	_ Store  = (*SQLiteStore)(nil)
	_ Locker = (*SQLiteStore)(nil)
)

// NewSQLiteStore creates a new SQLite checkpoint store.
// The path should be a file path (e.g., "./threads.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS thread_checkpoints (
			thread_id TEXT PRIMARY KEY,
			updated_at TEXT NOT NULL,
			data BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	// expires_at is unix nanoseconds; 0 never expires.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS thread_locks (
			thread_id TEXT PRIMARY KEY,
			token TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create lock table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, threadID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thread_checkpoints (thread_id, updated_at, data)
		VALUES (?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			data = excluded.data
	`, threadID, time.Now().UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, threadID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM thread_checkpoints
		WHERE thread_id = ?
	`, threadID).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return data, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, updated_at, LENGTH(data)
		FROM thread_checkpoints
		ORDER BY thread_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		var info Info
		var updatedAt string
		if err := rows.Scan(&info.ThreadID, &updatedAt, &info.Size); err != nil {
			return nil, fmt.Errorf("scan checkpoint info: %w", err)
		}
		info.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for thread %s: %w", info.ThreadID, err)
		}
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}
	return infos, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM thread_checkpoints WHERE thread_id = ?
	`, threadID); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Lock implements Locker. An existing lock is only taken over once it has expired.
func (s *SQLiteStore) Lock(ctx context.Context, threadID string, ttl time.Duration) (UnlockFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	now := time.Now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}
	token := uuid.New().String()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO thread_locks (thread_id, token, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			token = excluded.token,
			expires_at = excluded.expires_at
		WHERE thread_locks.expires_at > 0 AND thread_locks.expires_at <= ?
	`, threadID, token, expiresAt, now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("acquire thread lock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("acquire thread lock: %w", err)
	}
	if n == 0 {
		return nil, ErrLocked
	}

	return func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed {
			return ErrStoreClosed
		}
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM thread_locks WHERE thread_id = ? AND token = ?
		`, threadID, token); err != nil {
			return fmt.Errorf("release thread lock: %w", err)
		}
		return nil
	}, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

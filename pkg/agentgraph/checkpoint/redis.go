package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is the key prefix used when none is configured.
const DefaultRedisPrefix = "agentgraph:"

// unlockScript deletes the lock key only if it still holds our token.
const unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// RedisStore persists checkpoints to Redis.
// Checkpoints are stored as plain string values under prefix+"data:"+threadID
// and indexed in a sorted set scored by expiry, so List can skip expired
// threads. Locks live under prefix+"lock:" and the index under prefix+"meta:",
// so no thread id can collide with the store's own keys.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Compile-time interface checks.
var (
	_ Store  = (*RedisStore)(nil)
	_ Locker = (*RedisStore)(nil)
)

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL expires thread checkpoints after ttl. Zero (the default) keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore connects to the Redis server at addr.
func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient creates a store on an existing client.
// Close closes the client.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(threadID string) string {
	return s.prefix + "data:" + threadID
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "meta:index"
}

func (s *RedisStore) lockKey(threadID string) string {
	return s.prefix + "lock:" + threadID
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, threadID string, data []byte) error {
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(threadID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: threadID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, threadID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return data, nil
}

// List implements Store. Expired threads are pruned from the index lazily.
// UpdatedAt is not tracked by this store and is left zero.
func (s *RedisStore) List(ctx context.Context) ([]Info, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("prune expired threads: %w", err)
	}

	threads, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	infos := make([]Info, 0, len(threads))
	for _, threadID := range threads {
		size, err := s.client.StrLen(ctx, s.key(threadID)).Result()
		if err != nil {
			return nil, fmt.Errorf("stat checkpoint %s: %w", threadID, err)
		}
		if size == 0 {
			continue
		}
		infos = append(infos, Info{ThreadID: threadID, Size: size})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ThreadID < infos[j].ThreadID
	})
	return infos, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, threadID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(threadID))
	pipe.ZRem(ctx, s.indexKey(), threadID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Lock implements Locker using SET NX with a random token.
// The returned UnlockFunc only releases the lock if the token still matches.
func (s *RedisStore) Lock(ctx context.Context, threadID string, ttl time.Duration) (UnlockFunc, error) {
	key := s.lockKey(threadID)
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire thread lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func(ctx context.Context) error {
		return s.client.Eval(ctx, unlockScript, []string{key}, token).Err()
	}, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

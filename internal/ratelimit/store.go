package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore counts admissions in redis so the limit holds across
// processes. INCR is atomic, so two concurrent requests cannot both read
// the same pre-increment count.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// Keys are window-bucketed, so the expiry only has to outlive the
	// bucket; twice the window is plenty.
	pipe.Expire(ctx, key, 2*window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// MemoryStore is the single-process store used in tests and when redis is
// not configured.
type MemoryStore struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Time),
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, exp := range s.expires {
		if now.After(exp) {
			delete(s.counts, k)
			delete(s.expires, k)
		}
	}

	if _, ok := s.counts[key]; !ok {
		s.expires[key] = now.Add(2 * window)
	}
	s.counts[key]++
	return s.counts[key], nil
}

package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the shared tier-2 cache. Every call is best-effort: the
// caller decides whether an error degrades to a miss or propagates.
type RedisCache struct {
	rdb *redis.Client

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	s, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		c.misses.Add(1)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		// data corrupt: treat as miss by deleting
		_ = c.rdb.Del(ctx, key).Err()
		c.misses.Add(1)
		return false, nil
	}
	c.hits.Add(1)
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DelPrefix removes every key matching prefix*. SCAN keeps the walk
// incremental so large keyspaces do not block the server.
func (c *RedisCache) DelPrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

// Health pings the server and samples memory/keyspace figures for the
// health surface. Connected=false with zeroed details when unreachable.
func (c *RedisCache) Health(ctx context.Context) Health {
	h := Health{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return h
	}
	h.Connected = true

	if n, err := c.rdb.DBSize(ctx).Result(); err == nil {
		h.KeyCount = n
	}
	if info, err := c.rdb.Info(ctx, "memory").Result(); err == nil {
		for _, line := range strings.Split(info, "\n") {
			if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory_human:"); ok {
				h.MemoryUsed = v
				break
			}
		}
	}
	return h
}

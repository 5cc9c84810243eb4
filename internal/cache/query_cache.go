package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"
)

// Tier2 is the shared, network-accessible side of the query cache.
// RedisCache is the production implementation.
type Tier2 interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DelPrefix(ctx context.Context, prefix string) error
	Health(ctx context.Context) Health
}

type QueryCacheStats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Invalidations uint64 `json:"invalidations"`
	Errors        uint64 `json:"errors"`
}

// maxLocalTTL caps tier-1 entries: tier 1 is process-local, so a short
// TTL bounds how stale one process can be relative to an invalidation
// issued elsewhere.
const maxLocalTTL = 30 * time.Second

// QueryCache is the two-tier cache for derived read results: a cheap
// in-process tier backed by the shared redis tier. A tier-2 failure
// degrades reads to tier-1-only instead of failing the request.
type QueryCache struct {
	local    *LocalCache[[]byte]
	remote   Tier2 // nil when redis is not configured
	recorder Recorder

	hits          atomic.Uint64
	misses        atomic.Uint64
	invalidations atomic.Uint64
	errors        atomic.Uint64
}

func NewQueryCache(local *LocalCache[[]byte], remote Tier2) *QueryCache {
	return &QueryCache{local: local, remote: remote}
}

// Instrument reports every lookup result to r.
func (q *QueryCache) Instrument(r Recorder) { q.recorder = r }

func (q *QueryCache) record(result string) {
	if q.recorder != nil {
		q.recorder.CountCache("query", result)
	}
}

func (q *QueryCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if b, ok := q.local.Get(key); ok {
		if err := json.Unmarshal(b, dst); err == nil {
			q.hits.Add(1)
			q.record("hit_local")
			return true, nil
		}
		q.local.Delete(key)
	}

	if q.remote != nil {
		// A tier-2 hit is returned as-is; tier 1 stays request-local and
		// is not repopulated here.
		hit, err := q.remote.GetJSON(ctx, key, dst)
		if err != nil {
			q.errors.Add(1)
			q.misses.Add(1)
			q.record("error")
			return false, nil
		}
		if hit {
			q.hits.Add(1)
			q.record("hit_remote")
			return true, nil
		}
	}

	q.misses.Add(1)
	q.record("miss")
	return false, nil
}

func (q *QueryCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	localTTL := ttl
	if localTTL > maxLocalTTL {
		localTTL = maxLocalTTL
	}
	q.local.Set(key, b, localTTL)

	if q.remote != nil {
		if err := q.remote.SetJSON(ctx, key, json.RawMessage(b), ttl); err != nil {
			q.errors.Add(1)
		}
	}
	return nil
}

// Invalidate removes the exact keys from both tiers. Called by the
// ingestion/admin collaborator when an entity changes.
func (q *QueryCache) Invalidate(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		q.local.Delete(k)
	}
	q.invalidations.Add(uint64(len(keys)))

	if q.remote != nil {
		if err := q.remote.Del(ctx, keys...); err != nil {
			q.errors.Add(1)
			return err
		}
	}
	return nil
}

// InvalidatePrefix removes every key under prefix from both tiers.
func (q *QueryCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	q.local.DeletePrefix(prefix)
	q.invalidations.Add(1)

	if q.remote != nil {
		if err := q.remote.DelPrefix(ctx, prefix); err != nil {
			q.errors.Add(1)
			return err
		}
	}
	return nil
}

func (q *QueryCache) Stats() QueryCacheStats {
	return QueryCacheStats{
		Hits:          q.hits.Load(),
		Misses:        q.misses.Load(),
		Invalidations: q.invalidations.Load(),
		Errors:        q.errors.Load(),
	}
}

// Health reports the tier-2 probe; with no remote configured the cache is
// tier-1-only and reported as disconnected.
func (q *QueryCache) Health(ctx context.Context) Health {
	if q.remote == nil {
		return Health{}
	}
	return q.remote.Health(ctx)
}

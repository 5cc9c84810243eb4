package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Embedder computes a vector for a text. The OpenAI provider implements it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type EmbeddingCacheStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Size    int    `json:"size"`
	MaxSize int64  `json:"maxSize"`
}

const embeddingTTL = 24 * time.Hour

// EmbeddingCache memoizes text->vector computations behind a bounded LRU.
// Concurrent misses for the same text collapse into one provider call via
// singleflight; a cancelled caller does not poison the shared entry because
// the stored vector is a valid general-purpose result.
type EmbeddingCache struct {
	provider Embedder
	store    *LocalCache[[]float32]
	group    singleflight.Group
	recorder Recorder

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewEmbeddingCache(provider Embedder, maxSize int64) *EmbeddingCache {
	return &EmbeddingCache{
		provider: provider,
		store:    NewLocalCache[[]float32](maxSize),
	}
}

// Instrument reports every lookup result to r.
func (c *EmbeddingCache) Instrument(r Recorder) { c.recorder = r }

func (c *EmbeddingCache) record(result string) {
	if c.recorder != nil {
		c.recorder.CountCache("embedding", result)
	}
}

func embeddingKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Embed is read-through: a miss computes via the provider, stores the
// result, then returns it.
func (c *EmbeddingCache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := embeddingKey(text)

	if v, ok := c.store.Get(key); ok {
		c.hits.Add(1)
		c.record("hit")
		return v, nil
	}
	c.misses.Add(1)
	c.record("miss")

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}
		vec, err := c.provider.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, vec, embeddingTTL)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float32), nil
}

func (c *EmbeddingCache) Stats() EmbeddingCacheStats {
	return EmbeddingCacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Size:    c.store.Len(),
		MaxSize: c.store.MaxSize(),
	}
}

func (c *EmbeddingCache) Stop() { c.store.Stop() }

package cache

import (
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"
)

const defaultLocalCacheSize = 10000

// LocalCache is a bounded in-process cache with TTL expiry and LRU
// eviction. It is the tier-1 store of the query cache and the backing
// store of the embedding cache.
type LocalCache[T any] struct {
	cc        *ccache.Cache[T]
	maxSize   int64
	closeOnce sync.Once
}

func NewLocalCache[T any](maxSize int64) *LocalCache[T] {
	if maxSize <= 0 {
		maxSize = defaultLocalCacheSize
	}
	return &LocalCache[T]{
		cc:      ccache.New(ccache.Configure[T]().MaxSize(maxSize)),
		maxSize: maxSize,
	}
}

func (c *LocalCache[T]) Get(key string) (T, bool) {
	var zero T
	item := c.cc.Get(key)
	if item == nil || item.Expired() {
		return zero, false
	}
	return item.Value(), true
}

func (c *LocalCache[T]) Set(key string, value T, ttl time.Duration) {
	c.cc.Set(key, value, ttl)
}

func (c *LocalCache[T]) Delete(key string) {
	c.cc.Delete(key)
}

func (c *LocalCache[T]) DeletePrefix(prefix string) int {
	return c.cc.DeletePrefix(prefix)
}

func (c *LocalCache[T]) Len() int { return c.cc.ItemCount() }

func (c *LocalCache[T]) MaxSize() int64 { return c.maxSize }

func (c *LocalCache[T]) Stop() {
	c.closeOnce.Do(func() { c.cc.Stop() })
}

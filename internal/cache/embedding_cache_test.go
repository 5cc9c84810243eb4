package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls atomic.Int64
	gate  chan struct{} // when set, Embed blocks until the gate closes
	err   error
}

func (p *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	p.calls.Add(1)
	if p.gate != nil {
		<-p.gate
	}
	if p.err != nil {
		return nil, p.err
	}
	return []float32{float32(len(text))}, nil
}

func TestEmbeddingCacheReadThrough(t *testing.T) {
	p := &countingEmbedder{}
	c := NewEmbeddingCache(p, 100)
	defer c.Stop()

	v1, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	v2, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(1), p.calls.Load())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestEmbeddingCacheCollapsesConcurrentMisses(t *testing.T) {
	p := &countingEmbedder{gate: make(chan struct{})}
	c := NewEmbeddingCache(p, 100)
	defer c.Stop()

	const workers = 8
	var wg sync.WaitGroup
	results := make([][]float32, workers)

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Embed(context.Background(), "same text")
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	close(p.gate)
	wg.Wait()

	assert.Equal(t, int64(1), p.calls.Load())
	for _, v := range results {
		assert.Equal(t, results[0], v)
	}
}

func TestEmbeddingCacheErrorNotCached(t *testing.T) {
	p := &countingEmbedder{err: errors.New("quota exceeded")}
	c := NewEmbeddingCache(p, 100)
	defer c.Stop()

	_, err := c.Embed(context.Background(), "text")
	require.Error(t, err)

	p.err = nil
	v, err := c.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.NotEmpty(t, v)
	assert.Equal(t, int64(2), p.calls.Load())
}

func TestEmbeddingCacheDistinctTexts(t *testing.T) {
	p := &countingEmbedder{}
	c := NewEmbeddingCache(p, 100)
	defer c.Stop()

	_, err := c.Embed(context.Background(), "one")
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), "two")
	require.NoError(t, err)

	assert.Equal(t, int64(2), p.calls.Load())
}

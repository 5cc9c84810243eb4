package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/metrics"
)

func TestEmbeddingCacheReportsLookupResults(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := NewEmbeddingCache(&countingEmbedder{}, 100)
	defer c.Stop()
	c.Instrument(m)

	_, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	_, err = c.Embed(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("embedding", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("embedding", "hit")))
}

func TestQueryCacheReportsLookupResults(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	remote := newFakeTier2()
	qc := newTestQueryCache(remote)
	qc.Instrument(m)

	var got string
	hit, err := qc.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, qc.SetJSON(context.Background(), "k", "v", time.Minute))
	hit, err = qc.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)

	remote.data["r"] = json.RawMessage(`"remote"`)
	hit, err = qc.GetJSON(context.Background(), "r", &got)
	require.NoError(t, err)
	assert.True(t, hit)

	remote.err = errors.New("redis down")
	hit, err = qc.GetJSON(context.Background(), "gone", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("query", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("query", "hit_local")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("query", "hit_remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues("query", "error")))
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTier2 struct {
	data map[string]json.RawMessage
	err  error

	gets, sets, dels int
}

func newFakeTier2() *fakeTier2 {
	return &fakeTier2{data: map[string]json.RawMessage{}}
}

func (f *fakeTier2) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	f.gets++
	if f.err != nil {
		return false, f.err
	}
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (f *fakeTier2) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	f.sets++
	if f.err != nil {
		return f.err
	}
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	f.data[key] = b
	return nil
}

func (f *fakeTier2) Del(_ context.Context, keys ...string) error {
	f.dels++
	if f.err != nil {
		return f.err
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeTier2) DelPrefix(_ context.Context, prefix string) error {
	if f.err != nil {
		return f.err
	}
	for k := range f.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(f.data, k)
		}
	}
	return nil
}

func (f *fakeTier2) Health(context.Context) Health {
	return Health{Connected: f.err == nil}
}

func newTestQueryCache(remote Tier2) *QueryCache {
	return NewQueryCache(NewLocalCache[[]byte](100), remote)
}

func TestQueryCacheSetThenGet(t *testing.T) {
	remote := newFakeTier2()
	qc := newTestQueryCache(remote)

	require.NoError(t, qc.SetJSON(context.Background(), "k", []string{"a", "b"}, time.Minute))

	var got []string
	hit, err := qc.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestQueryCacheTierTwoHitDoesNotPopulateTierOne(t *testing.T) {
	remote := newFakeTier2()
	remote.data["k"] = json.RawMessage(`"remote value"`)
	qc := newTestQueryCache(remote)

	var got string
	hit, err := qc.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "remote value", got)

	// With tier 2 now failing, a repopulated tier 1 would still hit. It
	// must miss instead.
	remote.err = errors.New("redis down")
	hit, err = qc.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestQueryCacheDegradesWhenTierTwoFails(t *testing.T) {
	remote := newFakeTier2()
	remote.err = errors.New("redis down")
	qc := newTestQueryCache(remote)

	var got string
	hit, err := qc.GetJSON(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, uint64(1), qc.Stats().Errors)

	// Writes still land in tier 1 and serve subsequent reads.
	require.NoError(t, qc.SetJSON(context.Background(), "k", "v", time.Minute))
	hit, err = qc.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", got)
}

func TestQueryCacheInvalidateBothTiers(t *testing.T) {
	remote := newFakeTier2()
	qc := newTestQueryCache(remote)

	require.NoError(t, qc.SetJSON(context.Background(), "k", "v", time.Minute))
	require.NoError(t, qc.Invalidate(context.Background(), "k"))

	var got string
	hit, err := qc.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, remote.data)
}

func TestQueryCacheInvalidatePrefix(t *testing.T) {
	remote := newFakeTier2()
	qc := newTestQueryCache(remote)

	require.NoError(t, qc.SetJSON(context.Background(), "videos:c1", "a", time.Minute))
	require.NoError(t, qc.SetJSON(context.Background(), "videos:c2", "b", time.Minute))
	require.NoError(t, qc.SetJSON(context.Background(), "courses:all", "c", time.Minute))

	require.NoError(t, qc.InvalidatePrefix(context.Background(), "videos:"))

	var got string
	hit, _ := qc.GetJSON(context.Background(), "videos:c1", &got)
	assert.False(t, hit)
	hit, _ = qc.GetJSON(context.Background(), "videos:c2", &got)
	assert.False(t, hit)
	hit, _ = qc.GetJSON(context.Background(), "courses:all", &got)
	assert.True(t, hit)
}

func TestQueryCacheNoRemote(t *testing.T) {
	qc := newTestQueryCache(nil)

	require.NoError(t, qc.SetJSON(context.Background(), "k", 42, time.Minute))

	var got int
	hit, err := qc.GetJSON(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, got)

	assert.False(t, qc.Health(context.Background()).Connected)
}

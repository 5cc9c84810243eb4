package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/repositories/postgres"
)

type fakeChunkRepo struct {
	chunks     []models.TranscriptChunk
	scored     []postgres.ScoredChunk
	listErr    error
	nearestErr error

	listCalls    int
	nearestCalls int
}

func (f *fakeChunkRepo) ListByVideo(_ context.Context, _ string) ([]models.TranscriptChunk, error) {
	f.listCalls++
	return f.chunks, f.listErr
}

func (f *fakeChunkRepo) NearestByEmbedding(_ context.Context, _ string, _ []float32, _ int) ([]postgres.ScoredChunk, error) {
	f.nearestCalls++
	return f.scored, f.nearestErr
}

func (f *fakeChunkRepo) Ping(context.Context) error { return nil }

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) { return f.vec, f.err }

func quietLog() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestRetrieveVectorPath(t *testing.T) {
	repo := &fakeChunkRepo{
		scored: []postgres.ScoredChunk{
			{TranscriptChunk: models.TranscriptChunk{ID: "a", Text: "closest"}, Distance: 0.1},
			{TranscriptChunk: models.TranscriptChunk{ID: "b", Text: "further"}, Distance: 0.4},
		},
	}
	e := NewEngine(repo, &fakeEmbedder{vec: []float32{0.5, 0.5}}, quietLog())

	got, err := e.Retrieve(context.Background(), "query", "v1", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Chunk.ID)
	assert.InDelta(t, 0.9, got[0].Score, 1e-9)
	assert.Equal(t, 0, repo.listCalls)
}

func TestRetrieveFallsBackWhenEmbeddingFails(t *testing.T) {
	repo := &fakeChunkRepo{
		chunks: []models.TranscriptChunk{
			{ID: "a", Text: "gradient descent minimizes the loss", StartTime: 5},
		},
	}
	e := NewEngine(repo, &fakeEmbedder{err: errors.New("provider down")}, quietLog())

	got, err := e.Retrieve(context.Background(), "gradient descent", "v1", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Chunk.ID)
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, 0, repo.nearestCalls)
}

func TestRetrieveFallsBackWhenIndexEmpty(t *testing.T) {
	repo := &fakeChunkRepo{
		chunks: []models.TranscriptChunk{
			{ID: "a", Text: "backpropagation explained"},
		},
	}
	e := NewEngine(repo, &fakeEmbedder{vec: []float32{1}}, quietLog())

	got, err := e.Retrieve(context.Background(), "backpropagation", "v1", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, repo.nearestCalls)
	assert.Equal(t, 1, repo.listCalls)
}

func TestRetrieveNoEmbedderUsesKeyword(t *testing.T) {
	repo := &fakeChunkRepo{
		chunks: []models.TranscriptChunk{{ID: "a", Text: "entropy and information"}},
	}
	e := NewEngine(repo, nil, quietLog())

	got, err := e.Retrieve(context.Background(), "entropy", "v1", 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 0, repo.nearestCalls)
}

func TestRetrieveEmptyQueryOrScope(t *testing.T) {
	repo := &fakeChunkRepo{}
	e := NewEngine(repo, nil, quietLog())

	got, err := e.Retrieve(context.Background(), "  ", "v1", 5)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = e.Retrieve(context.Background(), "query", "", 5)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, 0, repo.listCalls)
}

func TestRetrieveFallbackListError(t *testing.T) {
	repo := &fakeChunkRepo{listErr: errors.New("db down")}
	e := NewEngine(repo, nil, quietLog())

	_, err := e.Retrieve(context.Background(), "query", "v1", 5)
	assert.Error(t, err)
}

package retrieval

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
	"github.com/booya1986/Learn-With-Avi-sub003/internal/repositories/postgres"
)

// DefaultTopK is the passage budget handed to generation.
const DefaultTopK = 5

// Embedder is the query-embedding dependency; the embedding cache
// implements it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Engine turns a natural-language query plus a video scope into ranked
// transcript passages. The vector path is preferred; when it fails or the
// scoped index is empty the engine falls back to keyword scoring over the
// video's chunks. A missing index is never an error.
type Engine struct {
	chunks   postgres.ChunkRepo
	embedder Embedder // nil when embeddings are not configured
	log      *logrus.Logger
}

func NewEngine(chunks postgres.ChunkRepo, embedder Embedder, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{chunks: chunks, embedder: embedder, log: log}
}

func (e *Engine) Retrieve(ctx context.Context, query, videoID string, topK int) ([]models.RetrievedPassage, error) {
	query = strings.TrimSpace(query)
	if query == "" || videoID == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	if passages, ok := e.vectorSearch(ctx, query, videoID, topK); ok {
		return passages, nil
	}

	all, err := e.chunks.ListByVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"video_id": videoID,
		"strategy": "keyword",
		"chunks":   len(all),
	}).Debug("retrieval fallback")
	return KeywordSearch(all, query, topK), nil
}

// vectorSearch returns ok=false whenever the keyword fallback should run.
func (e *Engine) vectorSearch(ctx context.Context, query, videoID string, topK int) ([]models.RetrievedPassage, bool) {
	if e.embedder == nil {
		return nil, false
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.log.WithError(err).Warn("query embedding failed, falling back to keyword search")
		return nil, false
	}

	rows, err := e.chunks.NearestByEmbedding(ctx, videoID, vec, topK)
	if err != nil {
		e.log.WithError(err).Warn("vector search failed, falling back to keyword search")
		return nil, false
	}
	if len(rows) == 0 {
		return nil, false
	}

	passages := make([]models.RetrievedPassage, 0, len(rows))
	for _, r := range rows {
		passages = append(passages, models.RetrievedPassage{
			Chunk: r.TranscriptChunk,
			Score: 1 - r.Distance,
		})
	}
	return passages, true
}

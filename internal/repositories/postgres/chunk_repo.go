package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
)

// ScoredChunk is a chunk with its cosine distance to the query vector.
type ScoredChunk struct {
	models.TranscriptChunk `gorm:"embedded"`
	Distance               float64 `gorm:"column:distance"`
}

type ChunkRepo interface {
	ListByVideo(ctx context.Context, videoID string) ([]models.TranscriptChunk, error)
	NearestByEmbedding(ctx context.Context, videoID string, embedding []float32, limit int) ([]ScoredChunk, error)
	Ping(ctx context.Context) error
}

type chunkRepo struct {
	db *gorm.DB
}

func NewChunkRepo(db *gorm.DB) ChunkRepo {
	return &chunkRepo{db: db}
}

func (r *chunkRepo) ListByVideo(ctx context.Context, videoID string) ([]models.TranscriptChunk, error) {
	var rows []models.TranscriptChunk
	err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("start_time ASC").
		Find(&rows).Error
	return rows, err
}

func (r *chunkRepo) NearestByEmbedding(ctx context.Context, videoID string, embedding []float32, limit int) ([]ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []ScoredChunk
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, video_id, text, start_time, end_time, metadata,
		       embedding <=> ? AS distance
		FROM transcript_chunks
		WHERE video_id = ? AND embedding IS NOT NULL
		ORDER BY distance ASC
		LIMIT ?`,
		pgvector.NewVector(embedding), videoID, limit,
	).Scan(&rows).Error
	return rows, err
}

func (r *chunkRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

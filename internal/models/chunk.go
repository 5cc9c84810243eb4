package models

import (
	"sort"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// TranscriptChunk is a fixed time-bounded segment of a video's transcript.
// Chunks are created by the ingestion tooling and read-only here; they are
// the unit of retrieval and of citation.
type TranscriptChunk struct {
	ID        string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	VideoID   string          `gorm:"column:video_id;type:uuid;index" json:"videoId"`
	Text      string          `gorm:"column:text;type:text" json:"text"`
	StartTime float64         `gorm:"column:start_time" json:"startTime"`
	EndTime   float64         `gorm:"column:end_time" json:"endTime"`
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(1536)" json:"-"`
	Metadata  datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
}

func (TranscriptChunk) TableName() string { return "transcript_chunks" }

// RetrievedPassage pairs a chunk with its relevance score for one query.
type RetrievedPassage struct {
	Chunk TranscriptChunk `json:"chunk"`
	Score float64         `json:"score"`
}

// ChunksInWindow returns the chunks overlapping [t-60, t+30] around the
// current playback time, sorted by start time with duplicates removed.
func ChunksInWindow(chunks []TranscriptChunk, t float64) []TranscriptChunk {
	lo, hi := t-60, t+30

	seen := make(map[string]struct{}, len(chunks))
	out := make([]TranscriptChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.EndTime < lo || c.StartTime > hi {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

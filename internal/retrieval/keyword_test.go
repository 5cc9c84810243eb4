package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
)

func chunk(id, text string, start float64) models.TranscriptChunk {
	return models.TranscriptChunk{ID: id, VideoID: "v1", Text: text, StartTime: start, EndTime: start + 30}
}

func TestKeywordSearchPhraseMatchOutranksTermMatches(t *testing.T) {
	chunks := []models.TranscriptChunk{
		chunk("c1", "Retrieval augmented generation, or RAG, combines search with a language model.", 10),
		chunk("c2", "Generation of electricity is covered in the next lesson.", 40),
		chunk("c3", "Totally unrelated content about cooking pasta.", 70),
	}

	got := KeywordSearch(chunks, "What is retrieval augmented generation?", 5)
	require.Len(t, got, 2)

	// Phrase plus all three terms on the first chunk.
	assert.Equal(t, "c1", got[0].Chunk.ID)
	assert.Equal(t, 13.0, got[0].Score)

	assert.Equal(t, "c2", got[1].Chunk.ID)
	assert.Equal(t, 1.0, got[1].Score)
}

func TestKeywordSearchStopwordsDoNotMatch(t *testing.T) {
	chunks := []models.TranscriptChunk{
		chunk("c1", "This is the lesson where we cover it.", 0),
	}

	// Every query term is a stopword.
	assert.Nil(t, KeywordSearch(chunks, "what is the", 5))
}

func TestKeywordSearchDeterministicTieBreak(t *testing.T) {
	chunks := []models.TranscriptChunk{
		chunk("late", "gradient descent", 90),
		chunk("early", "gradient descent", 30),
	}

	for range 20 {
		got := KeywordSearch(chunks, "gradient descent", 5)
		require.Len(t, got, 2)
		assert.Equal(t, "early", got[0].Chunk.ID)
		assert.Equal(t, "late", got[1].Chunk.ID)
	}
}

func TestKeywordSearchTopK(t *testing.T) {
	chunks := []models.TranscriptChunk{
		chunk("c1", "neuron one", 0),
		chunk("c2", "neuron two", 30),
		chunk("c3", "neuron three", 60),
	}

	got := KeywordSearch(chunks, "neuron", 2)
	assert.Len(t, got, 2)
}

func TestKeywordSearchEmptyInputs(t *testing.T) {
	assert.Nil(t, KeywordSearch(nil, "anything", 5))
	assert.Nil(t, KeywordSearch([]models.TranscriptChunk{chunk("c1", "text", 0)}, "", 5))
}

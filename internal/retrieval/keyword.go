package retrieval

import (
	"sort"
	"strings"
	"unicode"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
)

const (
	phraseWeight = 10
	termWeight   = 1
)

// Filler words carry no signal for transcript matching; they are dropped
// before the phrase and term checks so "what is X" still phrase-matches a
// chunk that only contains X.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "can": {}, "do": {}, "does": {},
	"how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "this": {}, "to": {}, "was": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "who": {}, "why": {}, "you": {},
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func queryTerms(query string) []string {
	var terms []string
	for _, t := range tokenize(query) {
		if _, skip := stopwords[t]; skip {
			continue
		}
		terms = append(terms, t)
	}
	return terms
}

// KeywordSearch ranks chunks against the query without any vector index:
// a substring match of the full normalized query scores phraseWeight, each
// individually matched term adds termWeight, chunks with no match are
// excluded. Deterministic, O(chunks x terms).
func KeywordSearch(chunks []models.TranscriptChunk, query string, topK int) []models.RetrievedPassage {
	terms := queryTerms(query)
	if len(terms) == 0 || len(chunks) == 0 {
		return nil
	}
	phrase := strings.Join(terms, " ")

	passages := make([]models.RetrievedPassage, 0, len(chunks))
	for _, c := range chunks {
		normText := strings.Join(tokenize(c.Text), " ")

		score := 0.0
		if strings.Contains(normText, phrase) {
			score += phraseWeight
		}
		for _, t := range terms {
			if strings.Contains(normText, t) {
				score += termWeight
			}
		}
		if score == 0 {
			continue
		}
		passages = append(passages, models.RetrievedPassage{Chunk: c, Score: score})
	}

	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].Score != passages[j].Score {
			return passages[i].Score > passages[j].Score
		}
		return passages[i].Chunk.StartTime < passages[j].Chunk.StartTime
	})

	if topK > 0 && len(passages) > topK {
		passages = passages[:topK]
	}
	return passages
}

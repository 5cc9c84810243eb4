package pipeline

import "strings"

func isTerminator(r byte) bool {
	return r == '.' || r == '!' || r == '?'
}

// SentenceSplitter accumulates streamed tokens and yields sentences as
// their terminal punctuation arrives, so synthesis can start before the
// answer is complete. It is a pure buffer: no callbacks, no side effects.
type SentenceSplitter struct {
	buf strings.Builder
}

// Feed appends a token chunk and returns any sentences completed by it.
func (s *SentenceSplitter) Feed(chunk string) []string {
	s.buf.WriteString(chunk)
	text := s.buf.String()

	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}
		// Swallow runs of terminators ("?!", "...") as one boundary.
		end := i + 1
		for end < len(text) && isTerminator(text[end]) {
			end++
		}
		if sent := strings.TrimSpace(text[start:end]); sent != "" {
			sentences = append(sentences, sent)
		}
		start = end
		i = end - 1
	}

	s.buf.Reset()
	s.buf.WriteString(text[start:])
	return sentences
}

// Flush returns whatever trailing text never saw a terminator.
func (s *SentenceSplitter) Flush() string {
	rem := strings.TrimSpace(s.buf.String())
	s.buf.Reset()
	return rem
}

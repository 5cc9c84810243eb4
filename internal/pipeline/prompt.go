package pipeline

import (
	"fmt"
	"strings"

	"github.com/booya1986/Learn-With-Avi-sub003/internal/models"
)

const tutorSystemPrompt = `You are a voice AI tutor for an educational video platform.

Rules for your answers:
1. Keep answers CONCISE (2-4 sentences) - learners are listening, not reading.
2. Use SIMPLE, conversational language; explain terms you must use.
3. Ground every answer in the transcript excerpts provided below.
4. If the excerpts do not contain the answer, say: "I don't have that information in the current lesson." Do not guess.
5. Answer in the language the learner asked in (Hebrew or English).`

const noContextNote = "No relevant transcript content was found for this question. " +
	"Tell the learner you don't have that information in the current lesson."

// BuildPrompt assembles the grounded generation prompt: system rules,
// transcript excerpts (or the explicit nothing-found note), bounded
// history, then the question.
func BuildPrompt(passages []models.RetrievedPassage, history []models.ChatTurn, question, videoContext string) string {
	var b strings.Builder
	b.WriteString(tutorSystemPrompt)
	b.WriteString("\n\n")

	if videoContext != "" {
		fmt.Fprintf(&b, "Current lesson: %s\n\n", videoContext)
	}

	b.WriteString("Transcript excerpts:\n---\n")
	if len(passages) == 0 {
		b.WriteString(noContextNote)
		b.WriteString("\n")
	} else {
		for _, p := range passages {
			fmt.Fprintf(&b, "[%s - %s] %s\n",
				formatTimestamp(p.Chunk.StartTime),
				formatTimestamp(p.Chunk.EndTime),
				strings.TrimSpace(p.Chunk.Text))
		}
	}
	b.WriteString("---\n\n")

	for _, t := range models.BoundHistory(history) {
		role := "Learner"
		if t.Role == models.RoleAssistant {
			role = "Tutor"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
	}

	fmt.Fprintf(&b, "\nLearner question: %s", question)
	return b.String()
}

func formatTimestamp(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

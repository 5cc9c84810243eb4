package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// MaxHistoryTurns bounds the conversation history so the prompt stays
	// small; oldest turns are dropped first.
	MaxHistoryTurns = 12

	// MaxTurnRunes bounds a single turn accepted at the API boundary.
	MaxTurnRunes = 2000
)

// ChatTurn is one message in a conversation. Immutable once appended.
type ChatTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// BoundHistory truncates oversized turns and drops the oldest turns beyond
// MaxHistoryTurns. Turns with unknown roles or empty content are removed.
func BoundHistory(turns []ChatTurn) []ChatTurn {
	out := make([]ChatTurn, 0, len(turns))
	for _, t := range turns {
		if t.Content == "" {
			continue
		}
		if t.Role != RoleUser && t.Role != RoleAssistant {
			continue
		}
		if r := []rune(t.Content); len(r) > MaxTurnRunes {
			t.Content = string(r[:MaxTurnRunes])
		}
		out = append(out, t)
	}
	if len(out) > MaxHistoryTurns {
		out = out[len(out)-MaxHistoryTurns:]
	}
	return out
}

// LatencyReport is the per-request latency breakdown attached to the
// terminal stream event. LlmMs is time to first token, not total
// generation time: the model may spend a while on the prompt prefix
// before emitting anything.
type LatencyReport struct {
	SttMs   int64 `json:"sttMs"`
	RagMs   int64 `json:"ragMs"`
	LlmMs   int64 `json:"llmMs"`
	TtsMs   int64 `json:"ttsMs"`
	TotalMs int64 `json:"totalMs"`
}

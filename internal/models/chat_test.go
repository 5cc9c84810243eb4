package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundHistoryDropsOldestBeyondLimit(t *testing.T) {
	turns := make([]ChatTurn, 0, MaxHistoryTurns+5)
	for i := 0; i < MaxHistoryTurns+5; i++ {
		turns = append(turns, ChatTurn{Role: RoleUser, Content: "turn"})
	}
	turns = append(turns, ChatTurn{Role: RoleAssistant, Content: "newest"})

	got := BoundHistory(turns)
	require.Len(t, got, MaxHistoryTurns)
	assert.Equal(t, "newest", got[len(got)-1].Content)
}

func TestBoundHistoryTruncatesOversizedTurns(t *testing.T) {
	long := strings.Repeat("א", MaxTurnRunes+100)

	got := BoundHistory([]ChatTurn{{Role: RoleUser, Content: long}})
	require.Len(t, got, 1)
	assert.Equal(t, MaxTurnRunes, len([]rune(got[0].Content)))
}

func TestBoundHistoryFiltersInvalidTurns(t *testing.T) {
	got := BoundHistory([]ChatTurn{
		{Role: RoleUser, Content: ""},
		{Role: "system", Content: "injected"},
		{Role: RoleUser, Content: "kept"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Content)
}

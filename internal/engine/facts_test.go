package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/touchline/internal/match"
)

func TestDeriveGoalFacts(t *testing.T) {
	tl := BuildTimeline([]match.Goal{
		goal("g3", 80, "p9", "", 3),
		goal("g1", 10, "p9", "", 1),
		{ID: "g2", MatchID: testMatch, Minute: 40, Opponent: true, GoalKind: match.GoalPenalty, RecordedAt: at(2)},
		{ID: "g4", MatchID: testMatch, Minute: 85, Opponent: true, GoalKind: match.GoalOpenPlay, RecordedAt: at(4)},
	}, nil, nil)

	facts := DeriveGoalFacts(tl)

	assert.Equal(t, []GoalFact{
		{GoalID: "g1", Sequence: 1, StateAtGoal: match.StateDrawing},
		{GoalID: "g2", Sequence: 2, StateAtGoal: match.StateWinning},
		{GoalID: "g3", Sequence: 3, StateAtGoal: match.StateDrawing},
		{GoalID: "g4", Sequence: 4, StateAtGoal: match.StateWinning},
	}, facts)
}

func TestDeriveGoalFacts_NoGoals(t *testing.T) {
	tl := BuildTimeline(nil, []match.Card{card("c1", 10, "p1", match.CardYellow, 1)}, nil)

	assert.Empty(t, DeriveGoalFacts(tl))
}

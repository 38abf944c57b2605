package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
)

func TestSaveGoalFacts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createStartedGame(t, s, "m1")
	require.NoError(t, s.InsertGoal(ctx, testGoal("g1", "m1", 10, "p9", 0)))
	require.NoError(t, s.InsertGoal(ctx, testGoal("g2", "m1", 50, "p9", 0)))

	require.NoError(t, s.SaveGoalFacts(ctx, "m1", []engine.GoalFact{
		{GoalID: "g1", Sequence: 1, StateAtGoal: match.StateDrawing},
		{GoalID: "g2", Sequence: 2, StateAtGoal: match.StateWinning},
	}))

	goals, err := s.Goals(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, 1, goals[0].Sequence)
	assert.Equal(t, match.StateDrawing, goals[0].StateAtGoal)
	assert.Equal(t, 2, goals[1].Sequence)
	assert.Equal(t, match.StateWinning, goals[1].StateAtGoal)
}

func TestSavePlayerStats_WritesRosterAndStats(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createStartedGame(t, s, "m1")

	stats := []match.PlayerStats{
		{PlayerID: "b1", Minutes: 30, Goals: 1, Appeared: true},
		{PlayerID: "b2", Minutes: 0},
		{PlayerID: "p1", Minutes: 60, Assists: 1, Appeared: true},
	}
	require.NoError(t, s.SavePlayerStats(ctx, "m1", stats))

	got, err := s.PlayerStats(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	roster, err := s.Roster(ctx, "m1")
	require.NoError(t, err)
	byID := make(map[string]match.RosterEntry)
	for _, e := range roster {
		byID[e.PlayerID] = e
	}
	assert.Equal(t, 30, byID["b1"].MinutesPlayed)
	assert.True(t, byID["b1"].Appeared)
	assert.Equal(t, 60, byID["p1"].MinutesPlayed)
	assert.False(t, byID["b2"].Appeared)
	assert.Equal(t, match.SquadBench, byID["b1"].Status, "status is never rewritten")
}

func TestSavePlayerStats_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createStartedGame(t, s, "m1")
	stats := []match.PlayerStats{{PlayerID: "p1", Minutes: 90, Appeared: true}}

	require.NoError(t, s.SavePlayerStats(ctx, "m1", stats))
	require.NoError(t, s.SavePlayerStats(ctx, "m1", stats))

	got, err := s.PlayerStats(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, stats, got)
}

func TestSavePlayerStats_ReplacesPrevious(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createStartedGame(t, s, "m1")

	require.NoError(t, s.SavePlayerStats(ctx, "m1", []match.PlayerStats{{PlayerID: "p1", Minutes: 90, Goals: 2}}))
	require.NoError(t, s.SavePlayerStats(ctx, "m1", []match.PlayerStats{{PlayerID: "p2", Minutes: 90}}))

	got, err := s.PlayerStats(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []match.PlayerStats{{PlayerID: "p2", Minutes: 90}}, got)
}

func TestPlayerStats_EmptyBeforeRecalc(t *testing.T) {
	s := createTestStore(t)
	createStartedGame(t, s, "m1")

	got, err := s.PlayerStats(context.Background(), "m1")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
)

func TestCreateGame_Defaults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, match.Game{ID: "m1"}, t0))

	g, err := s.Game(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, match.Game{
		ID:                "m1",
		Status:            match.StatusScheduled,
		RegulationMinutes: 90,
	}, g)
	assert.Equal(t, 90, g.Duration())
}

func TestCreateGame_Timing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, match.Game{ID: "m1", StoppageMinutes: 6, ExtraTime: true}, t0))
	require.NoError(t, s.UpdateTiming(ctx, "m1", 4, true))

	g, err := s.Game(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 124, g.Duration())
}

func TestGame_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Game(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestStartMatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	createStartedGame(t, s, "m1")

	g, err := s.Game(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusInProgress, g.Status)

	roster, err := s.Roster(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, roster, 16)
	assert.Equal(t, "b1", roster[0].PlayerID, "roster is ordered by player id")
	assert.Equal(t, match.SquadBench, roster[0].Status)
	assert.Equal(t, "m1", roster[0].MatchID)
	assert.False(t, roster[0].Appeared)
}

func TestStartMatch_OnlyOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createStartedGame(t, s, "m1")

	err := s.StartMatch(ctx, "m1", []match.RosterEntry{{PlayerID: "x", Status: match.SquadBench}})

	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	roster, err := s.Roster(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, roster, 16, "failed start leaves the roster untouched")
}

func TestStartMatch_DuplicatePlayerRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, match.Game{ID: "m1"}, t0))

	err := s.StartMatch(ctx, "m1", []match.RosterEntry{
		{PlayerID: "p1", Status: match.SquadStarting},
		{PlayerID: "p1", Status: match.SquadBench},
	})
	require.Error(t, err)

	g, err := s.Game(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusScheduled, g.Status)

	roster, err := s.Roster(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, roster)
	assert.NotNil(t, roster)
}

func TestFinalizeMatch_CompareAndSwap(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createStartedGame(t, s, "m1")

	require.NoError(t, s.FinalizeMatch(ctx, "m1", match.StatusInProgress, match.StatusPlayed, nil))

	err := s.FinalizeMatch(ctx, "m1", match.StatusInProgress, match.StatusDone, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "stale from-status does not apply")

	g, err := s.Game(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusPlayed, g.Status)
}

func TestFinalizeMatch_WritesGoalFacts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createStartedGame(t, s, "m1")
	require.NoError(t, s.InsertGoal(ctx, testGoal("g1", "m1", 20, "p9", 0)))

	facts := []engine.GoalFact{{GoalID: "g1", Sequence: 1, StateAtGoal: match.StateDrawing}}
	require.NoError(t, s.FinalizeMatch(ctx, "m1", match.StatusInProgress, match.StatusPlayed, facts))

	g, err := s.Goal(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, g.Sequence)
	assert.Equal(t, match.StateDrawing, g.StateAtGoal)
}

func TestFinalizeMatch_RollsBackStatusOnFactFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createStartedGame(t, s, "m1")
	require.NoError(t, s.InsertGoal(ctx, testGoal("g1", "m1", 20, "p9", 0)))

	// The schema rejects an unknown state, failing the second write.
	facts := []engine.GoalFact{{GoalID: "g1", Sequence: 1, StateAtGoal: "tied"}}
	err := s.FinalizeMatch(ctx, "m1", match.StatusInProgress, match.StatusPlayed, facts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goal facts")

	g, err := s.Game(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, match.StatusInProgress, g.Status)
}

func TestListGames(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, match.Game{ID: "b"}, t0))
	require.NoError(t, s.CreateGame(ctx, match.Game{ID: "a"}, t0.Add(time.Second)))
	require.NoError(t, s.CreateGame(ctx, match.Game{ID: "c"}, t0))

	ids, err := s.ListGames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/touchline/internal/match"
)

var t0 = time.Date(2026, 5, 2, 19, 45, 0, 0, time.UTC)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createStartedGame creates a match with starters p1..p11 and bench b1..b5
// and moves it to in_progress.
func createStartedGame(t *testing.T, s *Store, matchID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, match.Game{ID: matchID}, t0))

	var roster []match.RosterEntry
	for i := 1; i <= 11; i++ {
		roster = append(roster, match.RosterEntry{PlayerID: fmt.Sprintf("p%d", i), Status: match.SquadStarting})
	}
	for i := 1; i <= 5; i++ {
		roster = append(roster, match.RosterEntry{PlayerID: fmt.Sprintf("b%d", i), Status: match.SquadBench})
	}
	require.NoError(t, s.StartMatch(ctx, matchID, roster))
}

func testGoal(id, matchID string, minute int, scorer string, recorded time.Duration) match.Goal {
	return match.Goal{
		ID: id, MatchID: matchID, Minute: minute, Scorer: scorer,
		GoalKind: match.GoalOpenPlay, RecordedAt: t0.Add(recorded),
	}
}

func testCard(id, matchID string, minute int, player string, kind match.CardKind, recorded time.Duration) match.Card {
	return match.Card{
		ID: id, MatchID: matchID, Minute: minute, Player: player,
		CardKind: kind, RecordedAt: t0.Add(recorded),
	}
}

func testSub(id, matchID string, minute int, out, in string, recorded time.Duration) match.Substitution {
	return match.Substitution{
		ID: id, MatchID: matchID, Minute: minute, PlayerOut: out, PlayerIn: in,
		Reason: match.SubTactical, State: match.StateDrawing, RecordedAt: t0.Add(recorded),
	}
}

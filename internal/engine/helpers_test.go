package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/touchline/internal/match"
)

const testMatch = "m1"

var kickoff = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

// at returns a recorded timestamp n seconds after kickoff.
func at(n int) time.Time {
	return kickoff.Add(time.Duration(n) * time.Second)
}

// fakeSource is an in-memory Source.
type fakeSource struct {
	goals  []match.Goal
	cards  []match.Card
	subs   []match.Substitution
	roster []match.RosterEntry
	game   match.Game

	err   error  // returned by the failing read
	errOn string // "goals", "cards", "substitutions", "roster", "game"
}

func (f *fakeSource) fail(op string) error {
	if f.err != nil && f.errOn == op {
		return f.err
	}
	return nil
}

func (f *fakeSource) Goals(ctx context.Context, matchID string) ([]match.Goal, error) {
	return f.goals, f.fail("goals")
}

func (f *fakeSource) Cards(ctx context.Context, matchID string) ([]match.Card, error) {
	return f.cards, f.fail("cards")
}

func (f *fakeSource) Substitutions(ctx context.Context, matchID string) ([]match.Substitution, error) {
	return f.subs, f.fail("substitutions")
}

func (f *fakeSource) Roster(ctx context.Context, matchID string) ([]match.RosterEntry, error) {
	return f.roster, f.fail("roster")
}

func (f *fakeSource) Game(ctx context.Context, matchID string) (match.Game, error) {
	g := f.game
	g.ID = matchID
	return g, f.fail("game")
}

// squad builds a roster with starters p1..p<starters> and bench players
// b1..b<bench>.
func squad(starters, bench int) []match.RosterEntry {
	var entries []match.RosterEntry
	for i := 1; i <= starters; i++ {
		entries = append(entries, match.RosterEntry{MatchID: testMatch, PlayerID: fmt.Sprintf("p%d", i), Status: match.SquadStarting})
	}
	for i := 1; i <= bench; i++ {
		entries = append(entries, match.RosterEntry{MatchID: testMatch, PlayerID: fmt.Sprintf("b%d", i), Status: match.SquadBench})
	}
	return entries
}

func sub(id string, minute int, out, in string, recorded int) match.Substitution {
	return match.Substitution{
		ID: id, MatchID: testMatch, Minute: minute,
		PlayerOut: out, PlayerIn: in,
		Reason: match.SubTactical, State: match.StateDrawing,
		RecordedAt: at(recorded),
	}
}

func card(id string, minute int, player string, kind match.CardKind, recorded int) match.Card {
	return match.Card{ID: id, MatchID: testMatch, Minute: minute, Player: player, CardKind: kind, RecordedAt: at(recorded)}
}

func goal(id string, minute int, scorer, assister string, recorded int) match.Goal {
	return match.Goal{ID: id, MatchID: testMatch, Minute: minute, Scorer: scorer, Assister: assister, GoalKind: match.GoalOpenPlay, RecordedAt: at(recorded)}
}

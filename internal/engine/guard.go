package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/touchline/internal/match"
)

// Candidate is a new event that may end a player's presence on the pitch.
type Candidate struct {
	Kind     match.EventKind
	Minute   int
	PlayerID string         // carded player, or player out for substitutions
	CardKind match.CardKind // cards only
}

// terminating reports whether the guard applies to the candidate at all.
// Goals, yellow cards and substitutions without a player out are skipped.
func (c Candidate) terminating() bool {
	if c.PlayerID == "" {
		return false
	}
	switch c.Kind {
	case match.KindCard:
		return c.CardKind.Terminating()
	case match.KindSubstitution:
		return true
	case match.KindGoal:
		return false
	}
	return false
}

func (c Candidate) describe() string {
	if c.Kind == match.KindCard {
		return fmt.Sprintf("a %s at minute %d", c.CardKind, c.Minute)
	}
	return fmt.Sprintf("a substitution off at minute %d", c.Minute)
}

// ValidateFutureConsistency rejects a terminating candidate when the same
// player already has events recorded after the candidate minute that could
// not have happened once the player left the pitch.
func (e *Engine) ValidateFutureConsistency(ctx context.Context, matchID string, c Candidate, opts ...CheckOption) (Verdict, error) {
	if !c.terminating() {
		return Accept, nil
	}
	var cfg checkConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	tl, err := e.Timeline(ctx, matchID)
	if err != nil {
		return Verdict{}, err
	}
	return CheckFuture(tl.Without(cfg.exclude), c), nil
}

// CheckFuture is the pure form of ValidateFutureConsistency.
//
// Every conflicting fact is listed in timeline order. Later yellow cards are
// not conflicts. For a substitution off, a later substitution back on is a
// legitimate re-entry and ends the scan: events after it are consistent.
func CheckFuture(tl Timeline, c Candidate) Verdict {
	if !c.terminating() {
		return Accept
	}

	var conflicts []string
	for _, ev := range tl.After(c.Minute) {
		if !ev.Involves(c.PlayerID) {
			continue
		}
		if s, ok := ev.(match.Substitution); ok && c.Kind == match.KindSubstitution && s.PlayerIn == c.PlayerID {
			break
		}
		if fact := conflictFact(ev, c.PlayerID); fact != "" {
			conflicts = append(conflicts, fact)
		}
	}

	if len(conflicts) == 0 {
		return Accept
	}
	return Reject("player %s has later events that conflict with %s: %s",
		c.PlayerID, c.describe(), strings.Join(conflicts, "; "))
}

// conflictFact renders the player's part in ev, or "" when it is not a
// conflict.
func conflictFact(ev match.Event, playerID string) string {
	switch e := ev.(type) {
	case match.Goal:
		switch {
		case e.Scorer == playerID:
			return fmt.Sprintf("scored a goal at minute %d", e.Minute)
		case e.Assister == playerID:
			return fmt.Sprintf("assisted a goal at minute %d", e.Minute)
		default:
			return fmt.Sprintf("contributed to a goal at minute %d", e.Minute)
		}
	case match.Substitution:
		if e.PlayerIn == playerID {
			return fmt.Sprintf("was substituted in at minute %d", e.Minute)
		}
		return fmt.Sprintf("was substituted out at minute %d", e.Minute)
	case match.Card:
		if !e.CardKind.Terminating() {
			return ""
		}
		return fmt.Sprintf("received a %s at minute %d", e.CardKind, e.Minute)
	}
	return ""
}

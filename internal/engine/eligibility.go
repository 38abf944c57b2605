package engine

import (
	"context"

	"github.com/roach88/touchline/internal/match"
)

// GoalCheck is the candidate goal to validate.
type GoalCheck struct {
	Minute   int
	Scorer   string // empty for own goals without a scorer
	Assister string
	Opponent bool
}

// SubstitutionCheck is the candidate substitution to validate.
type SubstitutionCheck struct {
	Minute    int
	PlayerOut string
	PlayerIn  string
}

// CardCheck is the candidate card to validate.
type CardCheck struct {
	Minute   int
	Player   string
	CardKind match.CardKind
}

// ValidateGoal checks that the scorer and assister were on the pitch at the
// goal minute. Opponent goals and goals without a scorer skip player checks.
func (e *Engine) ValidateGoal(ctx context.Context, matchID string, g GoalCheck, opts ...CheckOption) (Verdict, error) {
	if g.Opponent || g.Scorer == "" {
		return Accept, nil
	}
	snap, err := e.snapshot(ctx, matchID, opts)
	if err != nil {
		return Verdict{}, err
	}
	return checkGoal(snap, g), nil
}

func checkGoal(s snapshot, g GoalCheck) Verdict {
	if !s.lineup.InSquad(g.Scorer) {
		return Reject("scorer %s is not in the match squad", g.Scorer)
	}
	if st := s.state(g.Scorer, g.Minute); st != match.PlayerOnPitch {
		return Reject("scorer %s cannot score at minute %d: player is %s", g.Scorer, g.Minute, st.Describe())
	}

	if g.Assister == "" {
		return Accept
	}
	if g.Assister == g.Scorer {
		return Reject("assister must be a different player from the scorer")
	}
	if !s.lineup.InSquad(g.Assister) {
		return Reject("assister %s is not in the match squad", g.Assister)
	}
	if st := s.state(g.Assister, g.Minute); st != match.PlayerOnPitch {
		return Reject("assister %s cannot assist at minute %d: player is %s", g.Assister, g.Minute, st.Describe())
	}
	return Accept
}

// ValidateSubstitution checks that PlayerOut is on the pitch and PlayerIn can
// come on. A previously substituted player may come back on.
func (e *Engine) ValidateSubstitution(ctx context.Context, matchID string, sub SubstitutionCheck, opts ...CheckOption) (Verdict, error) {
	if sub.PlayerOut == sub.PlayerIn {
		return Reject("player out and player in must be different players"), nil
	}
	snap, err := e.snapshot(ctx, matchID, opts)
	if err != nil {
		return Verdict{}, err
	}
	return checkSubstitution(snap, sub), nil
}

func checkSubstitution(s snapshot, sub SubstitutionCheck) Verdict {
	if !s.lineup.InSquad(sub.PlayerOut) {
		return Reject("player out %s is not in the match squad", sub.PlayerOut)
	}
	if !s.lineup.InSquad(sub.PlayerIn) {
		return Reject("player in %s is not in the match squad", sub.PlayerIn)
	}

	switch st := s.state(sub.PlayerOut, sub.Minute); st {
	case match.PlayerOnPitch:
	case match.PlayerSentOff:
		return Reject("player out %s was sent off and cannot be substituted at minute %d", sub.PlayerOut, sub.Minute)
	default:
		return Reject("player out %s is not on the pitch at minute %d: player is %s", sub.PlayerOut, sub.Minute, st.Describe())
	}

	switch st := s.state(sub.PlayerIn, sub.Minute); st {
	case match.PlayerBench, match.PlayerSubstitutedOut:
		return Accept
	case match.PlayerSentOff:
		return Reject("player in %s was sent off and cannot return at minute %d", sub.PlayerIn, sub.Minute)
	case match.PlayerOnPitch:
		return Reject("player in %s is already on the pitch at minute %d", sub.PlayerIn, sub.Minute)
	default:
		return Reject("player in %s cannot come on at minute %d: player is %s", sub.PlayerIn, sub.Minute, st.Describe())
	}
}

// ValidateCard checks that the player can still be sanctioned. Players on
// the bench or already substituted may be carded; sent-off players may not.
// A second yellow requires an earlier yellow for the same player.
func (e *Engine) ValidateCard(ctx context.Context, matchID string, c CardCheck, opts ...CheckOption) (Verdict, error) {
	snap, err := e.snapshot(ctx, matchID, opts)
	if err != nil {
		return Verdict{}, err
	}
	return checkCard(snap, c), nil
}

func checkCard(s snapshot, c CardCheck) Verdict {
	if !s.lineup.InSquad(c.Player) {
		return Reject("player %s is not in the match squad", c.Player)
	}
	if st := s.state(c.Player, c.Minute); st == match.PlayerSentOff {
		return Reject("player %s has already been sent off by minute %d", c.Player, c.Minute)
	}
	if c.CardKind == match.CardSecondYellow && yellowsBefore(s.timeline, c.Player, c.Minute) == 0 {
		return Reject("second yellow for player %s at minute %d requires a prior yellow card", c.Player, c.Minute)
	}
	return Accept
}

// yellowsBefore counts the player's yellow cards at or before minute.
func yellowsBefore(tl Timeline, playerID string, minute int) int {
	n := 0
	for _, ev := range tl.Until(minute) {
		if c, ok := ev.(match.Card); ok && c.Player == playerID && c.CardKind == match.CardYellow {
			n++
		}
	}
	return n
}

package engine

import "github.com/roach88/touchline/internal/match"

// GoalFact holds the derived fields of a goal once the match is finalized.
type GoalFact struct {
	GoalID      string
	Sequence    int
	StateAtGoal match.MatchState
}

// DeriveGoalFacts numbers the goals of a match in timeline order and records
// the team's standing immediately before each goal.
func DeriveGoalFacts(tl Timeline) []GoalFact {
	var facts []GoalFact
	scored, conceded := 0, 0
	for _, ev := range tl {
		g, ok := ev.(match.Goal)
		if !ok {
			continue
		}
		facts = append(facts, GoalFact{
			GoalID:      g.ID,
			Sequence:    len(facts) + 1,
			StateAtGoal: standing(scored, conceded),
		})
		if g.Opponent {
			conceded++
		} else {
			scored++
		}
	}
	return facts
}

func standing(scored, conceded int) match.MatchState {
	switch {
	case scored > conceded:
		return match.StateWinning
	case scored < conceded:
		return match.StateLosing
	default:
		return match.StateDrawing
	}
}

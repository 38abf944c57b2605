package events

import (
	"context"
	"fmt"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
)

func goalCheck(g match.Goal) engine.GoalCheck {
	return engine.GoalCheck{
		Minute:   g.Minute,
		Scorer:   g.Scorer,
		Assister: g.Assister,
		Opponent: g.Opponent,
	}
}

// CreateGoal validates and records a new goal. ID and RecordedAt are
// assigned by the service.
func (s *Service) CreateGoal(ctx context.Context, g match.Goal) (match.Goal, error) {
	const op = "create goal"
	if err := g.Validate(); err != nil {
		return match.Goal{}, rejectField(op, err)
	}

	err := s.withMatch(ctx, op, g.MatchID, func() error {
		game, err := s.editableGame(ctx, op, g.MatchID)
		if err != nil {
			return err
		}
		v, err := s.checker.ValidateGoal(ctx, g.MatchID, goalCheck(g))
		if err := verdict(op, v, err); err != nil {
			return err
		}

		g.ID = s.ids.Generate()
		g.RecordedAt = s.clock.Now()
		if err := s.store.InsertGoal(ctx, g); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.afterGoalChange(ctx, game)
		return nil
	})
	if err != nil {
		return match.Goal{}, err
	}
	return g, nil
}

// UpdateGoal replaces the client fields of an existing goal. The goal
// itself is left out of the timeline while validating.
func (s *Service) UpdateGoal(ctx context.Context, g match.Goal) (match.Goal, error) {
	const op = "update goal"
	if err := g.Validate(); err != nil {
		return match.Goal{}, rejectField(op, err)
	}

	var updated match.Goal
	err := s.withMatch(ctx, op, g.MatchID, func() error {
		game, err := s.editableGame(ctx, op, g.MatchID)
		if err != nil {
			return err
		}
		old, err := s.existingGoal(ctx, op, g)
		if err != nil {
			return err
		}
		v, err := s.checker.ValidateGoal(ctx, g.MatchID, goalCheck(g), engine.Excluding(g.ID))
		if err := verdict(op, v, err); err != nil {
			return err
		}

		if err := s.store.UpdateGoal(ctx, g); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		updated = g
		updated.RecordedAt = old.RecordedAt
		s.afterGoalChange(ctx, game)
		return nil
	})
	return updated, err
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, matchID, id string) error {
	const op = "delete goal"
	return s.withMatch(ctx, op, matchID, func() error {
		game, err := s.editableGame(ctx, op, matchID)
		if err != nil {
			return err
		}
		if err := s.store.DeleteGoal(ctx, matchID, id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.afterGoalChange(ctx, game)
		return nil
	})
}

func (s *Service) existingGoal(ctx context.Context, op string, g match.Goal) (match.Goal, error) {
	old, err := s.store.Goal(ctx, g.ID)
	if err != nil {
		return match.Goal{}, fmt.Errorf("%s: %w", op, err)
	}
	if old.MatchID != g.MatchID {
		return match.Goal{}, reject(op, "goal %s does not belong to match %s", g.ID, g.MatchID)
	}
	return old, nil
}

// afterGoalChange keeps derived goal fields current on finalized matches
// and recalculates goal and assist tallies.
func (s *Service) afterGoalChange(ctx context.Context, game match.Game) {
	if game.Status.Finalized() {
		if err := s.refreshGoalFacts(ctx, game.ID); err != nil {
			s.logger.Error("failed to refresh goal facts",
				"match_id", game.ID,
				"error", err,
			)
		}
	}
	s.submit(ctx, game.ID)
}

func (s *Service) refreshGoalFacts(ctx context.Context, matchID string) error {
	tl, err := s.checker.Timeline(ctx, matchID)
	if err != nil {
		return err
	}
	return s.store.SaveGoalFacts(ctx, matchID, engine.DeriveGoalFacts(tl))
}

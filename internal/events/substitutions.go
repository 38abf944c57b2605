package events

import (
	"context"
	"fmt"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
)

func substitutionCheck(sub match.Substitution) engine.SubstitutionCheck {
	return engine.SubstitutionCheck{Minute: sub.Minute, PlayerOut: sub.PlayerOut, PlayerIn: sub.PlayerIn}
}

// CreateSubstitution validates and records a new substitution. Taking the
// player out is checked against the player's later events.
func (s *Service) CreateSubstitution(ctx context.Context, sub match.Substitution) (match.Substitution, error) {
	const op = "create substitution"
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return match.Substitution{}, rejectField(op, err)
	}

	err := s.withMatch(ctx, op, sub.MatchID, func() error {
		if _, err := s.editableGame(ctx, op, sub.MatchID); err != nil {
			return err
		}
		v, err := s.checker.ValidateSubstitution(ctx, sub.MatchID, substitutionCheck(sub))
		if err := verdict(op, v, err); err != nil {
			return err
		}
		v, err = s.checker.ValidateFutureConsistency(ctx, sub.MatchID, engine.Candidate{
			Kind:     match.KindSubstitution,
			Minute:   sub.Minute,
			PlayerID: sub.PlayerOut,
		})
		if err := verdict(op, v, err); err != nil {
			return err
		}

		sub.ID = s.ids.Generate()
		sub.RecordedAt = s.clock.Now()
		if err := s.store.InsertSubstitution(ctx, sub); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.submit(ctx, sub.MatchID)
		return nil
	})
	if err != nil {
		return match.Substitution{}, err
	}
	return sub, nil
}

// UpdateSubstitution replaces the client fields of an existing
// substitution.
func (s *Service) UpdateSubstitution(ctx context.Context, sub match.Substitution) (match.Substitution, error) {
	const op = "update substitution"
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return match.Substitution{}, rejectField(op, err)
	}

	var updated match.Substitution
	err := s.withMatch(ctx, op, sub.MatchID, func() error {
		if _, err := s.editableGame(ctx, op, sub.MatchID); err != nil {
			return err
		}
		old, err := s.store.Substitution(ctx, sub.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if old.MatchID != sub.MatchID {
			return reject(op, "substitution %s does not belong to match %s", sub.ID, sub.MatchID)
		}
		v, err := s.checker.ValidateSubstitution(ctx, sub.MatchID, substitutionCheck(sub), engine.Excluding(sub.ID))
		if err := verdict(op, v, err); err != nil {
			return err
		}

		if err := s.store.UpdateSubstitution(ctx, sub); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		updated = sub
		updated.RecordedAt = old.RecordedAt
		s.submit(ctx, sub.MatchID)
		return nil
	})
	return updated, err
}

// DeleteSubstitution removes a substitution.
func (s *Service) DeleteSubstitution(ctx context.Context, matchID, id string) error {
	const op = "delete substitution"
	return s.withMatch(ctx, op, matchID, func() error {
		if _, err := s.editableGame(ctx, op, matchID); err != nil {
			return err
		}
		if err := s.store.DeleteSubstitution(ctx, matchID, id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.submit(ctx, matchID)
		return nil
	})
}

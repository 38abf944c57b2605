package events

import (
	"context"
	"fmt"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
)

func cardCheck(c match.Card) engine.CardCheck {
	return engine.CardCheck{Minute: c.Minute, Player: c.Player, CardKind: c.CardKind}
}

// CreateCard validates and records a new card. A red or second yellow is
// also checked against the player's later events.
func (s *Service) CreateCard(ctx context.Context, c match.Card) (match.Card, error) {
	const op = "create card"
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return match.Card{}, rejectField(op, err)
	}

	err := s.withMatch(ctx, op, c.MatchID, func() error {
		if _, err := s.editableGame(ctx, op, c.MatchID); err != nil {
			return err
		}
		v, err := s.checker.ValidateCard(ctx, c.MatchID, cardCheck(c))
		if err := verdict(op, v, err); err != nil {
			return err
		}
		v, err = s.checker.ValidateFutureConsistency(ctx, c.MatchID, engine.Candidate{
			Kind:     match.KindCard,
			Minute:   c.Minute,
			PlayerID: c.Player,
			CardKind: c.CardKind,
		})
		if err := verdict(op, v, err); err != nil {
			return err
		}

		c.ID = s.ids.Generate()
		c.RecordedAt = s.clock.Now()
		if err := s.store.InsertCard(ctx, c); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if c.CardKind.Terminating() {
			s.submit(ctx, c.MatchID)
		}
		return nil
	})
	if err != nil {
		return match.Card{}, err
	}
	return c, nil
}

// UpdateCard replaces the client fields of an existing card.
func (s *Service) UpdateCard(ctx context.Context, c match.Card) (match.Card, error) {
	const op = "update card"
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return match.Card{}, rejectField(op, err)
	}

	var updated match.Card
	err := s.withMatch(ctx, op, c.MatchID, func() error {
		if _, err := s.editableGame(ctx, op, c.MatchID); err != nil {
			return err
		}
		old, err := s.store.Card(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if old.MatchID != c.MatchID {
			return reject(op, "card %s does not belong to match %s", c.ID, c.MatchID)
		}
		v, err := s.checker.ValidateCard(ctx, c.MatchID, cardCheck(c), engine.Excluding(c.ID))
		if err := verdict(op, v, err); err != nil {
			return err
		}

		if err := s.store.UpdateCard(ctx, c); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		updated = c
		updated.RecordedAt = old.RecordedAt
		if old.CardKind.Terminating() || c.CardKind.Terminating() {
			s.submit(ctx, c.MatchID)
		}
		return nil
	})
	return updated, err
}

// DeleteCard removes a card.
func (s *Service) DeleteCard(ctx context.Context, matchID, id string) error {
	const op = "delete card"
	return s.withMatch(ctx, op, matchID, func() error {
		if _, err := s.editableGame(ctx, op, matchID); err != nil {
			return err
		}
		old, err := s.store.Card(ctx, id)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.store.DeleteCard(ctx, matchID, id); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if old.CardKind.Terminating() {
			s.submit(ctx, matchID)
		}
		return nil
	})
}

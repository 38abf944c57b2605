package store

import (
	"context"
	"fmt"

	"github.com/roach88/touchline/internal/match"
)

// InsertGoal inserts a goal. Derived fields are not written here; see
// SaveGoalFacts.
func (s *Store) InsertGoal(ctx context.Context, g match.Goal) error {
	contributors, err := marshalContributors(g.Contributors)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO goals
		(id, match_id, minute, scorer, assister, contributors, opponent, goal_kind, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.ID,
		g.MatchID,
		g.Minute,
		g.Scorer,
		g.Assister,
		contributors,
		boolInt(g.Opponent),
		string(g.GoalKind),
		toMillis(g.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// UpdateGoal replaces the client-supplied fields of a goal. The recorded
// timestamp and derived fields are kept.
func (s *Store) UpdateGoal(ctx context.Context, g match.Goal) error {
	contributors, err := marshalContributors(g.Contributors)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE goals
		SET minute = ?, scorer = ?, assister = ?, contributors = ?, opponent = ?, goal_kind = ?
		WHERE id = ? AND match_id = ?
	`,
		g.Minute,
		g.Scorer,
		g.Assister,
		contributors,
		boolInt(g.Opponent),
		string(g.GoalKind),
		g.ID,
		g.MatchID,
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if err := checkAffected(res, "goal", g.ID); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

// DeleteGoal removes a goal.
func (s *Store) DeleteGoal(ctx context.Context, matchID, id string) error {
	return s.deleteEvent(ctx, "goals", "goal", matchID, id)
}

// InsertCard inserts a card.
func (s *Store) InsertCard(ctx context.Context, c match.Card) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards
		(id, match_id, minute, player_id, card_kind, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.MatchID,
		c.Minute,
		c.Player,
		string(c.CardKind),
		c.Reason,
		toMillis(c.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

// UpdateCard replaces the client-supplied fields of a card.
func (s *Store) UpdateCard(ctx context.Context, c match.Card) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET minute = ?, player_id = ?, card_kind = ?, reason = ?
		WHERE id = ? AND match_id = ?
	`,
		c.Minute,
		c.Player,
		string(c.CardKind),
		c.Reason,
		c.ID,
		c.MatchID,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if err := checkAffected(res, "card", c.ID); err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return nil
}

// DeleteCard removes a card.
func (s *Store) DeleteCard(ctx context.Context, matchID, id string) error {
	return s.deleteEvent(ctx, "cards", "card", matchID, id)
}

// InsertSubstitution inserts a substitution.
func (s *Store) InsertSubstitution(ctx context.Context, sub match.Substitution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO substitutions
		(id, match_id, minute, player_out, player_in, reason, match_state, note, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sub.ID,
		sub.MatchID,
		sub.Minute,
		sub.PlayerOut,
		sub.PlayerIn,
		string(sub.Reason),
		string(sub.State),
		sub.Note,
		toMillis(sub.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert substitution: %w", err)
	}
	return nil
}

// UpdateSubstitution replaces the client-supplied fields of a substitution.
func (s *Store) UpdateSubstitution(ctx context.Context, sub match.Substitution) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE substitutions
		SET minute = ?, player_out = ?, player_in = ?, reason = ?, match_state = ?, note = ?
		WHERE id = ? AND match_id = ?
	`,
		sub.Minute,
		sub.PlayerOut,
		sub.PlayerIn,
		string(sub.Reason),
		string(sub.State),
		sub.Note,
		sub.ID,
		sub.MatchID,
	)
	if err != nil {
		return fmt.Errorf("update substitution: %w", err)
	}
	if err := checkAffected(res, "substitution", sub.ID); err != nil {
		return fmt.Errorf("update substitution: %w", err)
	}
	return nil
}

// DeleteSubstitution removes a substitution.
func (s *Store) DeleteSubstitution(ctx context.Context, matchID, id string) error {
	return s.deleteEvent(ctx, "substitutions", "substitution", matchID, id)
}

// deleteEvent removes one row from an event table. table is always one of
// the three constant event table names.
func (s *Store) deleteEvent(ctx context.Context, table, what, matchID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE id = ? AND match_id = ?", id, matchID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", what, err)
	}
	if err := checkAffected(res, what, id); err != nil {
		return fmt.Errorf("delete %s: %w", what, err)
	}
	return nil
}

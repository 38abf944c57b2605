package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
)

// Event reads share one ordering so that two reads of the same data always
// agree: minute, then recorded_at, then id.
const eventOrder = "ORDER BY minute ASC, recorded_at ASC, id COLLATE BINARY ASC"

const goalColumns = `id, match_id, minute, scorer, assister, contributors, opponent, goal_kind, sequence, state_at_goal, recorded_at`

// Goals returns all goals of a match.
// Returns an empty slice (not nil) if the match has no goals.
func (s *Store) Goals(ctx context.Context, matchID string) ([]match.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE match_id = ? "+eventOrder, matchID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	goals := []match.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

// Goal returns a single goal by ID. Returns ErrNotFound if it does not exist.
func (s *Store) Goal(ctx context.Context, id string) (match.Goal, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+goalColumns+" FROM goals WHERE id = ?", id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Goal{}, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return g, err
}

func scanGoal(row rowScanner) (match.Goal, error) {
	var (
		g            match.Goal
		contributors string
		opponent     int
		kind, state  string
		recordedAt   int64
	)
	err := row.Scan(
		&g.ID,
		&g.MatchID,
		&g.Minute,
		&g.Scorer,
		&g.Assister,
		&contributors,
		&opponent,
		&kind,
		&g.Sequence,
		&state,
		&recordedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Goal{}, err
	}
	if err != nil {
		return match.Goal{}, fmt.Errorf("scan goal: %w", err)
	}

	g.Contributors, err = unmarshalContributors(contributors)
	if err != nil {
		return match.Goal{}, fmt.Errorf("scan goal %s: %w", g.ID, err)
	}
	g.Opponent = opponent != 0
	if g.GoalKind, err = match.ParseGoalKind(kind); err != nil {
		return match.Goal{}, fmt.Errorf("scan goal %s: %w", g.ID, err)
	}
	// state_at_goal stays empty until the match is finalized.
	if state != "" {
		if g.StateAtGoal, err = match.ParseMatchState(state); err != nil {
			return match.Goal{}, fmt.Errorf("scan goal %s: %w", g.ID, err)
		}
	}
	g.RecordedAt = fromMillis(recordedAt)
	return g, nil
}

const cardColumns = `id, match_id, minute, player_id, card_kind, reason, recorded_at`

// Cards returns all cards of a match.
// Returns an empty slice (not nil) if the match has no cards.
func (s *Store) Cards(ctx context.Context, matchID string) ([]match.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE match_id = ? "+eventOrder, matchID)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := []match.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

// Card returns a single card by ID. Returns ErrNotFound if it does not exist.
func (s *Store) Card(ctx context.Context, id string) (match.Card, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM cards WHERE id = ?", id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Card{}, fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	return c, err
}

func scanCard(row rowScanner) (match.Card, error) {
	var (
		c          match.Card
		kind       string
		recordedAt int64
	)
	err := row.Scan(&c.ID, &c.MatchID, &c.Minute, &c.Player, &kind, &c.Reason, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Card{}, err
	}
	if err != nil {
		return match.Card{}, fmt.Errorf("scan card: %w", err)
	}
	if c.CardKind, err = match.ParseCardKind(kind); err != nil {
		return match.Card{}, fmt.Errorf("scan card %s: %w", c.ID, err)
	}
	c.RecordedAt = fromMillis(recordedAt)
	return c, nil
}

const substitutionColumns = `id, match_id, minute, player_out, player_in, reason, match_state, note, recorded_at`

// Substitutions returns all substitutions of a match.
// Returns an empty slice (not nil) if the match has none.
func (s *Store) Substitutions(ctx context.Context, matchID string) ([]match.Substitution, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+substitutionColumns+" FROM substitutions WHERE match_id = ? "+eventOrder, matchID)
	if err != nil {
		return nil, fmt.Errorf("query substitutions: %w", err)
	}
	defer rows.Close()

	subs := []match.Substitution{}
	for rows.Next() {
		sub, err := scanSubstitution(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate substitutions: %w", err)
	}
	return subs, nil
}

// Substitution returns a single substitution by ID. Returns ErrNotFound if
// it does not exist.
func (s *Store) Substitution(ctx context.Context, id string) (match.Substitution, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+substitutionColumns+" FROM substitutions WHERE id = ?", id)
	sub, err := scanSubstitution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Substitution{}, fmt.Errorf("substitution %s: %w", id, ErrNotFound)
	}
	return sub, err
}

func scanSubstitution(row rowScanner) (match.Substitution, error) {
	var (
		sub           match.Substitution
		reason, state string
		recordedAt    int64
	)
	err := row.Scan(&sub.ID, &sub.MatchID, &sub.Minute, &sub.PlayerOut, &sub.PlayerIn, &reason, &state, &sub.Note, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Substitution{}, err
	}
	if err != nil {
		return match.Substitution{}, fmt.Errorf("scan substitution: %w", err)
	}
	if sub.Reason, err = match.ParseSubReason(reason); err != nil {
		return match.Substitution{}, fmt.Errorf("scan substitution %s: %w", sub.ID, err)
	}
	if sub.State, err = match.ParseMatchState(state); err != nil {
		return match.Substitution{}, fmt.Errorf("scan substitution %s: %w", sub.ID, err)
	}
	sub.RecordedAt = fromMillis(recordedAt)
	return sub, nil
}

var _ engine.Source = (*Store)(nil)

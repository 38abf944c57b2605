package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
)

// CreateGame inserts a new match in status scheduled.
func (s *Store) CreateGame(ctx context.Context, g match.Game, now time.Time) error {
	status := g.Status
	if status == "" {
		status = match.StatusScheduled
	}
	regulation := g.RegulationMinutes
	if regulation <= 0 {
		regulation = match.DefaultRegulationMinutes
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (id, status, regulation_minutes, stoppage_minutes, extra_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, g.ID, string(status), regulation, g.StoppageMinutes, boolInt(g.ExtraTime), toMillis(now))
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

// Game returns match metadata. Returns ErrNotFound for unknown matches.
func (s *Store) Game(ctx context.Context, matchID string) (match.Game, error) {
	var (
		g         match.Game
		status    string
		extraTime int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, status, regulation_minutes, stoppage_minutes, extra_time
		FROM games
		WHERE id = ?
	`, matchID).Scan(&g.ID, &status, &g.RegulationMinutes, &g.StoppageMinutes, &extraTime)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Game{}, fmt.Errorf("game %s: %w", matchID, ErrNotFound)
	}
	if err != nil {
		return match.Game{}, fmt.Errorf("read game: %w", err)
	}
	if g.Status, err = match.ParseMatchStatus(status); err != nil {
		return match.Game{}, fmt.Errorf("read game %s: %w", matchID, err)
	}
	g.ExtraTime = extraTime != 0
	return g, nil
}

// FinalizeMatch moves a match to played or done and writes the derived
// goal facts in the same transaction. The update only applies while the
// match is still in status from, so concurrent transitions cannot both
// succeed; the loser gets ErrNotFound.
func (s *Store) FinalizeMatch(ctx context.Context, matchID string, from, to match.MatchStatus, facts []engine.GoalFact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("finalize match: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		UPDATE games SET status = ? WHERE id = ? AND status = ?
	`, string(to), matchID, string(from))
	if err != nil {
		return fmt.Errorf("finalize match: %w", err)
	}
	if err := checkAffected(res, "game", matchID); err != nil {
		return fmt.Errorf("finalize match: %w", err)
	}
	if err := writeGoalFacts(ctx, tx, matchID, facts); err != nil {
		return fmt.Errorf("finalize match: goal facts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("finalize match: commit: %w", err)
	}
	return nil
}

// UpdateTiming sets stoppage time and extra time for a match.
func (s *Store) UpdateTiming(ctx context.Context, matchID string, stoppage int, extraTime bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE games SET stoppage_minutes = ?, extra_time = ? WHERE id = ?
	`, stoppage, boolInt(extraTime), matchID)
	if err != nil {
		return fmt.Errorf("update timing: %w", err)
	}
	if err := checkAffected(res, "game", matchID); err != nil {
		return fmt.Errorf("update timing: %w", err)
	}
	return nil
}

// StartMatch writes the roster and moves the match from scheduled to
// in_progress in one transaction. The roster cannot be written twice.
func (s *Store) StartMatch(ctx context.Context, matchID string, roster []match.RosterEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start match: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		UPDATE games SET status = ? WHERE id = ? AND status = ?
	`, string(match.StatusInProgress), matchID, string(match.StatusScheduled))
	if err != nil {
		return fmt.Errorf("start match: %w", err)
	}
	if err := checkAffected(res, "scheduled game", matchID); err != nil {
		return fmt.Errorf("start match: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO roster_entries (match_id, player_id, status)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("start match: prepare roster: %w", err)
	}
	defer stmt.Close()

	for _, e := range roster {
		if _, err := stmt.ExecContext(ctx, matchID, e.PlayerID, string(e.Status)); err != nil {
			return fmt.Errorf("start match: insert roster entry %s: %w", e.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("start match: commit: %w", err)
	}
	return nil
}

// Roster returns the squad of a match ordered by player ID.
// Returns an empty slice (not nil) before the match has started.
func (s *Store) Roster(ctx context.Context, matchID string) ([]match.RosterEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id, player_id, status, appeared, minutes_played
		FROM roster_entries
		WHERE match_id = ?
		ORDER BY player_id COLLATE BINARY ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	entries := []match.RosterEntry{}
	for rows.Next() {
		var (
			e        match.RosterEntry
			status   string
			appeared int
		)
		if err := rows.Scan(&e.MatchID, &e.PlayerID, &status, &appeared, &e.MinutesPlayed); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		st, err := match.ParseSquadStatus(status)
		if err != nil {
			return nil, fmt.Errorf("scan roster entry %s: %w", e.PlayerID, err)
		}
		e.Status = st
		e.Appeared = appeared != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster: %w", err)
	}
	return entries, nil
}

// ListGames returns all match IDs in creation order.
func (s *Store) ListGames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM games ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return ids, nil
}

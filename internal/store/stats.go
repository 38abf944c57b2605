package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
)

// SaveGoalFacts writes the derived sequence and state of every goal of a
// match in one transaction.
func (s *Store) SaveGoalFacts(ctx context.Context, matchID string, facts []engine.GoalFact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save goal facts: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := writeGoalFacts(ctx, tx, matchID, facts); err != nil {
		return fmt.Errorf("save goal facts: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save goal facts: commit: %w", err)
	}
	return nil
}

func writeGoalFacts(ctx context.Context, tx *sql.Tx, matchID string, facts []engine.GoalFact) error {
	stmt, err := tx.PrepareContext(ctx, `
		UPDATE goals SET sequence = ?, state_at_goal = ? WHERE id = ? AND match_id = ?
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		if _, err := stmt.ExecContext(ctx, f.Sequence, string(f.StateAtGoal), f.GoalID, matchID); err != nil {
			return fmt.Errorf("goal %s: %w", f.GoalID, err)
		}
	}
	return nil
}

// SavePlayerStats replaces the stats of a match and writes minutes and
// appearance back onto the roster, all in one transaction. Saving the same
// stats twice leaves the same rows.
func (s *Store) SavePlayerStats(ctx context.Context, matchID string, stats []match.PlayerStats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save player stats: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM player_stats WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("save player stats: clear: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO player_stats (match_id, player_id, minutes, goals, assists, appeared)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save player stats: prepare insert: %w", err)
	}
	defer insert.Close()

	roster, err := tx.PrepareContext(ctx, `
		UPDATE roster_entries SET minutes_played = ?, appeared = ?
		WHERE match_id = ? AND player_id = ?
	`)
	if err != nil {
		return fmt.Errorf("save player stats: prepare roster: %w", err)
	}
	defer roster.Close()

	for _, ps := range stats {
		if _, err := insert.ExecContext(ctx, matchID, ps.PlayerID, ps.Minutes, ps.Goals, ps.Assists, boolInt(ps.Appeared)); err != nil {
			return fmt.Errorf("save player stats: player %s: %w", ps.PlayerID, err)
		}
		if _, err := roster.ExecContext(ctx, ps.Minutes, boolInt(ps.Appeared), matchID, ps.PlayerID); err != nil {
			return fmt.Errorf("save player stats: roster %s: %w", ps.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save player stats: commit: %w", err)
	}
	return nil
}

// PlayerStats returns the saved stats of a match ordered by player ID.
// Returns an empty slice (not nil) before the first recalculation.
func (s *Store) PlayerStats(ctx context.Context, matchID string) ([]match.PlayerStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, minutes, goals, assists, appeared
		FROM player_stats
		WHERE match_id = ?
		ORDER BY player_id COLLATE BINARY ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("query player stats: %w", err)
	}
	defer rows.Close()

	stats := []match.PlayerStats{}
	for rows.Next() {
		var (
			ps       match.PlayerStats
			appeared int
		)
		if err := rows.Scan(&ps.PlayerID, &ps.Minutes, &ps.Goals, &ps.Assists, &appeared); err != nil {
			return nil, fmt.Errorf("scan player stats: %w", err)
		}
		ps.Appeared = appeared != 0
		stats = append(stats, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate player stats: %w", err)
	}
	return stats, nil
}

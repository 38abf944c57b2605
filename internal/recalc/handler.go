package recalc

import (
	"context"
	"fmt"

	"github.com/roach88/touchline/internal/match"
)

// StatsCalculator computes per-player stats for a match.
// engine.Engine implements it.
type StatsCalculator interface {
	PlayerStats(ctx context.Context, matchID string) ([]match.PlayerStats, error)
}

// StatsWriter persists per-player stats. store.Store implements it.
type StatsWriter interface {
	SavePlayerStats(ctx context.Context, matchID string, stats []match.PlayerStats) error
}

// MinutesHandler handles recalc-minutes jobs: it recomputes minutes,
// appearances, goals and assists from the current events and overwrites
// the stored values. Running it twice gives the same result.
type MinutesHandler struct {
	calc StatsCalculator
	dst  StatsWriter
}

// NewMinutesHandler creates a MinutesHandler.
func NewMinutesHandler(calc StatsCalculator, dst StatsWriter) *MinutesHandler {
	return &MinutesHandler{calc: calc, dst: dst}
}

// Handle implements Handler.
func (h *MinutesHandler) Handle(ctx context.Context, job Job) error {
	stats, err := h.calc.PlayerStats(ctx, job.MatchID)
	if err != nil {
		return fmt.Errorf("calculate minutes: %w", err)
	}
	if err := h.dst.SavePlayerStats(ctx, job.MatchID, stats); err != nil {
		return fmt.Errorf("save player stats: %w", err)
	}
	return nil
}

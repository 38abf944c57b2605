package events

import (
	"context"
	"fmt"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
)

// CreateGame registers a scheduled match.
func (s *Service) CreateGame(ctx context.Context, g match.Game) error {
	const op = "create game"
	switch {
	case g.ID == "":
		return reject(op, "match id is required")
	case g.RegulationMinutes < 0 || g.RegulationMinutes > match.MaxMinute:
		return reject(op, "regulation minutes must be between 0 and %d", match.MaxMinute)
	case g.StoppageMinutes < 0:
		return reject(op, "stoppage minutes must not be negative")
	}
	g.Status = match.StatusScheduled
	if err := s.store.CreateGame(ctx, g, s.clock.Now()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// StartMatch writes the roster and moves the match to in_progress.
// Squad status is fixed from then on.
func (s *Service) StartMatch(ctx context.Context, matchID string, roster []match.RosterEntry) error {
	const op = "start match"
	seen := make(map[string]bool, len(roster))
	starters := 0
	for i, e := range roster {
		if e.PlayerID == "" {
			return reject(op, "roster entry %d has no player id", i)
		}
		if seen[e.PlayerID] {
			return reject(op, "player %s listed twice", e.PlayerID)
		}
		seen[e.PlayerID] = true
		if _, err := match.ParseSquadStatus(string(e.Status)); err != nil {
			return reject(op, "player %s: %v", e.PlayerID, err)
		}
		if e.Status == match.SquadStarting {
			starters++
		}
	}

	return s.withMatch(ctx, op, matchID, func() error {
		g, err := s.store.Game(ctx, matchID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if g.Status != match.StatusScheduled {
			return reject(op, "match %s is already %s", matchID, g.Status)
		}
		if starters != 11 {
			s.logger.Warn("starting lineup is not complete",
				"match_id", matchID,
				"starters", starters,
			)
		}
		if err := s.store.StartMatch(ctx, matchID, roster); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
}

// TransitionMatch moves a started match to played or done. Finalizing
// derives goal sequence and state and submits a recalculation.
func (s *Service) TransitionMatch(ctx context.Context, matchID string, to match.MatchStatus) error {
	const op = "transition match"
	if _, err := match.ParseMatchStatus(string(to)); err != nil {
		return reject(op, "%v", err)
	}
	if to == match.StatusInProgress {
		return reject(op, "matches are started with a roster")
	}

	return s.withMatch(ctx, op, matchID, func() error {
		g, err := s.store.Game(ctx, matchID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if !g.Status.CanTransition(to) {
			return reject(op, "match %s cannot move from %s to %s", matchID, g.Status, to)
		}
		// Status and goal facts commit together; a failure leaves the
		// match in its old status so the transition can be retried.
		tl, err := s.checker.Timeline(ctx, matchID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.store.FinalizeMatch(ctx, matchID, g.Status, to, engine.DeriveGoalFacts(tl)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.submit(ctx, matchID)
		return nil
	})
}

// SetTiming records stoppage and extra time. Minutes depend on the match
// duration, so a started match is recalculated.
func (s *Service) SetTiming(ctx context.Context, matchID string, stoppage int, extraTime bool) error {
	const op = "set timing"
	if stoppage < 0 {
		return reject(op, "stoppage minutes must not be negative")
	}
	return s.withMatch(ctx, op, matchID, func() error {
		g, err := s.store.Game(ctx, matchID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if g.Status == match.StatusDone {
			return reject(op, "match %s is closed", matchID)
		}
		if err := s.store.UpdateTiming(ctx, matchID, stoppage, extraTime); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if g.Status != match.StatusScheduled {
			s.submit(ctx, matchID)
		}
		return nil
	})
}

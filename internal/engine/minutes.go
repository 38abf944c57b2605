package engine

import (
	"context"
	"log/slog"
	"slices"

	"github.com/roach88/touchline/internal/match"
)

// ExpectedStarters is the size of a complete starting lineup. Other sizes
// are processed anyway and only logged.
const ExpectedStarters = 11

// Session is a contiguous interval [Start, End) credited as pitch time.
type Session struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the session length in minutes.
func (s Session) Len() int {
	return s.End - s.Start
}

// MinutesReport is the output of the session-interval calculation.
type MinutesReport struct {
	Duration int
	Minutes  map[string]int       // every rostered player, 0 if unused
	Sessions map[string][]Session // only players who held a session
}

// Minutes converts the timeline into minutes played per player.
//
// Every starter opens a session at minute 0. A substitution closes the
// outgoing player's open session and opens one for the incoming player; a
// red or second-yellow card closes the carded player's open session. Goals
// and yellow cards are ignored. Sessions still open at the end close at
// duration. Closing a session that is not open (a player carded after
// leaving the pitch) is a logged no-op.
//
// Minutes is pure and deterministic; a nil logger disables logging.
func Minutes(tl Timeline, lineup Lineup, duration int, logger *slog.Logger) MinutesReport {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if duration <= 0 {
		duration = match.DefaultRegulationMinutes
	}

	starters := lineup.Starters()
	if len(starters) != ExpectedStarters {
		logger.Warn("starting lineup is not complete",
			"starters", len(starters),
			"expected", ExpectedStarters,
		)
	}

	open := make(map[string]int, len(starters))
	sessions := make(map[string][]Session)
	for _, p := range starters {
		open[p] = 0
	}

	closeSession := func(playerID string, at int, cause string) {
		start, ok := open[playerID]
		if !ok {
			logger.Debug("no open session to close",
				"player_id", playerID,
				"minute", at,
				"cause", cause,
			)
			return
		}
		delete(open, playerID)
		sessions[playerID] = append(sessions[playerID], Session{Start: start, End: max(start, at)})
	}

	for _, ev := range tl {
		at := min(ev.EventMinute(), duration)
		switch e := ev.(type) {
		case match.Substitution:
			if e.PlayerOut != "" {
				closeSession(e.PlayerOut, at, "substitution")
			}
			if e.PlayerIn == "" {
				continue
			}
			if _, ok := open[e.PlayerIn]; ok {
				logger.Warn("incoming player already has an open session",
					"player_id", e.PlayerIn,
					"minute", at,
				)
				continue
			}
			open[e.PlayerIn] = at
		case match.Card:
			if e.CardKind.Terminating() {
				closeSession(e.Player, at, string(e.CardKind))
			}
		case match.Goal:
		}
	}

	for _, p := range sortedKeys(open) {
		closeSession(p, duration, "full time")
	}

	report := MinutesReport{
		Duration: duration,
		Minutes:  make(map[string]int, len(lineup.squad)),
		Sessions: sessions,
	}
	for _, p := range lineup.Players() {
		report.Minutes[p] = 0
	}
	for p, ss := range sessions {
		if _, rostered := lineup.squad[p]; !rostered {
			logger.Warn("player without roster entry has pitch time", "player_id", p)
		}
		total := 0
		for _, s := range ss {
			total += s.Len()
		}
		report.Minutes[p] = min(max(total, 0), duration)
	}
	return report
}

// Tally is a player's scoring contribution in one match.
type Tally struct {
	Goals   int
	Assists int
}

// PlayerTallies counts goals and assists credited to the team's players.
// Opponent goals and own goals credit nobody.
func PlayerTallies(tl Timeline) map[string]Tally {
	tallies := make(map[string]Tally)
	for _, ev := range tl {
		g, ok := ev.(match.Goal)
		if !ok || g.Opponent || g.GoalKind == match.GoalOwnGoal {
			continue
		}
		if g.Scorer != "" {
			t := tallies[g.Scorer]
			t.Goals++
			tallies[g.Scorer] = t
		}
		if g.Assister != "" {
			t := tallies[g.Assister]
			t.Assists++
			tallies[g.Assister] = t
		}
	}
	return tallies
}

// BuildPlayerStats combines minutes and tallies into per-player stats sorted
// by player ID.
func BuildPlayerStats(report MinutesReport, tallies map[string]Tally) []match.PlayerStats {
	ids := sortedKeys(report.Minutes)
	for id := range tallies {
		if _, ok := report.Minutes[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	stats := make([]match.PlayerStats, 0, len(ids))
	for _, id := range ids {
		// A session clamped to zero length at full time is not an appearance.
		minutes := report.Minutes[id]
		stats = append(stats, match.PlayerStats{
			PlayerID: id,
			Minutes:  minutes,
			Goals:    tallies[id].Goals,
			Assists:  tallies[id].Assists,
			Appeared: minutes > 0,
		})
	}
	return stats
}

// CalculateMinutes returns minutes played for every rostered player.
func (e *Engine) CalculateMinutes(ctx context.Context, matchID string) (map[string]int, error) {
	report, _, err := e.minutesReport(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return report.Minutes, nil
}

// PlayerStats returns minutes, goals and assists for every player.
func (e *Engine) PlayerStats(ctx context.Context, matchID string) ([]match.PlayerStats, error) {
	report, tl, err := e.minutesReport(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return BuildPlayerStats(report, PlayerTallies(tl)), nil
}

func (e *Engine) minutesReport(ctx context.Context, matchID string) (MinutesReport, Timeline, error) {
	game, err := e.src.Game(ctx, matchID)
	if err != nil {
		return MinutesReport{}, nil, storeErr("game", matchID, err)
	}
	roster, err := e.src.Roster(ctx, matchID)
	if err != nil {
		return MinutesReport{}, nil, storeErr("roster", matchID, err)
	}
	tl, err := e.Timeline(ctx, matchID)
	if err != nil {
		return MinutesReport{}, nil, err
	}
	logger := e.logger.With("match_id", matchID)
	return Minutes(tl, NewLineup(roster), game.Duration(), logger), tl, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/match"
	"github.com/roach88/touchline/internal/recalc"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Match  string // optional - specific match only
	Repair bool   // submit a job for every drifted match
}

// Replay verdicts for one match.
const (
	VerdictSettled = "settled" // stored stats equal a fresh calculation
	VerdictPending = "pending" // jobs still queued; stored stats may lag
	VerdictDrifted = "drifted" // stored stats differ and nothing is queued
	VerdictFresh   = "fresh"   // no job was ever submitted and nothing is stored
)

// ReplayMatchResult holds the replay result for a single match.
type ReplayMatchResult struct {
	MatchID       string   `json:"match_id"`
	Events        int      `json:"events"`
	OpenJobs      int      `json:"open_jobs"`
	Deterministic bool     `json:"deterministic"`
	Verdict       string   `json:"verdict"`
	Differences   []string `json:"differences,omitempty"`
	Repaired      bool     `json:"repaired,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Matches          []ReplayMatchResult `json:"matches"`
	TotalMatches     int                 `json:"total_matches"`
	AllDeterministic bool                `json:"all_deterministic"`
	Drifted          int                 `json:"drifted"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Recompute stats and verify determinism",
		Long: `Rebuild every match timeline from the stored events, recompute player
stats twice and compare them with the stored stats.

A match is deterministic when reordered inputs give the same timeline and
two calculations agree. It is settled when the stored stats equal the
calculation, pending while recalculation jobs are still open, fresh when
no job was ever submitted, and drifted otherwise.

Exit codes:
  0 - All matches deterministic, none drifted
  1 - Non-deterministic calculation or drifted stats
  2 - Command error (database not found, etc.)

Examples:
  touchline replay --db ./touchline.db
  touchline replay --match m1
  touchline replay --repair --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Match, "match", "", "replay specific match only")
	cmd.Flags().BoolVar(&opts.Repair, "repair", false, "submit a recalculation job for drifted matches")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd.Context())
	e, err := openEnv(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()
	out := newFormatter(opts.RootOptions, cmd)

	var matchIDs []string
	if opts.Match != "" {
		matchIDs = []string{opts.Match}
	} else {
		matchIDs, err = e.store.ListGames(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list matches", err)
		}
	}

	result := ReplayResult{
		Matches:          make([]ReplayMatchResult, 0, len(matchIDs)),
		TotalMatches:     len(matchIDs),
		AllDeterministic: true,
	}
	for _, id := range matchIDs {
		out.VerboseLog("replaying match %s", id)
		mr, err := replayMatch(ctx, e, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay match %s", id), err)
		}
		if mr.Verdict == VerdictDrifted && opts.Repair {
			if _, err := e.submitter().Submit(ctx, recalc.KindRecalcMinutes, id); err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("failed to repair match %s", id), err)
			}
			mr.Repaired = true
		}
		if !mr.Deterministic {
			result.AllDeterministic = false
		}
		if mr.Verdict == VerdictDrifted && !mr.Repaired {
			result.Drifted++
		}
		result.Matches = append(result.Matches, mr)
	}

	return outputReplay(out, result)
}

// replayMatch recomputes one match and compares against the stored stats.
func replayMatch(ctx context.Context, e *env, matchID string) (ReplayMatchResult, error) {
	mr := ReplayMatchResult{MatchID: matchID}

	tl, err := e.engine.Timeline(ctx, matchID)
	if err != nil {
		return mr, err
	}
	mr.Events = len(tl)

	reordered, err := reversedTimeline(ctx, e.store, matchID)
	if err != nil {
		return mr, err
	}

	first, err := e.engine.PlayerStats(ctx, matchID)
	if err != nil {
		return mr, fmt.Errorf("first calculation failed: %w", err)
	}
	second, err := e.engine.PlayerStats(ctx, matchID)
	if err != nil {
		return mr, fmt.Errorf("second calculation failed: %w", err)
	}
	mr.Deterministic = tl.Sorted() && sameOrder(tl, reordered) && slices.Equal(first, second)

	jobs, err := e.queue.List(ctx, recalc.Filter{MatchID: matchID})
	if err != nil {
		return mr, err
	}
	for _, j := range jobs {
		if j.Status == recalc.StatusPending || j.Status == recalc.StatusRunning {
			mr.OpenJobs++
		}
	}

	stored, err := e.store.PlayerStats(ctx, matchID)
	if err != nil {
		return mr, err
	}
	mr.Differences = statsDiff(stored, first)
	switch {
	case len(mr.Differences) == 0:
		mr.Verdict = VerdictSettled
	case mr.OpenJobs > 0:
		mr.Verdict = VerdictPending
	case len(jobs) == 0 && len(stored) == 0:
		mr.Verdict = VerdictFresh
	default:
		mr.Verdict = VerdictDrifted
	}
	return mr, nil
}

// reversedTimeline builds the timeline from the event collections in
// reverse order.
func reversedTimeline(ctx context.Context, src engine.EventSource, matchID string) (engine.Timeline, error) {
	goals, err := src.Goals(ctx, matchID)
	if err != nil {
		return nil, err
	}
	cards, err := src.Cards(ctx, matchID)
	if err != nil {
		return nil, err
	}
	subs, err := src.Substitutions(ctx, matchID)
	if err != nil {
		return nil, err
	}
	slices.Reverse(goals)
	slices.Reverse(cards)
	slices.Reverse(subs)
	return engine.BuildTimeline(goals, cards, subs), nil
}

func sameOrder(a, b engine.Timeline) bool {
	return slices.EqualFunc(a, b, func(x, y match.Event) bool {
		return x.EventID() == y.EventID()
	})
}

// statsDiff describes how stored differs from computed, one line per
// player.
func statsDiff(stored, computed []match.PlayerStats) []string {
	byID := make(map[string]match.PlayerStats, len(stored))
	for _, ps := range stored {
		byID[ps.PlayerID] = ps
	}

	var diffs []string
	for _, want := range computed {
		got, ok := byID[want.PlayerID]
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("%s: not stored (want %d min)", want.PlayerID, want.Minutes))
		case got != want:
			diffs = append(diffs, fmt.Sprintf("%s: stored %d min, %d G, %d A; want %d min, %d G, %d A",
				want.PlayerID, got.Minutes, got.Goals, got.Assists, want.Minutes, want.Goals, want.Assists))
		}
		delete(byID, want.PlayerID)
	}
	for _, ps := range stored {
		if _, extra := byID[ps.PlayerID]; extra {
			diffs = append(diffs, fmt.Sprintf("%s: stored but not on the roster", ps.PlayerID))
		}
	}
	return diffs
}

// outputReplay writes the result and maps failures to exit code 1.
func outputReplay(out *OutputFormatter, result ReplayResult) error {
	failed := !result.AllDeterministic || result.Drifted > 0

	if out.Format == "json" {
		if failed {
			if err := out.Error(CodeNotSettled, replayFailure(result), result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, replayFailure(result))
		}
		return out.Success(result, nil)
	}

	w := out.Writer
	if err := out.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "Replay Summary: %d match(es)\n", result.TotalMatches)
		fmt.Fprintln(w)
		for _, m := range result.Matches {
			status := "✓"
			if !m.Deterministic || m.Verdict == VerdictDrifted {
				status = "✗"
			}
			fmt.Fprintf(w, "%s Match: %s (%s)\n", status, m.MatchID, m.Verdict)
			fmt.Fprintf(w, "  Events: %d, open jobs: %d\n", m.Events, m.OpenJobs)
			if !m.Deterministic {
				fmt.Fprintln(w, "  Warning: Non-deterministic calculation detected!")
			}
			if out.Verbose || m.Verdict == VerdictDrifted {
				for _, d := range m.Differences {
					fmt.Fprintf(w, "  %s\n", d)
				}
			}
			if m.Repaired {
				fmt.Fprintln(w, "  Recalculation job submitted")
			}
		}
		fmt.Fprintln(w)
	}); err != nil {
		return err
	}

	if failed {
		fmt.Fprintf(w, "✗ %s\n", replayFailure(result))
		return NewExitError(ExitFailure, replayFailure(result))
	}
	fmt.Fprintln(w, "✓ All matches verified")
	return nil
}

func replayFailure(result ReplayResult) string {
	if !result.AllDeterministic {
		return "determinism verification failed"
	}
	return fmt.Sprintf("%d match(es) with drifted stats", result.Drifted)
}

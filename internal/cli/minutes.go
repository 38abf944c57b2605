package cli

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/touchline/internal/match"
)

// MinutesOptions holds flags for the minutes command.
type MinutesOptions struct {
	*RootOptions
	Stored bool
}

// MinutesResult holds the per-player stats of one match.
type MinutesResult struct {
	MatchID string              `json:"match_id"`
	Source  string              `json:"source"` // "computed" or "stored"
	Players []match.PlayerStats `json:"players"`
}

// NewMinutesCommand creates the minutes command.
func NewMinutesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MinutesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "minutes <match-id>",
		Short: "Show minutes played per player",
		Long: `Show minutes, appearances, goals and assists per player.

By default the stats are computed from the current events. With --stored
the values last written by the worker are shown instead; they lag behind
until pending recalculation jobs have run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMinutes(opts, args[0], cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Stored, "stored", false, "show the stored stats instead of computing them")

	return cmd
}

func runMinutes(opts *MinutesOptions, matchID string, cmd *cobra.Command) error {
	ctx := commandContext(cmd.Context())
	e, err := openEnv(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	result := MinutesResult{MatchID: matchID, Source: "computed"}
	if opts.Stored {
		result.Source = "stored"
		result.Players, err = e.store.PlayerStats(ctx, matchID)
	} else {
		result.Players, err = e.engine.PlayerStats(ctx, matchID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load minutes", err)
	}

	return newFormatter(opts.RootOptions, cmd).Success(result, func(w io.Writer) {
		writeStatsTable(w, result.Players)
	})
}

// writeStatsTable prints stats, longest minutes first.
func writeStatsTable(w io.Writer, stats []match.PlayerStats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No player stats.")
		return
	}
	rows := slices.Clone(stats)
	slices.SortStableFunc(rows, func(a, b match.PlayerStats) int {
		return b.Minutes - a.Minutes
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tMIN\tG\tA\tAPPEARED")
	for _, ps := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%t\n", ps.PlayerID, ps.Minutes, ps.Goals, ps.Assists, ps.Appeared)
	}
	tw.Flush()
}

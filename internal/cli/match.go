package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/touchline/internal/harness"
	"github.com/roach88/touchline/internal/match"
)

// MatchOptions holds flags for the match subcommands.
type MatchOptions struct {
	*RootOptions
	Regulation int
	Stoppage   int
	ExtraTime  bool
	Roster     string
}

// NewMatchCommand creates the match command group.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Create, start and close matches",
	}

	create := &cobra.Command{
		Use:   "create <match-id>",
		Short: "Register a scheduled match",
		Example: `  touchline match create m1
  touchline match create cup-final --regulation 90 --stoppage 4 --extra-time`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatchCreate(opts, args[0], cmd)
		},
	}
	create.Flags().IntVar(&opts.Regulation, "regulation", match.DefaultRegulationMinutes, "regulation minutes")
	create.Flags().IntVar(&opts.Stoppage, "stoppage", 0, "stoppage minutes")
	create.Flags().BoolVar(&opts.ExtraTime, "extra-time", false, "match goes to extra time")

	start := &cobra.Command{
		Use:   "start <match-id>",
		Short: "Fix the roster and kick off",
		Long: `Write the match roster and move the match to in_progress.

The roster file lists player IDs per squad status:

  starting: [p1, p2, p3, p4, p5, p6, p7, p8, p9, p10, p11]
  bench: [b1, b2, b3]
  unavailable: [x1]`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatchStart(opts, args[0], cmd)
		},
	}
	start.Flags().StringVar(&opts.Roster, "roster", "", "path to the roster YAML file (required)")
	_ = start.MarkFlagRequired("roster")

	status := &cobra.Command{
		Use:           "status <match-id> <played|done>",
		Short:         "Finish or close a match",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatchStatus(opts, args[0], args[1], cmd)
		},
	}

	timing := &cobra.Command{
		Use:           "timing <match-id>",
		Short:         "Record stoppage and extra time",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatchTiming(opts, args[0], cmd)
		},
	}
	timing.Flags().IntVar(&opts.Stoppage, "stoppage", 0, "stoppage minutes")
	timing.Flags().BoolVar(&opts.ExtraTime, "extra-time", false, "match goes to extra time")

	cmd.AddCommand(create, start, status, timing)
	return cmd
}

func runMatchCreate(opts *MatchOptions, matchID string, cmd *cobra.Command) error {
	ctx := commandContext(cmd.Context())
	e, err := openEnv(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	g := match.Game{
		ID:                matchID,
		RegulationMinutes: opts.Regulation,
		StoppageMinutes:   opts.Stoppage,
		ExtraTime:         opts.ExtraTime,
	}
	if err := svc.CreateGame(ctx, g); err != nil {
		return mutationError("failed to create match", err)
	}
	return newFormatter(opts.RootOptions, cmd).Success(
		map[string]any{"match_id": matchID, "status": match.StatusScheduled},
		func(w io.Writer) { fmt.Fprintf(w, "✓ match %s scheduled\n", matchID) },
	)
}

// loadRoster reads a roster file with strict field checking.
func loadRoster(path string) ([]match.RosterEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	var r harness.RosterSetup
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return r.Entries(), nil
}

func runMatchStart(opts *MatchOptions, matchID string, cmd *cobra.Command) error {
	roster, err := loadRoster(opts.Roster)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid roster", err)
	}

	ctx := commandContext(cmd.Context())
	e, err := openEnv(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	if err := svc.StartMatch(ctx, matchID, roster); err != nil {
		return mutationError("failed to start match", err)
	}
	return newFormatter(opts.RootOptions, cmd).Success(
		map[string]any{"match_id": matchID, "status": match.StatusInProgress, "players": len(roster)},
		func(w io.Writer) { fmt.Fprintf(w, "✓ match %s in progress (%d players)\n", matchID, len(roster)) },
	)
}

func runMatchStatus(opts *MatchOptions, matchID, status string, cmd *cobra.Command) error {
	ctx := commandContext(cmd.Context())
	e, err := openEnv(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	if err := svc.TransitionMatch(ctx, matchID, match.MatchStatus(status)); err != nil {
		return mutationError("failed to change match status", err)
	}
	return newFormatter(opts.RootOptions, cmd).Success(
		map[string]any{"match_id": matchID, "status": status},
		func(w io.Writer) { fmt.Fprintf(w, "✓ match %s %s\n", matchID, status) },
	)
}

func runMatchTiming(opts *MatchOptions, matchID string, cmd *cobra.Command) error {
	ctx := commandContext(cmd.Context())
	e, err := openEnv(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}
	if err := svc.SetTiming(ctx, matchID, opts.Stoppage, opts.ExtraTime); err != nil {
		return mutationError("failed to set timing", err)
	}
	return newFormatter(opts.RootOptions, cmd).Success(
		map[string]any{"match_id": matchID, "stoppage": opts.Stoppage, "extra_time": opts.ExtraTime},
		func(w io.Writer) { fmt.Fprintf(w, "✓ match %s: %d stoppage minutes\n", matchID, opts.Stoppage) },
	)
}

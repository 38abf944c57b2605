package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/touchline/internal/events"
	"github.com/roach88/touchline/internal/match"
)

// RecordOptions holds flags for the record subcommands.
type RecordOptions struct {
	*RootOptions
	Match  string
	Minute int

	// goal
	Scorer       string
	Assister     string
	Contributors []string
	Opponent     bool
	GoalKind     string

	// card
	Player     string
	Card       string
	CardReason string

	// substitution
	Out      string
	In       string
	SubKind  string
	State    string
	SubNotes string
}

// NewRecordCommand creates the record command group. Every event goes
// through the same validation as any other writer: eligibility against the
// timeline, then the future-consistency guard.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record goals, cards and substitutions",
		Long: `Record a match event.

Rejected events exit with code 1 and print the reason, e.g.
"player p5 has already been sent off by minute 70".`,
	}
	cmd.PersistentFlags().StringVar(&opts.Match, "match", "", "match ID (required)")
	cmd.PersistentFlags().IntVar(&opts.Minute, "minute", 0, "match minute (1-120)")
	_ = cmd.MarkPersistentFlagRequired("match")

	goal := &cobra.Command{
		Use:           "goal",
		Short:         "Record a goal",
		Example:       `  touchline record goal --match m1 --minute 23 --scorer p9 --assister p10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd, func(ctx context.Context, svc *events.Service) (string, error) {
				g, err := svc.CreateGoal(ctx, match.Goal{
					MatchID:      opts.Match,
					Minute:       opts.Minute,
					Scorer:       opts.Scorer,
					Assister:     opts.Assister,
					Contributors: opts.Contributors,
					Opponent:     opts.Opponent,
					GoalKind:     match.GoalKind(opts.GoalKind),
				})
				return g.ID, err
			})
		},
	}
	goal.Flags().StringVar(&opts.Scorer, "scorer", "", "scoring player")
	goal.Flags().StringVar(&opts.Assister, "assister", "", "assisting player")
	goal.Flags().StringSliceVar(&opts.Contributors, "contributor", nil, "other contributing players")
	goal.Flags().BoolVar(&opts.Opponent, "opponent", false, "goal conceded to the opponent")
	goal.Flags().StringVar(&opts.GoalKind, "kind", string(match.GoalOpenPlay), "goal kind")

	card := &cobra.Command{
		Use:           "card",
		Short:         "Record a yellow, second yellow or red card",
		Example:       `  touchline record card --match m1 --minute 40 --player p5 --kind red --reason "Serious foul play"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd, func(ctx context.Context, svc *events.Service) (string, error) {
				c, err := svc.CreateCard(ctx, match.Card{
					MatchID:  opts.Match,
					Minute:   opts.Minute,
					Player:   opts.Player,
					CardKind: match.CardKind(opts.Card),
					Reason:   opts.CardReason,
				})
				return c.ID, err
			})
		},
	}
	card.Flags().StringVar(&opts.Player, "player", "", "booked player")
	card.Flags().StringVar(&opts.Card, "kind", "", "yellow, second_yellow or red")
	card.Flags().StringVar(&opts.CardReason, "reason", "", "free-text reason")

	sub := &cobra.Command{
		Use:           "sub",
		Short:         "Record a substitution",
		Example:       `  touchline record sub --match m1 --minute 60 --out p1 --in b1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd, func(ctx context.Context, svc *events.Service) (string, error) {
				s, err := svc.CreateSubstitution(ctx, match.Substitution{
					MatchID:   opts.Match,
					Minute:    opts.Minute,
					PlayerOut: opts.Out,
					PlayerIn:  opts.In,
					Reason:    match.SubReason(opts.SubKind),
					State:     match.MatchState(opts.State),
					Note:      opts.SubNotes,
				})
				return s.ID, err
			})
		},
	}
	sub.Flags().StringVar(&opts.Out, "out", "", "player leaving")
	sub.Flags().StringVar(&opts.In, "in", "", "player entering")
	sub.Flags().StringVar(&opts.SubKind, "reason", string(match.SubTactical), "substitution reason")
	sub.Flags().StringVar(&opts.State, "state", string(match.StateDrawing), "match state at the substitution")
	sub.Flags().StringVar(&opts.SubNotes, "note", "", "free-text note")

	del := &cobra.Command{
		Use:           "delete <goal|card|sub> <event-id>",
		Short:         "Delete a recorded event",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id := args[0], args[1]
			return runRecord(opts, cmd, func(ctx context.Context, svc *events.Service) (string, error) {
				switch kind {
				case "goal":
					return id, svc.DeleteGoal(ctx, opts.Match, id)
				case "card":
					return id, svc.DeleteCard(ctx, opts.Match, id)
				case "sub":
					return id, svc.DeleteSubstitution(ctx, opts.Match, id)
				}
				return "", NewExitError(ExitCommandError, fmt.Sprintf("unknown event kind %q", kind))
			})
		},
	}

	cmd.AddCommand(goal, card, sub, del)
	return cmd
}

// runRecord opens the service, applies one mutation and reports the event
// ID or the rejection.
func runRecord(opts *RecordOptions, cmd *cobra.Command, apply func(context.Context, *events.Service) (string, error)) error {
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

	out := newFormatter(opts.RootOptions, cmd)
	id, err := apply(ctx, svc)
	if err != nil {
		var rejected *events.RejectedError
		if errors.As(err, &rejected) {
			if ferr := out.Error(CodeRejected, rejected.Reason, map[string]string{"op": rejected.Op}); ferr != nil {
				return ferr
			}
			return WrapExitError(ExitFailure, cmd.Name()+" rejected", err)
		}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		return mutationError("failed to record "+cmd.Name(), err)
	}

	e.logger.Debug("event recorded", "match_id", opts.Match, "event_id", id, "op", cmd.Name())
	return out.Success(
		map[string]string{"match_id": opts.Match, "event_id": id},
		func(w io.Writer) { fmt.Fprintf(w, "✓ %s %s\n", cmd.Name(), id) },
	)
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/touchline/internal/recalc"
)

// NewEnqueueCommand creates the enqueue command.
func NewEnqueueCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <match-id>",
		Short: "Submit a recalculation job by hand",
		Long: `Submit a recalculation job for a match.

Event mutations submit jobs on their own; use this after a job failed
permanently or when stored stats are known to be stale.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnqueue(rootOpts, args[0], cmd)
		},
	}
}

func runEnqueue(opts *RootOptions, matchID string, cmd *cobra.Command) error {
	ctx := commandContext(cmd.Context())
	e, err := openEnv(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	if _, err := e.store.Game(ctx, matchID); err != nil {
		return mutationError("failed to load match", err)
	}
	job, err := e.submitter().Submit(ctx, recalc.KindRecalcMinutes, matchID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to enqueue job", err)
	}

	return newFormatter(opts, cmd).Success(job, func(w io.Writer) {
		fmt.Fprintf(w, "✓ job %s queued for match %s\n", job.ID, matchID)
	})
}

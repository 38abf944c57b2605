package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/touchline/internal/recalc"
)

// JobsOptions holds flags for the jobs command.
type JobsOptions struct {
	*RootOptions
	Status       string
	Match        string
	Limit        int
	RequeueStale time.Duration
}

// JobsResult is the output of the jobs command.
type JobsResult struct {
	Requeued int          `json:"requeued,omitempty"`
	Jobs     []recalc.Job `json:"jobs"`
}

// NewJobsCommand creates the jobs command.
func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JobsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recalculation jobs",
		Long: `List recalculation jobs, oldest first.

--requeue-stale returns jobs that have been running for longer than the
given duration to pending before listing. Use it after a worker crashed
mid-job.

Examples:
  touchline jobs
  touchline jobs --status failed
  touchline jobs --match m1 --format json
  touchline jobs --requeue-stale 10m`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status (pending|running|completed|failed)")
	cmd.Flags().StringVar(&opts.Match, "match", "", "filter by match ID")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of jobs (0 = all)")
	cmd.Flags().DurationVar(&opts.RequeueStale, "requeue-stale", 0, "requeue jobs running longer than this first")

	return cmd
}

func runJobs(opts *JobsOptions, cmd *cobra.Command) error {
	filter := recalc.Filter{MatchID: opts.Match, Limit: opts.Limit}
	if opts.Status != "" {
		st, err := recalc.ParseStatus(opts.Status)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --status", err)
		}
		filter.Status = st
	}

	ctx := commandContext(cmd.Context())
	e, err := openEnv(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()

	var result JobsResult
	if opts.RequeueStale > 0 {
		cutoff := time.Now().UTC().Add(-opts.RequeueStale)
		result.Requeued, err = e.queue.RequeueStale(ctx, cutoff)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to requeue stale jobs", err)
		}
		e.logger.Info("requeued stale jobs", "count", result.Requeued)
	}

	result.Jobs, err = e.queue.List(ctx, filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list jobs", err)
	}
	if result.Jobs == nil {
		result.Jobs = []recalc.Job{}
	}

	return newFormatter(opts.RootOptions, cmd).Success(result, func(w io.Writer) {
		if opts.RequeueStale > 0 {
			fmt.Fprintf(w, "Requeued %d stale job(s).\n", result.Requeued)
		}
		if len(result.Jobs) == 0 {
			fmt.Fprintln(w, "No jobs found.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tMATCH\tSTATUS\tRETRIES\tRUN AT\tLAST ERROR")
		for _, j := range result.Jobs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
				j.ID, j.MatchID, j.Status, j.RetryCount, j.MaxRetries,
				j.RunAt.Format(time.RFC3339), j.LastError)
		}
		tw.Flush()
	})
}

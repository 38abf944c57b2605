package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/touchline/internal/recalc"
)

// WorkerOptions holds flags for the worker command.
type WorkerOptions struct {
	*RootOptions
	Once bool // drain due jobs and exit
}

// NewWorkerCommand creates the worker command.
func NewWorkerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WorkerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process recalculation jobs",
		Long: `Start the recalculation worker.

The worker polls the job queue and recomputes player minutes, appearances,
goals and assists for each claimed match. Failed jobs are retried with
exponential backoff until their retry budget is spent.

Jobs left running by a crashed worker are returned to pending at start when
worker.stale_after is set in the config.

Example:
  touchline worker --db ./touchline.db
  touchline worker --config ./touchline.cue --verbose
  touchline worker --once`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(opts, cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Once, "once", false, "process all due jobs, then exit")

	return cmd
}

func runWorker(opts *WorkerOptions, cmd *cobra.Command) error {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := commandContext(cmd.Context())
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	e, err := openEnv(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.close()
	slog.SetDefault(e.logger)

	w := recalc.NewWorker(e.queue,
		recalc.WithPollInterval(e.cfg.PollInterval),
		recalc.WithBaseBackoff(e.cfg.BaseBackoff),
		recalc.WithStaleAfter(e.cfg.StaleAfter),
		recalc.WithWorkerLogger(e.logger),
	)
	w.Handle(recalc.KindRecalcMinutes, recalc.NewMinutesHandler(e.engine, e.store))

	if opts.Once {
		n, err := drainQueue(ctx, w)
		if err != nil {
			return WrapExitError(ExitCommandError, "worker error", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Processed %d job(s).\n", n)
		return nil
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			e.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	e.logger.Info("worker starting",
		"db", e.cfg.DatabasePath,
		"queue", e.cfg.QueueBackend,
	)
	fmt.Fprintln(cmd.OutOrStdout(), "Worker started. Waiting for jobs...")
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := w.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "worker error", err)
	}

	e.logger.Info("worker stopped gracefully")
	return nil
}

// drainQueue runs due jobs until none is left.
func drainQueue(ctx context.Context, w *recalc.Worker) (int, error) {
	n := 0
	for {
		ok, err := w.RunOnce(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

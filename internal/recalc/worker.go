package recalc

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Handler performs one job.
type Handler interface {
	Handle(ctx context.Context, job Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job Job) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// staleRequeuer is implemented by queues that can recover jobs abandoned
// in running by a crashed worker.
type staleRequeuer interface {
	RequeueStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Defaults for Worker.
const (
	DefaultPollInterval = time.Second
	DefaultBaseBackoff  = 2 * time.Second
)

// Worker polls a Queue and runs one job at a time.
//
// Worker is single-threaded: Run never processes two jobs concurrently.
// A failing or panicking job never stops the loop.
type Worker struct {
	queue        Queue
	handlers     map[Kind]Handler
	clock        Clock
	logger       *slog.Logger
	pollInterval time.Duration
	baseBackoff  time.Duration
	staleAfter   time.Duration
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithPollInterval sets how long Run sleeps when no job is due.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.pollInterval = d
	}
}

// WithBaseBackoff sets the delay before the first retry.
func WithBaseBackoff(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.baseBackoff = d
	}
}

// WithStaleAfter makes Run return jobs running for longer than d to
// pending when it starts. Zero disables recovery.
func WithStaleAfter(d time.Duration) WorkerOption {
	return func(w *Worker) {
		w.staleAfter = d
	}
}

// WithWorkerClock sets the clock used for claims and retry scheduling.
func WithWorkerClock(c Clock) WorkerOption {
	return func(w *Worker) {
		w.clock = c
	}
}

// WithWorkerLogger sets the logger (default: slog.Default()).
func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = l
	}
}

// NewWorker creates a Worker reading from q.
func NewWorker(q Queue, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:        q,
		handlers:     make(map[Kind]Handler),
		clock:        SystemClock{},
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
		baseBackoff:  DefaultBaseBackoff,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handle registers the handler for a job kind. Call before Run.
func (w *Worker) Handle(kind Kind, h Handler) {
	w.handlers[kind] = h
}

// Run polls until ctx is cancelled. A job already running when ctx is
// cancelled is finished first; Run then returns nil.
func (w *Worker) Run(ctx context.Context) error {
	w.requeueStale(ctx)
	w.logger.Info("worker started", "poll_interval", w.pollInterval)

	for {
		if ctx.Err() != nil {
			w.logger.Info("worker stopped")
			return nil
		}

		processed, err := w.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("worker iteration failed", "error", err)
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
		case <-time.After(w.pollInterval):
		}
	}
}

// RunOnce claims and processes at most one due job. It reports whether a
// job was claimed. The returned error covers queue failures only; job
// failures are recorded on the job.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	job, err := w.queue.Claim(ctx, w.clock.Now())
	if err != nil {
		return false, fmt.Errorf("claim: %w", err)
	}
	if job == nil {
		return false, nil
	}
	return true, w.process(ctx, *job)
}

func (w *Worker) process(ctx context.Context, job Job) error {
	logger := w.logger.With(
		"job_id", job.ID,
		"match_id", job.MatchID,
		"op", string(job.Kind),
	)

	// The job finishes even if shutdown starts while it runs.
	jobCtx := context.WithoutCancel(ctx)

	h, ok := w.handlers[job.Kind]
	if !ok {
		msg := fmt.Sprintf("no handler for job kind %q", job.Kind)
		logger.Error("job failed permanently", "error", msg)
		return w.queue.Fail(jobCtx, job.ID, job.RetryCount, msg, w.clock.Now())
	}

	start := time.Now()
	runErr := safeHandle(jobCtx, h, job, logger)
	if runErr == nil {
		logger.Info("job completed", "duration", time.Since(start))
		return w.queue.Complete(jobCtx, job.ID, w.clock.Now())
	}

	retries := job.RetryCount + 1
	if retries >= job.MaxRetries {
		logger.Error("job failed permanently",
			"retry_count", retries,
			"error", runErr,
		)
		return w.queue.Fail(jobCtx, job.ID, retries, runErr.Error(), w.clock.Now())
	}

	delay := Backoff(w.baseBackoff, retries)
	logger.Warn("job failed, will retry",
		"retry_count", retries,
		"backoff", delay,
		"error", runErr,
	)
	return w.queue.Retry(jobCtx, job.ID, retries, w.clock.Now().Add(delay), runErr.Error())
}

// safeHandle runs h and turns a panic into an error. The stack goes to
// the log, not onto the job.
func safeHandle(ctx context.Context, h Handler, job Job, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Handle(ctx, job)
}

func (w *Worker) requeueStale(ctx context.Context) {
	if w.staleAfter <= 0 {
		return
	}
	rq, ok := w.queue.(staleRequeuer)
	if !ok {
		return
	}
	n, err := rq.RequeueStale(ctx, w.clock.Now().Add(-w.staleAfter))
	if err != nil {
		w.logger.Error("failed to requeue stale jobs", "error", err)
		return
	}
	if n > 0 {
		w.logger.Warn("requeued stale jobs", "count", n)
	}
}

package recalc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/touchline/internal/ids"
)

// Clock supplies wall-clock time for job timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real clock in UTC.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Submitter inserts recalculation jobs.
type Submitter struct {
	queue      Queue
	ids        ids.Generator
	clock      Clock
	logger     *slog.Logger
	maxRetries int
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithIDs sets the job ID generator (default: UUIDv7).
func WithIDs(g ids.Generator) SubmitterOption {
	return func(s *Submitter) {
		s.ids = g
	}
}

// WithSubmitClock sets the clock used for CreatedAt and RunAt.
func WithSubmitClock(c Clock) SubmitterOption {
	return func(s *Submitter) {
		s.clock = c
	}
}

// WithSubmitLogger sets the logger (default: slog.Default()).
func WithSubmitLogger(l *slog.Logger) SubmitterOption {
	return func(s *Submitter) {
		s.logger = l
	}
}

// WithMaxRetries sets the retry budget of new jobs.
func WithMaxRetries(n int) SubmitterOption {
	return func(s *Submitter) {
		s.maxRetries = n
	}
}

// NewSubmitter creates a Submitter writing to q.
func NewSubmitter(q Queue, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		queue:      q,
		ids:        ids.UUIDv7{},
		clock:      SystemClock{},
		logger:     slog.Default(),
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit inserts a pending job due immediately and returns it.
func (s *Submitter) Submit(ctx context.Context, kind Kind, matchID string) (Job, error) {
	if matchID == "" {
		return Job{}, fmt.Errorf("submit %s: match id is required", kind)
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return Job{}, fmt.Errorf("submit: %w", err)
	}
	now := s.clock.Now()
	job := Job{
		ID:         s.ids.Generate(),
		Kind:       kind,
		MatchID:    matchID,
		Status:     StatusPending,
		MaxRetries: s.maxRetries,
		RunAt:      now,
		CreatedAt:  now,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return Job{}, fmt.Errorf("submit %s for match %s: %w", kind, matchID, err)
	}
	return job, nil
}

// SubmitRecalcJob enqueues a recalc-minutes job for the match.
//
// The insert is awaited but its failure is only logged: the mutation that
// triggered it has already been persisted and must not be reported as
// failed. Derived statistics stay stale until the next successful job for
// the match.
func (s *Submitter) SubmitRecalcJob(ctx context.Context, matchID string) {
	job, err := s.Submit(ctx, KindRecalcMinutes, matchID)
	if err != nil {
		s.logger.Error("failed to submit recalc job",
			"match_id", matchID,
			"error", err,
		)
		return
	}
	s.logger.Debug("recalc job submitted",
		"match_id", matchID,
		"job_id", job.ID,
	)
}

package recalc

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind names the work a job performs.
type Kind string

// KindRecalcMinutes recomputes minutes played, appearances, goals and
// assists for one match.
const KindRecalcMinutes Kind = "recalc-minutes"

// ParseKind validates a job kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRecalcMinutes:
		return KindRecalcMinutes, nil
	}
	return "", fmt.Errorf("unknown job kind %q", s)
}

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ParseStatus validates a job status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// DefaultMaxRetries is the retry budget of a new job.
const DefaultMaxRetries = 5

// Job is one durable unit of deferred recomputation.
type Job struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	MatchID     string     `json:"match_id"`
	Status      Status     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	LastError   string     `json:"last_error,omitempty"`
	RunAt       time.Time  `json:"run_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Status  Status
	MatchID string
	Limit   int
}

// ErrJobNotFound is returned when a transition targets a job that does not
// exist or is not in the expected state.
var ErrJobNotFound = errors.New("job not found")

// Queue is a durable job collection with an atomic claim.
//
// Claim moves the earliest due pending job to running and returns it, or
// returns nil when nothing is due. Two concurrent Claim calls never return
// the same job.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Claim(ctx context.Context, now time.Time) (*Job, error)
	Complete(ctx context.Context, id string, now time.Time) error
	Retry(ctx context.Context, id string, retryCount int, runAt time.Time, lastErr string) error
	Fail(ctx context.Context, id string, retryCount int, lastErr string, now time.Time) error
	List(ctx context.Context, f Filter) ([]Job, error)
}

// Backoff returns the delay before retry number retryCount (1-based):
// base × 2^(retryCount−1).
func Backoff(base time.Duration, retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	return base << (retryCount - 1)
}

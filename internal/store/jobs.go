package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/touchline/internal/recalc"
)

var _ recalc.Queue = (*Store)(nil)

const jobColumns = `id, kind, match_id, status, retry_count, max_retries, last_error, run_at, started_at, completed_at, created_at`

// Enqueue inserts a pending job. Zero MaxRetries becomes
// recalc.DefaultMaxRetries and a zero RunAt becomes CreatedAt.
func (s *Store) Enqueue(ctx context.Context, job recalc.Job) error {
	if job.MaxRetries <= 0 {
		job.MaxRetries = recalc.DefaultMaxRetries
	}
	if job.RunAt.IsZero() {
		job.RunAt = job.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recalc_jobs (id, kind, match_id, status, retry_count, max_retries, run_at, created_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)
	`,
		job.ID,
		string(job.Kind),
		job.MatchID,
		string(recalc.StatusPending),
		job.MaxRetries,
		toMillis(job.RunAt),
		toMillis(job.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Claim atomically moves the earliest due pending job to running.
//
// The subquery picks the candidate and the outer status check makes the
// update a compare-and-swap: if another connection claimed the same row
// first, no row is updated and Claim returns nil.
func (s *Store) Claim(ctx context.Context, now time.Time) (*recalc.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE recalc_jobs
		SET status = ?, started_at = ?
		WHERE id = (
			SELECT id FROM recalc_jobs
			WHERE status = ? AND run_at <= ?
			ORDER BY run_at ASC, id COLLATE BINARY ASC
			LIMIT 1
		) AND status = ?
		RETURNING `+jobColumns,
		string(recalc.StatusRunning),
		toMillis(now),
		string(recalc.StatusPending),
		toMillis(now),
		string(recalc.StatusPending),
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return &job, nil
}

// Complete marks a running job completed.
func (s *Store) Complete(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recalc_jobs SET status = ?, completed_at = ?, last_error = ''
		WHERE id = ? AND status = ?
	`, string(recalc.StatusCompleted), toMillis(now), id, string(recalc.StatusRunning))
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return jobAffected(res, "complete", id)
}

// Retry puts a running job back to pending, due at runAt.
func (s *Store) Retry(ctx context.Context, id string, retryCount int, runAt time.Time, lastErr string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recalc_jobs
		SET status = ?, retry_count = ?, run_at = ?, last_error = ?, started_at = NULL
		WHERE id = ? AND status = ?
	`, string(recalc.StatusPending), retryCount, toMillis(runAt), lastErr, id, string(recalc.StatusRunning))
	if err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	return jobAffected(res, "retry", id)
}

// Fail marks a running job permanently failed.
func (s *Store) Fail(ctx context.Context, id string, retryCount int, lastErr string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recalc_jobs
		SET status = ?, retry_count = ?, last_error = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`, string(recalc.StatusFailed), retryCount, lastErr, toMillis(now), id, string(recalc.StatusRunning))
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return jobAffected(res, "fail", id)
}

// RequeueStale returns jobs left running since before cutoff to pending.
// A worker that crashed mid-job leaves its job running forever otherwise.
func (s *Store) RequeueStale(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recalc_jobs SET status = ?, started_at = NULL
		WHERE status = ? AND started_at < ?
	`, string(recalc.StatusPending), string(recalc.StatusRunning), toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}
	return int(n), nil
}

// Job returns a single job. Returns recalc.ErrJobNotFound if it does not
// exist.
func (s *Store) Job(ctx context.Context, id string) (recalc.Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM recalc_jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return recalc.Job{}, fmt.Errorf("job %s: %w", id, recalc.ErrJobNotFound)
	}
	if err != nil {
		return recalc.Job{}, fmt.Errorf("read job: %w", err)
	}
	return job, nil
}

// List returns jobs matching f ordered by creation time then ID.
func (s *Store) List(ctx context.Context, f recalc.Filter) ([]recalc.Job, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.MatchID != "" {
		where = append(where, "match_id = ?")
		args = append(args, f.MatchID)
	}

	query := "SELECT " + jobColumns + " FROM recalc_jobs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC, id COLLATE BINARY ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	jobs := []recalc.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(row rowScanner) (recalc.Job, error) {
	var (
		job                    recalc.Job
		kind, status           string
		runAt, createdAt       int64
		startedAt, completedAt sql.NullInt64
	)
	err := row.Scan(
		&job.ID,
		&kind,
		&job.MatchID,
		&status,
		&job.RetryCount,
		&job.MaxRetries,
		&job.LastError,
		&runAt,
		&startedAt,
		&completedAt,
		&createdAt,
	)
	if err != nil {
		return recalc.Job{}, err
	}
	if job.Kind, err = recalc.ParseKind(kind); err != nil {
		return recalc.Job{}, fmt.Errorf("scan job %s: %w", job.ID, err)
	}
	if job.Status, err = recalc.ParseStatus(status); err != nil {
		return recalc.Job{}, fmt.Errorf("scan job %s: %w", job.ID, err)
	}
	job.RunAt = fromMillis(runAt)
	job.StartedAt = fromNullMillis(startedAt)
	job.CompletedAt = fromNullMillis(completedAt)
	job.CreatedAt = fromMillis(createdAt)
	return job, nil
}

func jobAffected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s job: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s job %s: %w", op, id, recalc.ErrJobNotFound)
	}
	return nil
}

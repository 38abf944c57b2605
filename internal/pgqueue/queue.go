// Package pgqueue is a PostgreSQL recalc.Queue for deployments that run
// several workers against one database.
//
// Claim locks the candidate row with FOR UPDATE SKIP LOCKED, so concurrent
// workers never block on each other and never receive the same job.
package pgqueue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/roach88/touchline/internal/recalc"
)

//go:embed schema.sql
var schemaSQL string

var _ recalc.Queue = (*Queue)(nil)

const jobColumns = `id, kind, match_id, status, retry_count, max_retries, last_error, run_at, started_at, completed_at, created_at`

// Queue stores recalc jobs in PostgreSQL.
type Queue struct {
	db *sql.DB
}

// Open connects to dsn, checks the connection and ensures the schema.
func Open(ctx context.Context, dsn string) (*Queue, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	q := &Queue{db: db}
	if err := q.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return q, nil
}

// New wraps an existing connection pool. The caller owns db.
func New(db *sql.DB) *Queue {
	return &Queue{db: db}
}

// Close closes the connection pool.
func (q *Queue) Close() error {
	return q.db.Close()
}

// EnsureSchema creates the jobs table and indexes if missing.
func (q *Queue) EnsureSchema(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Enqueue inserts a pending job, with the same defaults as the SQLite
// queue.
func (q *Queue) Enqueue(ctx context.Context, job recalc.Job) error {
	if job.MaxRetries <= 0 {
		job.MaxRetries = recalc.DefaultMaxRetries
	}
	if job.RunAt.IsZero() {
		job.RunAt = job.CreatedAt
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO recalc_jobs (id, kind, match_id, status, retry_count, max_retries, run_at, created_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7)
	`, job.ID, string(job.Kind), job.MatchID, string(recalc.StatusPending), job.MaxRetries, job.RunAt.UTC(), job.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Claim moves the earliest due pending job to running. Returns nil when no
// job is due.
func (q *Queue) Claim(ctx context.Context, now time.Time) (*recalc.Job, error) {
	row := q.db.QueryRowContext(ctx, `
		WITH next_job AS (
			SELECT id
			FROM recalc_jobs
			WHERE status = 'pending' AND run_at <= $1
			ORDER BY run_at, id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE recalc_jobs
		SET status = 'running', started_at = $1
		FROM next_job
		WHERE recalc_jobs.id = next_job.id
		RETURNING `+qualified("recalc_jobs"), now.UTC())
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
func (q *Queue) Complete(ctx context.Context, id string, now time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE recalc_jobs SET status = 'completed', completed_at = $2, last_error = ''
		WHERE id = $1 AND status = 'running'
	`, id, now.UTC())
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return jobAffected(res, "complete", id)
}

// Retry puts a running job back to pending, due at runAt.
func (q *Queue) Retry(ctx context.Context, id string, retryCount int, runAt time.Time, lastErr string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE recalc_jobs
		SET status = 'pending', retry_count = $2, run_at = $3, last_error = $4, started_at = NULL
		WHERE id = $1 AND status = 'running'
	`, id, retryCount, runAt.UTC(), lastErr)
	if err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	return jobAffected(res, "retry", id)
}

// Fail marks a running job permanently failed.
func (q *Queue) Fail(ctx context.Context, id string, retryCount int, lastErr string, now time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE recalc_jobs
		SET status = 'failed', retry_count = $2, last_error = $3, completed_at = $4
		WHERE id = $1 AND status = 'running'
	`, id, retryCount, lastErr, now.UTC())
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return jobAffected(res, "fail", id)
}

// RequeueStale returns jobs left running since before cutoff to pending.
func (q *Queue) RequeueStale(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE recalc_jobs SET status = 'pending', started_at = NULL
		WHERE status = 'running' AND started_at < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("requeue stale jobs: %w", err)
	}
	return int(n), nil
}

// Job returns a single job or recalc.ErrJobNotFound.
func (q *Queue) Job(ctx context.Context, id string) (recalc.Job, error) {
	row := q.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM recalc_jobs WHERE id = $1", id)
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
func (q *Queue) List(ctx context.Context, f recalc.Filter) ([]recalc.Job, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if f.MatchID != "" {
		args = append(args, f.MatchID)
		where = append(where, "match_id = $"+strconv.Itoa(len(args)))
	}

	query := "SELECT " + jobColumns + " FROM recalc_jobs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id COLLATE "C"`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
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

func qualified(table string) string {
	cols := strings.Split(jobColumns, ", ")
	for i, c := range cols {
		cols[i] = table + "." + c
	}
	return strings.Join(cols, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (recalc.Job, error) {
	var (
		job                    recalc.Job
		kind, status           string
		startedAt, completedAt sql.NullTime
	)
	err := row.Scan(
		&job.ID,
		&kind,
		&job.MatchID,
		&status,
		&job.RetryCount,
		&job.MaxRetries,
		&job.LastError,
		&job.RunAt,
		&startedAt,
		&completedAt,
		&job.CreatedAt,
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
	job.RunAt = job.RunAt.UTC()
	job.CreatedAt = job.CreatedAt.UTC()
	job.StartedAt = nullTime(startedAt)
	job.CompletedAt = nullTime(completedAt)
	return job, nil
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
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

package recalc

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// memQueue is an in-memory Queue for worker tests.
type memQueue struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	claimErr error
	enqErr   error
	requeued []time.Time
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: make(map[string]*Job)}
}

func (q *memQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqErr != nil {
		return q.enqErr
	}
	if job.MaxRetries <= 0 {
		job.MaxRetries = DefaultMaxRetries
	}
	job.Status = StatusPending
	q.jobs[job.ID] = &job
	return nil
}

func (q *memQueue) Claim(ctx context.Context, now time.Time) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.claimErr != nil {
		return nil, q.claimErr
	}
	var due []*Job
	for _, j := range q.jobs {
		if j.Status == StatusPending && !j.RunAt.After(now) {
			due = append(due, j)
		}
	}
	if len(due) == 0 {
		return nil, nil
	}
	slices.SortFunc(due, func(a, b *Job) int {
		if c := a.RunAt.Compare(b.RunAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	j := due[0]
	j.Status = StatusRunning
	started := now
	j.StartedAt = &started
	out := *j
	return &out, nil
}

func (q *memQueue) transition(id string, fn func(j *Job)) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok || j.Status != StatusRunning {
		return ErrJobNotFound
	}
	fn(j)
	return nil
}

func (q *memQueue) Complete(ctx context.Context, id string, now time.Time) error {
	return q.transition(id, func(j *Job) {
		j.Status = StatusCompleted
		j.CompletedAt = &now
		j.LastError = ""
	})
}

func (q *memQueue) Retry(ctx context.Context, id string, retryCount int, runAt time.Time, lastErr string) error {
	return q.transition(id, func(j *Job) {
		j.Status = StatusPending
		j.RetryCount = retryCount
		j.RunAt = runAt
		j.LastError = lastErr
		j.StartedAt = nil
	})
}

func (q *memQueue) Fail(ctx context.Context, id string, retryCount int, lastErr string, now time.Time) error {
	return q.transition(id, func(j *Job) {
		j.Status = StatusFailed
		j.RetryCount = retryCount
		j.LastError = lastErr
		j.CompletedAt = &now
	})
}

func (q *memQueue) List(ctx context.Context, f Filter) ([]Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := []Job{}
	for _, j := range q.jobs {
		if (f.Status == "" || j.Status == f.Status) && (f.MatchID == "" || j.MatchID == f.MatchID) {
			out = append(out, *j)
		}
	}
	slices.SortFunc(out, func(a, b Job) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (q *memQueue) RequeueStale(ctx context.Context, cutoff time.Time) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.requeued = append(q.requeued, cutoff)
	n := 0
	for _, j := range q.jobs {
		if j.Status == StatusRunning && j.StartedAt != nil && j.StartedAt.Before(cutoff) {
			j.Status = StatusPending
			j.StartedAt = nil
			n++
		}
	}
	return n, nil
}

func (q *memQueue) get(id string) Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return *q.jobs[id]
}

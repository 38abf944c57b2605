package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/touchline/internal/recalc"
)

func newJob(id, matchID string, created time.Time) recalc.Job {
	return recalc.Job{ID: id, Kind: recalc.KindRecalcMinutes, MatchID: matchID, CreatedAt: created}
}

func TestEnqueue_Defaults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, newJob("j1", "m1", t0)))

	job, err := s.Job(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, recalc.StatusPending, job.Status)
	assert.Equal(t, recalc.DefaultMaxRetries, job.MaxRetries)
	assert.Equal(t, 0, job.RetryCount)
	assert.Equal(t, t0, job.RunAt)
	assert.Equal(t, t0, job.CreatedAt)
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
}

func TestClaim_EarliestDueFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	later := newJob("j-later", "m1", t0)
	later.RunAt = t0.Add(time.Minute)
	require.NoError(t, s.Enqueue(ctx, later))
	require.NoError(t, s.Enqueue(ctx, newJob("j-b", "m2", t0)))
	require.NoError(t, s.Enqueue(ctx, newJob("j-a", "m3", t0)))

	now := t0.Add(time.Second)
	first, err := s.Claim(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "j-a", first.ID, "ties on run_at break on id")
	assert.Equal(t, recalc.StatusRunning, first.Status)
	require.NotNil(t, first.StartedAt)
	assert.Equal(t, now, *first.StartedAt)

	second, err := s.Claim(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "j-b", second.ID)

	none, err := s.Claim(ctx, now)
	require.NoError(t, err)
	assert.Nil(t, none, "j-later is not due yet")

	due, err := s.Claim(ctx, t0.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, due)
	assert.Equal(t, "j-later", due.ID)
}

func TestClaim_EmptyQueue(t *testing.T) {
	s := createTestStore(t)

	job, err := s.Claim(context.Background(), t0)

	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestClaim_ConcurrentClaimsNeverShareAJob(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	const jobs = 20
	for i := 0; i < jobs; i++ {
		require.NoError(t, s.Enqueue(ctx, newJob(fmt.Sprintf("j%02d", i), "m1", t0)))
	}

	var (
		mu      sync.Mutex
		claimed = make(map[string]int)
		wg      sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, err := s.Claim(ctx, t0)
				if err != nil {
					t.Errorf("Claim() failed: %v", err)
					return
				}
				if job == nil {
					return
				}
				mu.Lock()
				claimed[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, claimed, jobs)
	for id, n := range claimed {
		assert.Equal(t, 1, n, "job %s claimed %d times", id, n)
	}
}

func TestComplete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Enqueue(ctx, newJob("j1", "m1", t0)))
	_, err := s.Claim(ctx, t0)
	require.NoError(t, err)

	done := t0.Add(2 * time.Second)
	require.NoError(t, s.Complete(ctx, "j1", done))

	job, err := s.Job(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, recalc.StatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
	assert.Equal(t, done, *job.CompletedAt)
}

func TestComplete_RequiresRunning(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Enqueue(ctx, newJob("j1", "m1", t0)))

	err := s.Complete(ctx, "j1", t0)

	assert.ErrorIs(t, err, recalc.ErrJobNotFound)
}

func TestRetry_ReschedulesAndClearsStart(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Enqueue(ctx, newJob("j1", "m1", t0)))
	_, err := s.Claim(ctx, t0)
	require.NoError(t, err)

	runAt := t0.Add(time.Minute)
	require.NoError(t, s.Retry(ctx, "j1", 1, runAt, "database locked"))

	job, err := s.Job(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, recalc.StatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, runAt, job.RunAt)
	assert.Equal(t, "database locked", job.LastError)
	assert.Nil(t, job.StartedAt)

	none, err := s.Claim(ctx, t0.Add(time.Second))
	require.NoError(t, err)
	assert.Nil(t, none, "retried job waits for its backoff")
}

func TestFail_KeepsLastError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Enqueue(ctx, newJob("j1", "m1", t0)))
	_, err := s.Claim(ctx, t0)
	require.NoError(t, err)

	require.NoError(t, s.Fail(ctx, "j1", 5, "boom", t0.Add(time.Second)))

	job, err := s.Job(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, recalc.StatusFailed, job.Status)
	assert.Equal(t, 5, job.RetryCount)
	assert.Equal(t, "boom", job.LastError)
	assert.NotNil(t, job.CompletedAt)

	none, err := s.Claim(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, none, "failed jobs are never claimed")
}

func TestRequeueStale(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Enqueue(ctx, newJob("a-stale", "m1", t0)))
	require.NoError(t, s.Enqueue(ctx, newJob("b-fresh", "m2", t0)))
	_, err := s.Claim(ctx, t0)
	require.NoError(t, err)
	_, err = s.Claim(ctx, t0.Add(10*time.Minute))
	require.NoError(t, err)

	n, err := s.RequeueStale(ctx, t0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := s.List(ctx, recalc.Filter{Status: recalc.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a-stale", pending[0].ID)
}

func TestList_Filters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Enqueue(ctx, newJob("j1", "m1", t0)))
	require.NoError(t, s.Enqueue(ctx, newJob("j2", "m2", t0.Add(time.Second))))
	require.NoError(t, s.Enqueue(ctx, newJob("j3", "m1", t0.Add(2*time.Second))))
	_, err := s.Claim(ctx, t0)
	require.NoError(t, err)

	all, err := s.List(ctx, recalc.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "j1", all[0].ID)

	m1, err := s.List(ctx, recalc.Filter{MatchID: "m1"})
	require.NoError(t, err)
	assert.Len(t, m1, 2)

	pendingM1, err := s.List(ctx, recalc.Filter{MatchID: "m1", Status: recalc.StatusPending})
	require.NoError(t, err)
	require.Len(t, pendingM1, 1)
	assert.Equal(t, "j3", pendingM1[0].ID)

	limited, err := s.List(ctx, recalc.Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := s.List(ctx, recalc.Filter{MatchID: "m9"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/touchline/internal/recalc"
	"github.com/roach88/touchline/internal/store"
)

func TestEnqueue(t *testing.T) {
	db := startedMatch(t)

	out, err := cliRun(t, "--db", db, "--format", "json", "enqueue", "m1")
	require.NoError(t, err)
	var job recalc.Job
	decodeData(t, out, &job)
	assert.Equal(t, recalc.KindRecalcMinutes, job.Kind)
	assert.Equal(t, "m1", job.MatchID)
	assert.Equal(t, recalc.StatusPending, job.Status)
	assert.Equal(t, recalc.DefaultMaxRetries, job.MaxRetries)
	assert.NotEmpty(t, job.ID)
}

func TestEnqueue_UnknownMatch(t *testing.T) {
	db := startedMatch(t)

	_, err := cliRun(t, "--db", db, "enqueue", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load match")
}

func TestJobs_Empty(t *testing.T) {
	db := startedMatch(t)

	out, err := cliRun(t, "--db", db, "jobs")
	require.NoError(t, err)
	assert.Contains(t, out, "No jobs found.")
}

func TestJobs_InvalidStatus(t *testing.T) {
	_, err := cliRun(t, "jobs", "--status", "stuck")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --status")
}

func TestJobs_RequeueStale(t *testing.T) {
	db := startedMatch(t)
	_, err := cliRun(t, "--db", db, "enqueue", "m1")
	require.NoError(t, err)

	// Claim the job as a worker that then crashed.
	st, err := store.Open(db)
	require.NoError(t, err)
	claimed, err := st.Claim(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.NoError(t, st.Close())

	out, err := cliRun(t, "--db", db, "jobs", "--status", "running")
	require.NoError(t, err)
	assert.Contains(t, out, claimed.ID)

	// Running for less than ten minutes: nothing to requeue.
	out, err = cliRun(t, "--db", db, "--format", "json", "jobs", "--requeue-stale", "10m")
	require.NoError(t, err)
	var result JobsResult
	decodeData(t, out, &result)
	assert.Equal(t, 0, result.Requeued)
	require.Len(t, result.Jobs, 1)
	assert.Equal(t, recalc.StatusRunning, result.Jobs[0].Status)

	// Anything started before now is stale at 1ns.
	time.Sleep(5 * time.Millisecond)
	out, err = cliRun(t, "--db", db, "jobs", "--requeue-stale", "1ns")
	require.NoError(t, err)
	assert.Contains(t, out, "Requeued 1 stale job(s).")
	assert.Contains(t, out, "pending")
}

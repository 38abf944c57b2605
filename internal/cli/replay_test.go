package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/touchline/internal/match"
	"github.com/roach88/touchline/internal/store"
)

func TestReplayEmptyDatabase(t *testing.T) {
	db := t.TempDir() + "/empty.db"

	out, err := cliRun(t, "--db", db, "replay")
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 0 match(es)")
	assert.Contains(t, out, "✓ All matches verified")
}

func TestReplayFreshMatch(t *testing.T) {
	db := startedMatch(t)

	out, err := cliRun(t, "--db", db, "--format", "json", "replay", "--match", "m1")
	require.NoError(t, err)
	var result ReplayResult
	decodeData(t, out, &result)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, VerdictFresh, result.Matches[0].Verdict)
	assert.True(t, result.AllDeterministic)
}

func TestReplayDriftAndRepair(t *testing.T) {
	db := startedMatch(t)
	_, err := cliRun(t, "--db", db, "record", "sub", "--match", "m1", "--minute", "60", "--out", "p1", "--in", "b1")
	require.NoError(t, err)
	_, err = cliRun(t, "--db", db, "worker", "--once")
	require.NoError(t, err)

	// Corrupt one stored row.
	st, err := store.Open(db)
	require.NoError(t, err)
	stats, err := st.PlayerStats(context.Background(), "m1")
	require.NoError(t, err)
	for i := range stats {
		if stats[i].PlayerID == "p1" {
			stats[i].Minutes = 90
		}
	}
	require.NoError(t, st.SavePlayerStats(context.Background(), "m1", stats))
	require.NoError(t, st.Close())

	out, err := cliRun(t, "--db", db, "replay")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Match: m1 (drifted)")
	assert.Contains(t, out, "p1: stored 90 min, 0 G, 0 A; want 60 min, 0 G, 0 A")
	assert.Contains(t, out, "1 match(es) with drifted stats")

	out, err = cliRun(t, "--db", db, "replay", "--repair")
	require.NoError(t, err)
	assert.Contains(t, out, "Recalculation job submitted")

	// The repair job restores the stored stats.
	_, err = cliRun(t, "--db", db, "worker", "--once")
	require.NoError(t, err)
	out, err = cliRun(t, "--db", db, "replay")
	require.NoError(t, err)
	assert.Contains(t, out, "m1 (settled)")
}

func TestStatsDiff(t *testing.T) {
	computed := []match.PlayerStats{
		{PlayerID: "a", Minutes: 90, Appeared: true},
		{PlayerID: "b", Minutes: 0},
	}

	assert.Empty(t, statsDiff(computed, computed))

	diffs := statsDiff([]match.PlayerStats{
		{PlayerID: "a", Minutes: 90, Appeared: true},
		{PlayerID: "z", Minutes: 12},
	}, computed)
	assert.Equal(t, []string{
		"b: not stored (want 0 min)",
		"z: stored but not on the roster",
	}, diffs)
}

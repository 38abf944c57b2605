package recalc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/touchline/internal/match"
)

type fakeCalc struct {
	stats []match.PlayerStats
	err   error
}

func (f fakeCalc) PlayerStats(ctx context.Context, matchID string) ([]match.PlayerStats, error) {
	return f.stats, f.err
}

type fakeWriter struct {
	saved map[string][]match.PlayerStats
	err   error
}

func (f *fakeWriter) SavePlayerStats(ctx context.Context, matchID string, stats []match.PlayerStats) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[string][]match.PlayerStats)
	}
	f.saved[matchID] = stats
	return nil
}

func TestMinutesHandler_SavesStats(t *testing.T) {
	stats := []match.PlayerStats{{PlayerID: "p1", Minutes: 90, Goals: 1, Appeared: true}}
	dst := &fakeWriter{}
	h := NewMinutesHandler(fakeCalc{stats: stats}, dst)

	require.NoError(t, h.Handle(context.Background(), Job{MatchID: "m1"}))

	assert.Equal(t, stats, dst.saved["m1"])
}

func TestMinutesHandler_Errors(t *testing.T) {
	calcErr := errors.New("read failed")
	h := NewMinutesHandler(fakeCalc{err: calcErr}, &fakeWriter{})
	err := h.Handle(context.Background(), Job{MatchID: "m1"})
	assert.ErrorIs(t, err, calcErr)
	assert.Contains(t, err.Error(), "calculate minutes")

	writeErr := errors.New("write failed")
	h = NewMinutesHandler(fakeCalc{}, &fakeWriter{err: writeErr})
	err = h.Handle(context.Background(), Job{MatchID: "m1"})
	assert.ErrorIs(t, err, writeErr)
	assert.Contains(t, err.Error(), "save player stats")
}

package recalc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_Doubles(t *testing.T) {
	base := 2 * time.Second

	assert.Equal(t, 2*time.Second, Backoff(base, 1))
	assert.Equal(t, 4*time.Second, Backoff(base, 2))
	assert.Equal(t, 8*time.Second, Backoff(base, 3))
	assert.Equal(t, 32*time.Second, Backoff(base, 5))
	assert.Equal(t, 2*time.Second, Backoff(base, 0), "retry counts below 1 use the base")
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("recalc-minutes")
	require.NoError(t, err)
	assert.Equal(t, KindRecalcMinutes, k)

	_, err = ParseKind("recalc-everything")
	assert.Error(t, err)
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "running", "completed", "failed"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}
	_, err := ParseStatus("done")
	assert.Error(t, err)
}

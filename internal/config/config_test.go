package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "touchline.db", cfg.DatabasePath)
	assert.Equal(t, BackendSQLite, cfg.QueueBackend)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.BaseBackoff)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Zero(t, cfg.StaleAfter)
	assert.Equal(t, LockMemory, cfg.LockBackend)
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, 25*time.Millisecond, cfg.LockRetry)
	assert.Equal(t, "touchline:lock:", cfg.LockKeyPrefix)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "postgres.cue"))
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.QueueBackend)
	assert.Contains(t, cfg.PostgresDSN, "postgres://")
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.BaseBackoff, "unset fields keep defaults")
	assert.Equal(t, 8, cfg.MaxRetries)
	assert.Equal(t, 10*time.Minute, cfg.StaleAfter)
	assert.Equal(t, LockRedis, cfg.LockBackend)
	assert.Equal(t, 50*time.Millisecond, cfg.LockRetry)
	assert.Equal(t, "league:lock:", cfg.LockKeyPrefix)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", `worker: threads: 4`},
		{"unknown backend", `queue: backend: "mysql"`},
		{"postgres without dsn", `queue: backend: "postgres"`},
		{"redis without url", `lock: backend: "redis"`},
		{"bad duration", `worker: poll_interval: "soon"`},
		{"zero retries", `worker: max_retries: 0`},
		{"zero poll interval", `worker: poll_interval: "0s"`},
		{"zero lock retry", `lock: retry_interval: "0s"`},
		{"empty key prefix", `lock: key_prefix: ""`},
		{"bad level", `log: level: "trace"`},
		{"syntax", `worker: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.cue")
			require.Error(t, err)
			var cfgErr *Error
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

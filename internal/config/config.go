// Package config loads touchline configuration from CUE.
//
// A config file is unified with the embedded #Config schema, so every
// field is optional and unknown fields are rejected:
//
//	queue: backend: "postgres"
//	queue: dsn:     "postgres://touchline@localhost/touchline?sslmode=disable"
//	worker: max_retries: 8
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE []byte

// Queue backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Config is the resolved configuration.
type Config struct {
	DatabasePath string

	QueueBackend string
	PostgresDSN  string

	PollInterval time.Duration
	BaseBackoff  time.Duration
	MaxRetries   int
	StaleAfter   time.Duration

	LockBackend   string
	RedisURL      string
	LockTTL       time.Duration
	LockRetry     time.Duration
	LockKeyPrefix string

	LogLevel slog.Level
}

// file mirrors #Config for decoding.
type file struct {
	Database struct {
		Path string `json:"path"`
	} `json:"database"`
	Queue struct {
		Backend string `json:"backend"`
		DSN     string `json:"dsn"`
	} `json:"queue"`
	Worker struct {
		PollInterval string `json:"poll_interval"`
		BaseBackoff  string `json:"base_backoff"`
		MaxRetries   int    `json:"max_retries"`
		StaleAfter   string `json:"stale_after"`
	} `json:"worker"`
	Lock struct {
		Backend       string `json:"backend"`
		RedisURL      string `json:"redis_url"`
		TTL           string `json:"ttl"`
		RetryInterval string `json:"retry_interval"`
		KeyPrefix     string `json:"key_prefix"`
	} `json:"lock"`
	Log struct {
		Level string `json:"level"`
	} `json:"log"`
}

// Error reports an invalid configuration, with the CUE position when known.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the schema defaults.
func Default() (Config, error) {
	return Parse(nil, "")
}

// Load reads and validates the CUE file at path. An empty path yields the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse validates src against the schema. filename is used in error
// positions only.
func Parse(src []byte, filename string) (Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(src) > 0 {
		user := ctx.CompileBytes(src, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return Config{}, formatCUEError(err)
		}
		v = v.Unify(user)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var f file
	if err := v.Decode(&f); err != nil {
		return Config{}, formatCUEError(err)
	}
	return f.resolve()
}

func (f file) resolve() (Config, error) {
	cfg := Config{
		DatabasePath: f.Database.Path,
		QueueBackend: f.Queue.Backend,
		PostgresDSN:  f.Queue.DSN,
		MaxRetries:   f.Worker.MaxRetries,
		LockBackend:   f.Lock.Backend,
		RedisURL:      f.Lock.RedisURL,
		LockKeyPrefix: f.Lock.KeyPrefix,
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"worker.poll_interval", f.Worker.PollInterval, &cfg.PollInterval},
		{"worker.base_backoff", f.Worker.BaseBackoff, &cfg.BaseBackoff},
		{"worker.stale_after", f.Worker.StaleAfter, &cfg.StaleAfter},
		{"lock.ttl", f.Lock.TTL, &cfg.LockTTL},
		{"lock.retry_interval", f.Lock.RetryInterval, &cfg.LockRetry},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return Config{}, &Error{Message: fmt.Sprintf("%s: %v", d.name, err)}
		}
		*d.dst = parsed
	}
	if cfg.PollInterval <= 0 {
		return Config{}, &Error{Message: "worker.poll_interval must be positive"}
	}
	if cfg.BaseBackoff <= 0 {
		return Config{}, &Error{Message: "worker.base_backoff must be positive"}
	}
	if cfg.LockRetry <= 0 {
		return Config{}, &Error{Message: "lock.retry_interval must be positive"}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(f.Log.Level)); err != nil {
		return Config{}, &Error{Message: fmt.Sprintf("log.level: %v", err)}
	}
	return cfg, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	e := &Error{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}

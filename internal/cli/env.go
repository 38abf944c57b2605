package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/touchline/internal/config"
	"github.com/roach88/touchline/internal/engine"
	"github.com/roach88/touchline/internal/events"
	"github.com/roach88/touchline/internal/lock"
	"github.com/roach88/touchline/internal/pgqueue"
	"github.com/roach88/touchline/internal/recalc"
	"github.com/roach88/touchline/internal/store"
)

// jobQueue is the queue surface the commands use. store.Store and
// pgqueue.Queue implement it.
type jobQueue interface {
	recalc.Queue
	RequeueStale(ctx context.Context, cutoff time.Time) (int, error)
	Job(ctx context.Context, id string) (recalc.Job, error)
}

var (
	_ jobQueue = (*store.Store)(nil)
	_ jobQueue = (*pgqueue.Queue)(nil)
)

// env is the runtime shared by the commands: configuration, logger, the
// SQLite store holding matches and events, and the job queue.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	store  *store.Store
	queue  jobQueue
	engine *engine.Engine

	closers []func() error
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.DatabasePath = opts.Database
	}
	if opts.Verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	return cfg, nil
}

// newLogger writes text logs to w at the configured level.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// openEnv loads the configuration and opens the store and the queue.
// Callers must call close.
func openEnv(ctx context.Context, opts *RootOptions, logOut io.Writer) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	logger := newLogger(logOut, cfg.LogLevel)

	logger.Debug("opening database", "path", cfg.DatabasePath)
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	e := &env{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		queue:   st,
		engine:  engine.New(st, engine.WithLogger(logger)),
		closers: []func() error{st.Close},
	}

	if cfg.QueueBackend == config.BackendPostgres {
		logger.Debug("opening postgres queue")
		q, err := pgqueue.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			e.close()
			return nil, WrapExitError(ExitCommandError, "failed to open postgres queue", err)
		}
		e.queue = q
		e.closers = append(e.closers, q.Close)
	}
	return e, nil
}

// submitter creates a job submitter on the configured queue.
func (e *env) submitter() *recalc.Submitter {
	return recalc.NewSubmitter(e.queue,
		recalc.WithMaxRetries(e.cfg.MaxRetries),
		recalc.WithSubmitLogger(e.logger),
	)
}

// service creates the event service with the configured lock backend.
func (e *env) service(ctx context.Context) (*events.Service, error) {
	locker, err := e.locker(ctx)
	if err != nil {
		return nil, err
	}
	return events.New(e.store, e.submitter(),
		events.WithChecker(e.engine),
		events.WithLocker(locker),
		events.WithLogger(e.logger),
	), nil
}

func (e *env) locker(ctx context.Context) (lock.Locker, error) {
	if e.cfg.LockBackend != config.LockRedis {
		return lock.NewMemoryLocker(), nil
	}
	rl, err := lock.NewRedisLocker(ctx, e.cfg.RedisURL,
		lock.WithTTL(e.cfg.LockTTL),
		lock.WithRetryInterval(e.cfg.LockRetry),
		lock.WithKeyPrefix(e.cfg.LockKeyPrefix),
		lock.WithLogger(e.logger),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to connect to redis", err)
	}
	e.closers = append(e.closers, rl.Close)
	return rl, nil
}

// close releases everything openEnv and service opened, newest first.
func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Error("error closing resource", "error", err)
		}
	}
	e.closers = nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/touchline/internal/ids"
)

// Defaults for RedisLocker.
const (
	DefaultLockTTL   = 10 * time.Second
	DefaultLockRetry = 25 * time.Millisecond
	defaultKeyPrefix = "touchline:lock:"
)

// releaseScript deletes the key only if it still holds our token, so a
// holder whose lease expired cannot release someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process using the same Redis.
//
// A lock is a key set with NX and a TTL. The TTL bounds how long a crashed
// holder can block others; callers must finish well within it.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
	tokens ids.Generator
	logger *slog.Logger
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithTTL sets the lease length (default 10s).
func WithTTL(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		l.ttl = d
	}
}

// WithRetryInterval sets how often a blocked Lock retries (default 25ms).
func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		l.retry = d
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(p string) RedisOption {
	return func(l *RedisLocker) {
		l.prefix = p
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(lg *slog.Logger) RedisOption {
	return func(l *RedisLocker) {
		l.logger = lg
	}
}

// NewRedisLocker connects to redisURL and verifies the connection.
func NewRedisLocker(ctx context.Context, redisURL string, opts ...RedisOption) (*RedisLocker, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	l := &RedisLocker{
		client: client,
		ttl:    DefaultLockTTL,
		retry:  DefaultLockRetry,
		prefix: defaultKeyPrefix,
		tokens: ids.UUIDv7{},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Close closes the Redis connection.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}

// Lock implements Locker.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	rkey := l.prefix + key
	token := l.tokens.Generate()

	for {
		ok, err := l.client.SetNX(ctx, rkey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even if the caller's context is already cancelled.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			n, err := releaseScript.Run(rctx, l.client, []string{rkey}, token).Int()
			if err != nil && !errors.Is(err, redis.Nil) {
				l.logger.Error("failed to release lock", "key", key, "error", err)
				return
			}
			if n == 0 {
				l.logger.Warn("lock lease expired before release", "key", key, "ttl", l.ttl)
			}
		})
	}, nil
}

package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"masterspa/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrImportInProgress = errors.New("an import is already running")
	ErrLockNeedsRedis   = errors.New("IMPORT_LOCK_ENABLED requires REDIS_URL")
)

const DefaultLockKey = "masterspa:import:lock"

// releaseScript deletes the lease only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockOptions returns the importer options for the configured run lease.
// Every entrypoint starting imports goes through it.
func LockOptions(enabled bool, client *redis.Client, ttl time.Duration, logger *logger.Logger) ([]Option, error) {
	if !enabled {
		return nil, nil
	}
	if client == nil {
		return nil, ErrLockNeedsRedis
	}
	return []Option{WithLocker(NewRedisLocker(client, DefaultLockKey, ttl, logger))}, nil
}

// RedisLocker is a single-holder lease shared by every process pointed at
// the same redis.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *logger.Logger
}

func NewRedisLocker(client *redis.Client, key string, ttl time.Duration, logger *logger.Logger) *RedisLocker {
	if key == "" {
		key = DefaultLockKey
	}
	return &RedisLocker{client: client, key: key, ttl: ttl, logger: logger}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire import lock: %w", err)
	}
	if !ok {
		return nil, ErrImportInProgress
	}

	return func() { l.release(token) }, nil
}

// release drops the lease. On failure the lease stays until its TTL runs out.
func (l *RedisLocker) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
		l.logger.Error("Failed to release import lock %s (held until TTL expiry): %v", l.key, err)
	}
}

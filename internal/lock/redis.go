package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
)

const keyPrefix = "autoblog:lock:"

// releaseScript deletes the key only if it still holds our token, so a run
// whose lease expired cannot free a lock taken by the next run.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds a lease in Redis with SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	wait   time.Duration
	token  string
	log    logger.Logger
}

// NewRedisLocker creates a locker for name, usually the state file path.
func NewRedisLocker(client redis.UniversalClient, name string, ttl, wait time.Duration, log logger.Logger) *RedisLocker {
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisLocker{
		client: client,
		key:    keyPrefix + name,
		ttl:    ttl,
		wait:   wait,
		log:    log,
	}
}

// Key returns the Redis key used for the lease.
func (l *RedisLocker) Key() string {
	return l.key
}

// Acquire obtains the lease.
func (l *RedisLocker) Acquire(ctx context.Context) error {
	token := uuid.NewString()
	err := acquire(ctx, l.wait, func(ctx context.Context) error {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("redis lock %s: %w", l.key, err)
		}
		if !ok {
			l.log.Debug("Run lock busy, waiting", logger.String("key", l.key))
			return ErrLockHeld
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.token = token
	l.log.Debug("Run lock acquired", logger.String("key", l.key), logger.Duration("ttl", l.ttl))
	return nil
}

// Release frees the lease if this locker still owns it.
func (l *RedisLocker) Release(ctx context.Context) error {
	if l.token == "" {
		return ErrNotHeld
	}
	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	l.token = ""
	if err != nil {
		return fmt.Errorf("redis unlock %s: %w", l.key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: lease on %s expired", ErrNotHeld, l.key)
	}
	return nil
}

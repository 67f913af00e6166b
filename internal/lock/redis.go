package lock

import (
	"context"
	"fmt"
	"time"

	"erp-planning/internal/core"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so a run whose
// lock expired cannot release a lock taken by a later run.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements core.Locker with SET NX PX keys.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker constructs a RedisLocker. ttl bounds how long a crashed run can
// hold a key.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func lockKey(key string) string {
	return "erpplanning:lock:" + key
}

// Lock sets the key if absent and returns core.ErrLockHeld otherwise.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(key), token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire redis lock %s: %w", key, err)
	}
	if !ok {
		return nil, core.ErrLockHeld
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{lockKey(key)}, token).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("release redis lock %s: %w", key, err)
		}
		return nil
	}, nil
}

package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockPrefix        = "nyumbakumi:lock:"
	lockRetryInterval = 25 * time.Millisecond
	unlockTimeout     = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a KeyedLocker shared by every API instance using the same
// redis. A lock expires after ttl even if its holder never releases it.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisClient creates a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Ping tests the redis connection
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// NewRedisLocker creates a redis-backed locker
func NewRedisLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, log: log}
}

// Lock waits until key is free or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	name := lockPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, name, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return l.unlocker(name, token), nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *RedisLocker) unlocker(name, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(name, token) })
	}
}

func (l *RedisLocker) release(name, token string) {
	// the caller's context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{name}, token).Int()
	if err != nil {
		l.log.Warn("failed to release lock", zap.String("key", name), zap.Error(err))
		return
	}
	if n == 0 {
		l.log.Warn("lock expired before release", zap.String("key", name))
	}
}

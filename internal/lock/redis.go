package lock

import (
	"alcyxob/workout-scheduler/internal/logger"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "workout-scheduler:lock:"
	redisRetryDelay    = 50 * time.Millisecond
	redisUnlockTimeout = 3 * time.Second
)

// releaseScript deletes the key only if it still carries our token, so an expired
// lock re-acquired by another instance is never released by us.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a cross-instance lock built on SET NX PX with a random token.
// The TTL bounds how long a crashed holder can block a schedule.
type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedis(rdb *goredis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, log: log.With("component", "RedisLock")}
}

// DialRedis connects and pings, following the startup checks of the other Redis clients.
func DialRedis(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := r.rdb.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrNotAcquired, ctx.Err())
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-time.After(redisRetryDelay):
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done; release on a fresh one.
			unlockCtx, cancel := context.WithTimeout(context.Background(), redisUnlockTimeout)
			defer cancel()
			if err := releaseScript.Run(unlockCtx, r.rdb, []string{redisKey}, token).Err(); err != nil {
				r.log.Warn("Failed to release lock", "key", key, "error", err)
			}
		})
	}, nil
}

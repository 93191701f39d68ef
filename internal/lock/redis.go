package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisLocker holds keys in Redis so several API instances exclude each
// other. Keys expire after ttl if a holder dies.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(ctx context.Context, addr, password string, ttl time.Duration) (*RedisLocker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	// Never wait longer than a holder may keep the key.
	waitCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	lk, err := l.client.Obtain(waitCtx, "kpitrack:"+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(50 * time.Millisecond),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("lock %s is busy: %w", key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		_ = lk.Release(context.Background())
	}, nil
}

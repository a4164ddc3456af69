package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "lifesaver:cooldown:"

// RedisLimiter stores one key per client whose TTL is the remaining cooldown,
// so the window is shared by every service instance.
type RedisLimiter struct {
	redis  *redis.Client
	window time.Duration
}

// NewRedisLimiter connects to redisURL and verifies the connection
func NewRedisLimiter(ctx context.Context, redisURL string, window time.Duration) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisLimiter{redis: client, window: window}, nil
}

func (l *RedisLimiter) Close() error { return l.redis.Close() }

// Allow claims the client's key for one window. If the key already exists
// the remaining TTL is returned as the retry delay.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	k := keyPrefix + key

	ok, err := l.redis.SetNX(ctx, k, time.Now().UnixMilli(), l.window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("claim cooldown: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := l.redis.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("read cooldown ttl: %w", err)
	}
	// The key vanished between SETNX and PTTL, or has no expiry
	if ttl <= 0 {
		ttl = l.window
	}
	return false, ttl, nil
}

// Package ratelimit enforces the per-client submission cooldown: a client
// may have one submission accepted per window.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether a client may submit now. When allowed is false,
// retryAfter is the time left until the client's window closes.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// Unlimited lets every request through
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, time.Duration, error) {
	return true, 0, nil
}

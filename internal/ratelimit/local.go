package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const defaultLimitPerSec = 100

var _ RateLimiter = (*LocalRateLimiter)(nil)

// LocalRateLimiter is an in-process token bucket per lane. It paces a single
// instance only; use the Redis limiter when several instances share a provider account.
type LocalRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewLocalRateLimiter(limitPerSec int) *LocalRateLimiter {
	if limitPerSec <= 0 {
		limitPerSec = defaultLimitPerSec
	}
	return &LocalRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(limitPerSec),
		burst:    limitPerSec,
	}
}

func (l *LocalRateLimiter) limiterFor(lane string) (*rate.Limiter, error) {
	key := strings.ToLower(strings.TrimSpace(lane))
	if key == "" {
		return nil, fmt.Errorf("lane is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim, nil
}

func (l *LocalRateLimiter) Allow(_ context.Context, lane string) (bool, error) {
	lim, err := l.limiterFor(lane)
	if err != nil {
		return false, err
	}
	return lim.Allow(), nil
}

func (l *LocalRateLimiter) Wait(ctx context.Context, lane string) error {
	lim, err := l.limiterFor(lane)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return lim.Wait(ctx)
}

// Unlimited never blocks.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }
func (Unlimited) Wait(context.Context, string) error          { return nil }

package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/alert-dispatch/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultSendsPerSec int64 = 100
	keyPrefix                = "alert-dispatch:send"
	backoffStep              = 10 * time.Millisecond
	backoffMax               = 50 * time.Millisecond
	windowSeconds            = 1
)

// One counter per lane per second, expiring with its window.
var sendWindowScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*SendRateLimiter)(nil)

// SendRateLimiter paces provider sends across every instance sharing the
// provider account, using a fixed one-second window in Redis.
type SendRateLimiter struct {
	client      goredis.Scripter
	sendsPerSec int64
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewSendRateLimiter(client goredis.Scripter, sendsPerSec int) (*SendRateLimiter, error) {
	return newSendRateLimiter(client, int64(sendsPerSec), time.Now, sleepWithContext)
}

func newSendRateLimiter(
	client goredis.Scripter,
	sendsPerSec int64,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*SendRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if sendsPerSec <= 0 {
		sendsPerSec = defaultSendsPerSec
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &SendRateLimiter{
		client:      client,
		sendsPerSec: sendsPerSec,
		now:         nowFn,
		sleep:       sleepFn,
	}, nil
}

func (r *SendRateLimiter) windowKey(lane string) (string, error) {
	lane = strings.ToLower(strings.TrimSpace(lane))
	if lane == "" {
		return "", fmt.Errorf("lane is required")
	}
	return fmt.Sprintf("%s:%s:%d", keyPrefix, lane, r.now().UTC().Unix()), nil
}

func (r *SendRateLimiter) Allow(ctx context.Context, lane string) (bool, error) {
	if r == nil || r.client == nil {
		return false, fmt.Errorf("rate limiter is not initialized")
	}

	key, err := r.windowKey(lane)
	if err != nil {
		return false, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := sendWindowScript.Run(ctx, r.client, []string{key}, r.sendsPerSec, windowSeconds).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate send window: %w", err)
	}

	return result == 1, nil
}

// Wait blocks until the lane has room in the current window, backing off
// linearly up to backoffMax between checks.
func (r *SendRateLimiter) Wait(ctx context.Context, lane string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for backoff := backoffStep; ; backoff = min(backoff+backoffStep, backoffMax) {
		allowed, err := r.Allow(ctx, lane)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
		if err := r.sleep(ctx, backoff); err != nil {
			return err
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

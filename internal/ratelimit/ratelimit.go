// Package ratelimit paces outbound provider sends.
package ratelimit

import "context"

// RateLimiter paces sends per lane. A lane is the alert kind a send belongs to,
// so text and voice traffic are paced independently.
type RateLimiter interface {
	Allow(ctx context.Context, lane string) (bool, error)
	Wait(ctx context.Context, lane string) error
}

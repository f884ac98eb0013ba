package ratelimit

import (
	"context"
	"errors"
)

var _ RateLimiter = (*Fallback)(nil)

// Fallback paces through Primary and switches to Secondary for any call where
// Primary fails for a reason other than the caller's context.
type Fallback struct {
	Primary   RateLimiter
	Secondary RateLimiter
	// OnError, if set, observes every Primary failure that triggered a switch.
	OnError func(lane string, err error)
}

func (f *Fallback) Allow(ctx context.Context, lane string) (bool, error) {
	allowed, err := f.Primary.Allow(ctx, lane)
	if err == nil || isContextErr(err) {
		return allowed, err
	}
	f.observe(lane, err)
	return f.Secondary.Allow(ctx, lane)
}

func (f *Fallback) Wait(ctx context.Context, lane string) error {
	err := f.Primary.Wait(ctx, lane)
	if err == nil || isContextErr(err) {
		return err
	}
	f.observe(lane, err)
	return f.Secondary.Wait(ctx, lane)
}

func (f *Fallback) observe(lane string, err error) {
	if f.OnError != nil {
		f.OnError(lane, err)
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

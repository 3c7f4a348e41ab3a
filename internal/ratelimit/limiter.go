package ratelimit

import "context"

// RateLimiter caps outbound sends per channel so one burst of submissions
// cannot exhaust a provider account's quota.
type RateLimiter interface {
	// Allow reports whether one more send fits in the current window.
	Allow(ctx context.Context, channel string) (bool, error)
	// Wait blocks until a send slot is available or the context ends.
	Wait(ctx context.Context, channel string) error
}

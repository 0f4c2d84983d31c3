// Package ratelimit provides the token-bucket governor that bounds outbound
// requests to the Hypixel API's published quota. Tokens regenerate
// continuously up to a fixed bucket capacity; all fetchers within a cycle
// contend for the same bucket.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token-bucket rate limiter safe for concurrent use. Fairness is
// best-effort; no caller starves indefinitely while tokens are available.
type Limiter struct {
	lim *rate.Limiter
}

// New creates a Limiter with the given bucket capacity and continuous refill
// rate in tokens per second. The bucket starts full.
func New(capacity int, refillPerSec float64) *Limiter {
	return &Limiter{
		lim: rate.NewLimiter(rate.Limit(refillPerSec), capacity),
	}
}

// Acquire blocks until n tokens are available or the context is cancelled.
// Requests for more tokens than the bucket capacity fail immediately.
func (l *Limiter) Acquire(ctx context.Context, n int) error {
	if err := l.lim.WaitN(ctx, n); err != nil {
		return fmt.Errorf("ratelimit: acquire %d: %w", n, err)
	}
	return nil
}

// TryAcquire reports whether n tokens were immediately available and, if so,
// consumes them. It never blocks.
func (l *Limiter) TryAcquire(n int) bool {
	return l.lim.AllowN(time.Now(), n)
}

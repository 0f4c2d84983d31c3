package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// Policy is a reusable retry policy applied uniformly to every fetch. A zero
// MaxRetries means a single attempt with no retries.
type Policy struct {
	MaxRetries int           // retries after the first attempt
	BaseDelay  time.Duration // first backoff step
	MaxDelay   time.Duration // backoff cap, also caps Retry-After hints
	Retryable  func(error) bool
}

// DefaultRetryable reports whether an error is worth retrying: transient
// fetch failures, rate limiting, and malformed pages (which are treated like
// transient failures rather than partially trusted).
func DefaultRetryable(err error) bool {
	return errors.Is(err, domain.ErrUnavailable) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrMalformed)
}

// Do runs fn until it succeeds, the policy is exhausted, or ctx is cancelled.
// Backoff doubles from BaseDelay up to MaxDelay; when the error carries an
// explicit Retry-After hint, that hint replaces the default schedule for the
// step. The last error is returned wrapped after the final attempt.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = DefaultRetryable
	}

	delay := p.BaseDelay
	var err error
	for attempt := 0; ; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = fn(); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !retryable(err) {
			break
		}

		wait := delay
		var ra *domain.RetryAfterError
		if errors.As(err, &ra) && ra.After > 0 {
			wait = ra.After
		}
		if p.MaxDelay > 0 && wait > p.MaxDelay {
			wait = p.MaxDelay
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return fmt.Errorf("after %d attempt(s): %w", p.MaxRetries+1, err)
}

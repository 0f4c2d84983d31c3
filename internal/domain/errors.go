package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable marks a fetch that failed after exhausting its retries.
	ErrUnavailable = errors.New("market source unavailable")
	// ErrMalformed marks a page payload that violated the expected schema.
	// A malformed page is never coerced into an empty page.
	ErrMalformed = errors.New("malformed page payload")
	// ErrIncompleteSnapshot marks a cycle whose snapshot could not be fully
	// assembled. Fatal to the cycle, never to the process.
	ErrIncompleteSnapshot = errors.New("incomplete snapshot")
	// ErrQuotaExhausted marks a cycle aborted because the rate limiter could
	// not supply tokens within the cycle's time budget.
	ErrQuotaExhausted = errors.New("request quota exhausted")
	// ErrRateLimited marks a 429 response from the market source.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotFound is returned by stores for missing rows or keys.
	ErrNotFound = errors.New("not found")
)

// RetryAfterError wraps ErrRateLimited with the server's explicit retry hint.
// The fetch retry policy sleeps for After instead of its default backoff step
// when this error is observed.
type RetryAfterError struct {
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.After)
}

func (e *RetryAfterError) Unwrap() error {
	return ErrRateLimited
}

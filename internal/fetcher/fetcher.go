// Package fetcher wraps the raw skyblock client with rate limiting and a
// uniform retry policy, presenting the domain.MarketSource contract to the
// snapshot assembler.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// PageClient is the raw API surface the fetcher drives. Implemented by
// skyblock.Client.
type PageClient interface {
	GetAuctionsPage(ctx context.Context, page int) (domain.RawPage, error)
	GetBazaar(ctx context.Context) (domain.OrderBook, error)
}

// TokenBucket grants request tokens. Implemented by ratelimit.Limiter.
type TokenBucket interface {
	Acquire(ctx context.Context, n int) error
}

// Fetcher retrieves market pages under the rate limit, retrying transient
// failures per its policy. It implements domain.MarketSource.
type Fetcher struct {
	client  PageClient
	limiter TokenBucket
	policy  Policy
	logger  *slog.Logger
}

// New creates a Fetcher.
func New(client PageClient, limiter TokenBucket, policy Policy, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:  client,
		limiter: limiter,
		policy:  policy,
		logger:  logger.With(slog.String("component", "fetcher")),
	}
}

// FetchPage retrieves one listings page. A rate token is acquired before
// every network attempt, including retries. On final failure the error wraps
// ErrUnavailable (or ErrQuotaExhausted when the limiter starved first).
func (f *Fetcher) FetchPage(ctx context.Context, page int) (domain.RawPage, error) {
	var result domain.RawPage
	err := f.policy.Do(ctx, func() error {
		if err := f.limiter.Acquire(ctx, 1); err != nil {
			// Both identities matter: callers match on ErrQuotaExhausted,
			// the retry policy on the context sentinels underneath.
			return fmt.Errorf("%w: %w", err, domain.ErrQuotaExhausted)
		}
		p, err := f.client.GetAuctionsPage(ctx, page)
		if err != nil {
			f.logger.DebugContext(ctx, "page fetch attempt failed",
				slog.Int("page", page),
				slog.String("error", err.Error()),
			)
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return domain.RawPage{}, escalate(fmt.Errorf("fetch page %d: %w", page, err))
	}
	return result, nil
}

// FetchOrderBook retrieves the bazaar order book under the same policy.
func (f *Fetcher) FetchOrderBook(ctx context.Context) (domain.OrderBook, error) {
	var book domain.OrderBook
	err := f.policy.Do(ctx, func() error {
		if err := f.limiter.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("%w: %w", err, domain.ErrQuotaExhausted)
		}
		b, err := f.client.GetBazaar(ctx)
		if err != nil {
			f.logger.DebugContext(ctx, "order book fetch attempt failed",
				slog.String("error", err.Error()),
			)
			return err
		}
		book = b
		return nil
	})
	if err != nil {
		return nil, escalate(fmt.Errorf("fetch order book: %w", err))
	}
	return book, nil
}

// escalate maps exhausted rate-limit failures onto ErrUnavailable so callers
// see the terminal transient kind. Malformed stays Malformed (callers must be
// able to tell a schema violation from an outage); quota starvation,
// cancellation, and non-retryable errors pass through unchanged.
func escalate(err error) error {
	if errors.Is(err, domain.ErrRateLimited) &&
		!errors.Is(err, domain.ErrUnavailable) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, domain.ErrUnavailable)
	}
	return err
}

// Compile-time interface check.
var _ domain.MarketSource = (*Fetcher)(nil)

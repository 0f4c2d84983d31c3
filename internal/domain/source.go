package domain

import "context"

// MarketSource retrieves raw market data page by page. Implementations own
// transport, authentication, rate limiting, and retry policy; callers only
// see the error taxonomy (ErrUnavailable, ErrMalformed, ErrQuotaExhausted).
type MarketSource interface {
	// FetchPage retrieves one page of the listings feed. Page numbering
	// starts at 0; the returned RawPage reports the feed's total page count.
	FetchPage(ctx context.Context, page int) (RawPage, error)
	// FetchOrderBook retrieves the complete order-book feed.
	FetchOrderBook(ctx context.Context) (OrderBook, error)
}

// FlipSink receives flip candidates for delivery. The engine's only contract
// with the sink is "deliver this candidate once"; a delivery failure does not
// roll back the dedup mark.
type FlipSink interface {
	Deliver(ctx context.Context, c FlipCandidate) error
}

// SnapshotArchiver persists raw snapshots to cold storage for later analysis.
type SnapshotArchiver interface {
	Archive(ctx context.Context, snap *Snapshot) error
}

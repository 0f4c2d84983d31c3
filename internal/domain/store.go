package domain

import (
	"context"
	"time"
)

// DedupStore tracks which listing identities have already produced a
// notification. It must be durable across process restarts and its
// check-and-set must be atomic across concurrent callers.
type DedupStore interface {
	// TryMarkEmitted atomically records the listing as emitted if it has no
	// live entry, returning true when the caller won the mark and should
	// emit. The entry expires after ttl.
	TryMarkEmitted(ctx context.Context, listingID string, now time.Time, ttl time.Duration) (bool, error)
	// FirstSeen returns the timestamp recorded for a live entry, or
	// ErrNotFound when the listing has no live entry.
	FirstSeen(ctx context.Context, listingID string) (time.Time, error)
}

// FlipStats aggregates the emitted-flip history.
type FlipStats struct {
	Count       int64
	TotalProfit int64
}

// FlipStore persists an append-only history of emitted flip candidates.
type FlipStore interface {
	Insert(ctx context.Context, c FlipCandidate) error
	ListRecent(ctx context.Context, limit int) ([]FlipCandidate, error)
	Stats(ctx context.Context, since time.Time) (FlipStats, error)
}

// ReferenceStore persists the last successful reference map so a restarted
// process does not begin with a cold, empty reference set.
type ReferenceStore interface {
	Save(ctx context.Context, refs map[string]PriceReference) error
	Load(ctx context.Context) (map[string]PriceReference, error)
}

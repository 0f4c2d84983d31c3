// Package snapshot drives the market fetcher across every page of the
// listings feed plus the order-book feed, producing one consistent
// point-in-time view per cycle. Assembly is all-or-nothing: a single failed
// page fails the whole snapshot, because a missing page silently understates
// supply and would bias reference prices low.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// maxPageCount bounds the page count accepted from the source before the
// page slice is allocated. A count beyond it is treated as a malformed feed,
// never as a reason to allocate; the cycle fails, the process does not.
const maxPageCount = 10_000

// Assembler fetches full market snapshots with bounded page concurrency.
type Assembler struct {
	source  domain.MarketSource
	workers int
	logger  *slog.Logger
	seq     atomic.Uint64
}

// New creates an Assembler that runs at most workers concurrent page fetches.
func New(source domain.MarketSource, workers int, logger *slog.Logger) *Assembler {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		source:  source,
		workers: workers,
		logger:  logger.With(slog.String("component", "assembler")),
	}
}

// Assemble fetches every page of the listings feed and the order book. On any
// page failure the whole call fails with ErrIncompleteSnapshot and no
// snapshot is returned. On success the snapshot carries a monotonically
// increasing sequence number and a wall-clock timestamp.
func (a *Assembler) Assemble(ctx context.Context) (*domain.Snapshot, error) {
	start := time.Now()

	// Page 0 first: it reports the feed's total page count.
	first, err := a.source.FetchPage(ctx, 0)
	if err != nil {
		return nil, incomplete(fmt.Errorf("page 0: %w", err))
	}

	totalPages := first.TotalPages
	if totalPages < 1 || totalPages > maxPageCount {
		return nil, incomplete(fmt.Errorf("page 0 reports %d total pages: %w", totalPages, domain.ErrMalformed))
	}
	pages := make([]domain.RawPage, totalPages)
	pages[0] = first

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for p := 1; p < totalPages; p++ {
		g.Go(func() error {
			page, err := a.source.FetchPage(gctx, p)
			if err != nil {
				return fmt.Errorf("page %d: %w", p, err)
			}
			pages[p] = page
			return nil
		})
	}

	var book domain.OrderBook
	g.Go(func() error {
		b, err := a.source.FetchOrderBook(gctx)
		if err != nil {
			return fmt.Errorf("order book: %w", err)
		}
		book = b
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, incomplete(err)
	}

	total := 0
	for _, p := range pages {
		total += len(p.Listings)
	}
	listings := make([]domain.Listing, 0, total)
	for _, p := range pages {
		listings = append(listings, p.Listings...)
	}

	snap := &domain.Snapshot{
		Seq:      a.seq.Add(1),
		TakenAt:  time.Now().UTC(),
		Listings: listings,
		Book:     book,
	}

	a.logger.InfoContext(ctx, "snapshot assembled",
		slog.Uint64("seq", snap.Seq),
		slog.Int("pages", totalPages),
		slog.Int("listings", len(listings)),
		slog.Int("book_items", len(book)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return snap, nil
}

// incomplete wraps a page or order-book failure as an incomplete snapshot.
// Cancellation passes through untouched so shutdown is not reported as a
// data failure.
func incomplete(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrIncompleteSnapshot, err)
}

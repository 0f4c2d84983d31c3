package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// FlipStore implements domain.FlipStore: an append-only history of emitted
// flip candidates, backing the flipping statistics surface.
type FlipStore struct {
	pool *pgxpool.Pool
}

// NewFlipStore creates a FlipStore using the given pool.
func NewFlipStore(pool *pgxpool.Pool) *FlipStore {
	return &FlipStore{pool: pool}
}

// Insert records an emitted candidate. Re-inserting the same listing id is a
// no-op; the dedup store is the authority on emission, this table only
// mirrors it.
func (s *FlipStore) Insert(ctx context.Context, c domain.FlipCandidate) error {
	const q = `
		INSERT INTO flips (listing_id, item_id, item_name, ask, reference_price,
			profit, profit_pct, detected_at, cycle_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (listing_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, q,
		c.ListingID, c.ItemID, c.ItemName, c.Ask, c.ReferencePrice,
		c.Profit, c.ProfitPct, c.DetectedAt, c.CycleID,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert flip %s: %w", c.ListingID, err)
	}
	return nil
}

// ListRecent returns the most recently detected flips, newest first.
func (s *FlipStore) ListRecent(ctx context.Context, limit int) ([]domain.FlipCandidate, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT listing_id, item_id, item_name, ask, reference_price,
			profit, profit_pct, detected_at, cycle_id
		FROM flips
		ORDER BY detected_at DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent flips: %w", err)
	}
	defer rows.Close()

	var out []domain.FlipCandidate
	for rows.Next() {
		var c domain.FlipCandidate
		if err := rows.Scan(&c.ListingID, &c.ItemID, &c.ItemName, &c.Ask,
			&c.ReferencePrice, &c.Profit, &c.ProfitPct, &c.DetectedAt, &c.CycleID); err != nil {
			return nil, fmt.Errorf("postgres: scan flip: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent flips: %w", err)
	}
	return out, nil
}

// Stats aggregates emitted flips detected since the given time.
func (s *FlipStore) Stats(ctx context.Context, since time.Time) (domain.FlipStats, error) {
	const q = `
		SELECT COUNT(*), COALESCE(SUM(profit), 0)
		FROM flips
		WHERE detected_at >= $1`

	var stats domain.FlipStats
	if err := s.pool.QueryRow(ctx, q, since).Scan(&stats.Count, &stats.TotalProfit); err != nil {
		return domain.FlipStats{}, fmt.Errorf("postgres: flip stats: %w", err)
	}
	return stats, nil
}

// Compile-time interface check.
var _ domain.FlipStore = (*FlipStore)(nil)

// Package pricing computes per-item reference prices from assembled
// snapshots and evaluates listings against them for profitable flips.
package pricing

import (
	"math"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// FeeModel computes the platform fee for reselling an item bought from the
// given listing at the given expected sale price. It is a pure function; the
// evaluator accepts any implementation so the schedule can change without
// touching evaluation logic.
type FeeModel func(t domain.ListingType, price int64) int64

// FeeSchedule is the configurable auction-house fee schedule: a percentage
// cut that differs between auction and instant-buy listings, plus a flat
// claim fee.
type FeeSchedule struct {
	AuctionCutPct float64
	BINCutPct     float64
	ClaimFlat     int64
}

// Fee implements FeeModel.
func (s FeeSchedule) Fee(t domain.ListingType, price int64) int64 {
	pct := s.AuctionCutPct
	if t == domain.ListingBIN {
		pct = s.BINCutPct
	}
	return int64(math.Round(float64(price)*pct)) + s.ClaimFlat
}

// NoFees is a FeeModel that charges nothing, useful in tests and dry runs.
func NoFees(domain.ListingType, int64) int64 { return 0 }

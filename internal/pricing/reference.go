package pricing

import (
	"math"
	"sort"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// Builder computes per-item price references from a snapshot. The estimate is
// deliberately conservative: a wrong low reference causes false-positive
// flips, a wrong high reference only causes missed opportunities.
type Builder struct {
	// OutlierPct is trimmed from each end of the sorted ask distribution
	// before taking the lowest remaining ask, guarding against mispriced or
	// decoy listings.
	OutlierPct float64
	// MinSamples is the minimum ask count for a fresh reference; below it
	// the previous cycle's reference is carried over unchanged.
	MinSamples int
}

// Build returns the reference map for the snapshot. For each item with
// enough instant-buy asks, the reference is the lowest ask remaining after
// outlier trimming, cross-checked against the order book's best sell price
// (the lower of the two wins, since either could be undercut). Items below
// the sample minimum keep their entry from previous; items never observed
// get no entry. previous is never mutated.
func (b Builder) Build(snap *domain.Snapshot, previous map[string]domain.PriceReference) map[string]domain.PriceReference {
	asks := make(map[string][]int64)
	for _, l := range snap.Listings {
		// Only instant-buy asks are trustworthy fair-value samples; a
		// bid-style auction's current bid says little about final price.
		if l.Type != domain.ListingBIN || l.Ask <= 0 {
			continue
		}
		asks[l.ItemID] = append(asks[l.ItemID], l.Ask)
	}

	refs := make(map[string]domain.PriceReference, len(asks)+len(previous))

	for itemID, itemAsks := range asks {
		if len(itemAsks) < b.MinSamples {
			if prev, ok := previous[itemID]; ok {
				refs[itemID] = prev
			}
			continue
		}

		price := lowestTrimmed(itemAsks, b.OutlierPct)
		if entry, ok := snap.Book[itemID]; ok && entry.BestSell > 0 && entry.BestSell < price {
			price = entry.BestSell
		}

		refs[itemID] = domain.PriceReference{
			ItemID:     itemID,
			Price:      price,
			Samples:    len(itemAsks),
			ComputedAt: snap.TakenAt,
		}
	}

	// Items not observed this cycle keep their previous reference:
	// stale-but-present beats absent.
	for itemID, prev := range previous {
		if _, ok := refs[itemID]; !ok {
			refs[itemID] = prev
		}
	}

	return refs
}

// lowestTrimmed sorts asks, drops ceil(n*pct) entries from each end, and
// returns the lowest survivor. The trim shrinks when it would consume the
// whole sample.
func lowestTrimmed(asks []int64, pct float64) int64 {
	sorted := make([]int64, len(asks))
	copy(sorted, asks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	k := 0
	if pct > 0 {
		k = int(math.Ceil(float64(n) * pct))
	}
	if n-2*k < 1 {
		k = (n - 1) / 2
	}
	return sorted[k]
}

package pricing

import (
	"github.com/skyblocktools/flipfinder/internal/domain"
)

// Evaluator compares each listing's ask against its item's reference price
// and the configured thresholds, producing flip candidates with computed
// profit metrics.
type Evaluator struct {
	Fees FeeModel
}

// Evaluate returns the flip candidates found in the snapshot. A candidate is
// produced iff both the absolute and the percentage profit thresholds pass;
// either alone admits degenerate noise. Listings whose end time has passed
// and listings without a reference are skipped. cycleID is stamped onto every
// candidate for log correlation.
func (e Evaluator) Evaluate(snap *domain.Snapshot, refs map[string]domain.PriceReference, th domain.Thresholds, cycleID string) []domain.FlipCandidate {
	fees := e.Fees
	if fees == nil {
		fees = NoFees
	}

	now := snap.TakenAt
	var out []domain.FlipCandidate
	for _, l := range snap.Listings {
		if l.Ask <= 0 || l.Expired(now) {
			continue
		}
		ref, ok := refs[l.ItemID]
		if !ok {
			continue
		}

		profit := ref.Price - l.Ask - fees(l.Type, ref.Price)
		if profit < th.MinProfit {
			continue
		}
		profitPct := float64(profit) / float64(l.Ask)
		if profitPct < th.MinProfitPct {
			continue
		}

		out = append(out, domain.FlipCandidate{
			ListingID:      l.ID,
			ItemID:         l.ItemID,
			ItemName:       l.ItemName,
			Ask:            l.Ask,
			ReferencePrice: ref.Price,
			Profit:         profit,
			ProfitPct:      profitPct,
			DetectedAt:     now,
			CycleID:        cycleID,
		})
	}
	return out
}

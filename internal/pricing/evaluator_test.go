package pricing

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

func refsFor(itemID string, price int64, at time.Time) map[string]domain.PriceReference {
	return map[string]domain.PriceReference{
		itemID: {ItemID: itemID, Price: price, Samples: 10, ComputedAt: at},
	}
}

func TestEvaluateScenario(t *testing.T) {
	// Reference for X is 90 (after outlier filtering). Thresholds:
	// minProfit=20, minProfitPct=0.15.
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	th := domain.Thresholds{MinProfit: 20, MinProfitPct: 0.15}
	refs := refsFor("X", 90, at)

	snap := &domain.Snapshot{
		TakenAt: at,
		Listings: []domain.Listing{
			{ID: "cheap", ItemID: "X", Ask: 60, Type: domain.ListingBIN, End: at.Add(time.Hour)},
			{ID: "close", ItemID: "X", Ask: 85, Type: domain.ListingBIN, End: at.Add(time.Hour)},
		},
	}

	got := Evaluator{Fees: NoFees}.Evaluate(snap, refs, th, "cycle-1")

	if len(got) != 1 {
		t.Fatalf("candidates = %d, want 1", len(got))
	}
	c := got[0]
	if c.ListingID != "cheap" {
		t.Errorf("candidate = %q, want the ask-60 listing", c.ListingID)
	}
	// profit = 90 - 60 = 30; pct = 30/60 = 0.5
	if c.Profit != 30 {
		t.Errorf("Profit = %d, want 30", c.Profit)
	}
	if c.ProfitPct != 0.5 {
		t.Errorf("ProfitPct = %g, want 0.5", c.ProfitPct)
	}
	if c.CycleID != "cycle-1" {
		t.Errorf("CycleID = %q", c.CycleID)
	}
}

func TestEvaluateBothThresholdsRequired(t *testing.T) {
	at := time.Now().UTC()
	th := domain.Thresholds{MinProfit: 100_000, MinProfitPct: 0.20}

	tests := []struct {
		name string
		ask  int64
		ref  int64
		want bool
	}{
		// profit 150k (>=100k), pct 150k/50k=3.0 (>=0.20)
		{"both pass", 50_000, 200_000, true},
		// profit 150k passes, pct 150k/10M = 0.015 fails
		{"absolute only", 10_000_000, 10_150_000, false},
		// pct 9k/10k=0.9 passes, profit 9k fails
		{"percentage only", 10_000, 19_000, false},
		// profit 100k, pct 0.20 exactly at both gates
		{"exactly at thresholds", 500_000, 600_000, true},
		{"no profit", 500_000, 400_000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &domain.Snapshot{
				TakenAt: at,
				Listings: []domain.Listing{{
					ID: "l1", ItemID: "I", Ask: tt.ask,
					Type: domain.ListingBIN, End: at.Add(time.Hour),
				}},
			}
			got := Evaluator{Fees: NoFees}.Evaluate(snap, refsFor("I", tt.ref, at), th, "")
			if emitted := len(got) == 1; emitted != tt.want {
				t.Errorf("emitted = %v, want %v", emitted, tt.want)
			}
		})
	}
}

// Property: over random listings and thresholds, a candidate appears iff both
// gates pass on the fee-adjusted profit.
func TestEvaluateThresholdProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	at := time.Now().UTC()
	fees := FeeSchedule{AuctionCutPct: 0.02, BINCutPct: 0.01, ClaimFlat: 100}

	for i := 0; i < 500; i++ {
		ask := rng.Int63n(1_000_000) + 1
		refPrice := rng.Int63n(1_500_000) + 1
		th := domain.Thresholds{
			MinProfit:    rng.Int63n(200_000),
			MinProfitPct: rng.Float64(),
		}
		typ := domain.ListingBIN
		if rng.Intn(2) == 0 {
			typ = domain.ListingAuction
		}

		snap := &domain.Snapshot{
			TakenAt: at,
			Listings: []domain.Listing{{
				ID: fmt.Sprintf("l%d", i), ItemID: "I", Ask: ask,
				Type: typ, End: at.Add(time.Hour),
			}},
		}

		got := Evaluator{Fees: fees.Fee}.Evaluate(snap, refsFor("I", refPrice, at), th, "")

		profit := refPrice - ask - fees.Fee(typ, refPrice)
		want := profit >= th.MinProfit && float64(profit)/float64(ask) >= th.MinProfitPct
		if emitted := len(got) == 1; emitted != want {
			t.Fatalf("case %d: ask=%d ref=%d th=%+v type=%s: emitted=%v want=%v",
				i, ask, refPrice, th, typ, emitted, want)
		}
	}
}

func TestEvaluateSkipsExpiredAndUnreferenced(t *testing.T) {
	at := time.Now().UTC()
	snap := &domain.Snapshot{
		TakenAt: at,
		Listings: []domain.Listing{
			{ID: "expired", ItemID: "I", Ask: 10, Type: domain.ListingBIN, End: at.Add(-time.Minute)},
			{ID: "unknown", ItemID: "NEVER_SEEN", Ask: 10, Type: domain.ListingBIN, End: at.Add(time.Hour)},
		},
	}
	got := Evaluator{Fees: NoFees}.Evaluate(snap, refsFor("I", 1000, at), domain.Thresholds{}, "")
	if len(got) != 0 {
		t.Errorf("candidates = %+v, want none", got)
	}
}

func TestFeeScheduleByListingType(t *testing.T) {
	s := FeeSchedule{AuctionCutPct: 0.05, BINCutPct: 0.01, ClaimFlat: 50}
	if got := s.Fee(domain.ListingAuction, 1000); got != 100 {
		t.Errorf("auction fee = %d, want 100", got)
	}
	if got := s.Fee(domain.ListingBIN, 1000); got != 60 {
		t.Errorf("bin fee = %d, want 60", got)
	}
}

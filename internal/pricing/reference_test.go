package pricing

import (
	"testing"
	"time"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

func snapWithAsks(itemID string, asks ...int64) *domain.Snapshot {
	s := &domain.Snapshot{
		Seq:     1,
		TakenAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Book:    domain.OrderBook{},
	}
	for i, ask := range asks {
		s.Listings = append(s.Listings, domain.Listing{
			ID:     itemID + string(rune('a'+i)),
			ItemID: itemID,
			Ask:    ask,
			Type:   domain.ListingBIN,
			End:    s.TakenAt.Add(time.Hour),
		})
	}
	return s
}

func TestBuildExcludesDecoyOutlier(t *testing.T) {
	// Asks [90, 95, 100, 1] with a 10% bottom cutoff: the 1-coin decoy is
	// trimmed and the reference resolves to 90.
	snap := snapWithAsks("X", 90, 95, 100, 1)
	b := Builder{OutlierPct: 0.10, MinSamples: 3}

	refs := b.Build(snap, nil)
	ref, ok := refs["X"]
	if !ok {
		t.Fatal("no reference for X")
	}
	if ref.Price != 90 {
		t.Errorf("reference = %d, want 90", ref.Price)
	}
	if ref.Samples != 4 {
		t.Errorf("samples = %d, want 4", ref.Samples)
	}
	if !ref.ComputedAt.Equal(snap.TakenAt) {
		t.Errorf("ComputedAt = %v, want snapshot time", ref.ComputedAt)
	}
}

func TestBuildCrossChecksOrderBook(t *testing.T) {
	b := Builder{OutlierPct: 0, MinSamples: 1}

	t.Run("order book undercuts asks", func(t *testing.T) {
		snap := snapWithAsks("Y", 200, 210)
		snap.Book["Y"] = domain.OrderBookEntry{ItemID: "Y", BestSell: 150}
		if got := b.Build(snap, nil)["Y"].Price; got != 150 {
			t.Errorf("reference = %d, want 150 (order book best sell)", got)
		}
	})

	t.Run("asks undercut order book", func(t *testing.T) {
		snap := snapWithAsks("Y", 120, 210)
		snap.Book["Y"] = domain.OrderBookEntry{ItemID: "Y", BestSell: 150}
		if got := b.Build(snap, nil)["Y"].Price; got != 120 {
			t.Errorf("reference = %d, want 120 (lowest ask)", got)
		}
	})

	t.Run("zero order book price ignored", func(t *testing.T) {
		snap := snapWithAsks("Y", 120)
		snap.Book["Y"] = domain.OrderBookEntry{ItemID: "Y", BestSell: 0}
		if got := b.Build(snap, nil)["Y"].Price; got != 120 {
			t.Errorf("reference = %d, want 120", got)
		}
	})
}

func TestBuildPreservesStaleReferences(t *testing.T) {
	prev := map[string]domain.PriceReference{
		"THIN": {ItemID: "THIN", Price: 5000, Samples: 8,
			ComputedAt: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
		"GONE": {ItemID: "GONE", Price: 900, Samples: 4,
			ComputedAt: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
	}

	// THIN appears with too few samples; GONE does not appear at all.
	snap := snapWithAsks("THIN", 4200)
	b := Builder{OutlierPct: 0.10, MinSamples: 3}

	refs := b.Build(snap, prev)

	if got := refs["THIN"]; got != prev["THIN"] {
		t.Errorf("THIN = %+v, want previous reference carried over unchanged", got)
	}
	if got := refs["GONE"]; got != prev["GONE"] {
		t.Errorf("GONE = %+v, want previous reference carried over unchanged", got)
	}

	// previous itself is never mutated.
	if prev["THIN"].Price != 5000 || len(prev) != 2 {
		t.Error("previous map was mutated")
	}
}

func TestBuildSkipsNeverObservedItems(t *testing.T) {
	snap := snapWithAsks("NEW", 100) // below MinSamples, nothing in previous
	refs := Builder{OutlierPct: 0.10, MinSamples: 3}.Build(snap, nil)
	if _, ok := refs["NEW"]; ok {
		t.Error("item without history and without enough samples must have no reference")
	}
}

func TestBuildIgnoresAuctionBids(t *testing.T) {
	snap := snapWithAsks("Z", 100, 110, 120)
	snap.Listings = append(snap.Listings, domain.Listing{
		ID: "bid1", ItemID: "Z", Ask: 1, Type: domain.ListingAuction,
		End: snap.TakenAt.Add(time.Hour),
	})

	refs := Builder{OutlierPct: 0, MinSamples: 3}.Build(snap, nil)
	if got := refs["Z"]; got.Samples != 3 || got.Price != 100 {
		t.Errorf("ref = %+v, auction bids must not enter the sample set", got)
	}
}

func TestLowestTrimmed(t *testing.T) {
	tests := []struct {
		name string
		asks []int64
		pct  float64
		want int64
	}{
		{"no trim", []int64{50, 40, 60}, 0, 40},
		{"decoy trimmed", []int64{90, 95, 100, 1}, 0.10, 90},
		{"trim shrinks for tiny samples", []int64{10, 20}, 0.40, 10},
		{"single sample", []int64{77}, 0.25, 77},
		{"large trim", []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.20, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lowestTrimmed(tt.asks, tt.pct); got != tt.want {
				t.Errorf("lowestTrimmed(%v, %g) = %d, want %d", tt.asks, tt.pct, got, tt.want)
			}
		})
	}
}

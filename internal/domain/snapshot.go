package domain

import "time"

// Snapshot is one consistent point-in-time view of every active listing and
// the full order book. A snapshot is all-or-nothing: it is only constructed
// once every page of the listings feed and the order-book feed have been
// fetched successfully.
type Snapshot struct {
	Seq      uint64 // monotonically increasing per process
	TakenAt  time.Time
	Listings []Listing
	Book     OrderBook
}

// ListingsByItem groups the snapshot's listings by item identity.
func (s *Snapshot) ListingsByItem() map[string][]Listing {
	byItem := make(map[string][]Listing)
	for _, l := range s.Listings {
		byItem[l.ItemID] = append(byItem[l.ItemID], l)
	}
	return byItem
}

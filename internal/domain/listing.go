// Package domain holds the core market types shared by every layer: listings,
// snapshots, reference prices and flip candidates, plus the interfaces the
// engine depends on.
package domain

import "time"

// ListingType distinguishes buy-it-now listings from bid-style auctions.
// Only BIN asks feed the reference distribution; auction bids drift upward
// over the listing lifetime and would skew it.
type ListingType string

const (
	ListingBIN     ListingType = "bin"
	ListingAuction ListingType = "auction"
)

// Listing is one active market listing.
type Listing struct {
	ID       string // listing uuid, stable for the listing's lifetime
	ItemID   string // canonical item identity, see skyblock.itemID
	ItemName string // display name as listed
	Ask      int64  // coins; BIN price or current highest bid
	Type     ListingType
	Seller   string
	End      time.Time // listing expiry
	Tier     string    // rarity tier
	Category string
}

// Expired reports whether the listing's end time has passed.
func (l Listing) Expired(now time.Time) bool {
	return !l.End.IsZero() && !now.Before(l.End)
}

// RawPage is one fetched page of the listings feed.
type RawPage struct {
	Page       int
	TotalPages int
	Listings   []Listing
}

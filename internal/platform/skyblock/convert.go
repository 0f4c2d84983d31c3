package skyblock

import (
	"strings"
	"time"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// toRawPage converts an API auctions page into the domain representation.
// Listings with a non-positive ask are dropped; they cannot be priced.
func toRawPage(resp auctionsPage) domain.RawPage {
	listings := make([]domain.Listing, 0, len(resp.Auctions))
	for _, a := range resp.Auctions {
		l := toListing(a)
		if l.Ask <= 0 {
			continue
		}
		listings = append(listings, l)
	}
	return domain.RawPage{
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
		Listings:   listings,
	}
}

func toListing(a apiAuction) domain.Listing {
	typ := domain.ListingAuction
	ask := a.StartingBid
	if a.BIN {
		typ = domain.ListingBIN
	} else if a.HighestBidAmount > ask {
		// For bid-style auctions the effective ask is the current bid.
		ask = a.HighestBidAmount
	}

	return domain.Listing{
		ID:       a.UUID,
		ItemID:   itemID(a.ItemName, a.Tier),
		ItemName: a.ItemName,
		Ask:      ask,
		Type:     typ,
		Seller:   a.Auctioneer,
		End:      time.UnixMilli(a.End),
		Tier:     a.Tier,
		Category: a.Category,
	}
}

// itemID derives a canonical item identity from the display name and rarity
// tier. The feed does not expose a machine item id for auctions, so listings
// of the same name and tier are treated as the same fungible item. Reforge
// prefixes and star suffixes are stripped so upgraded copies group together.
func itemID(name, tier string) string {
	n := strings.TrimSpace(name)
	n = strings.TrimRight(n, " ✪➊➋➌➍➎")
	for _, p := range reforgePrefixes {
		if rest, ok := strings.CutPrefix(n, p+" "); ok {
			n = rest
			break
		}
	}

	var b strings.Builder
	b.Grow(len(n) + len(tier) + 1)
	for _, r := range strings.ToUpper(n) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
	}
	if tier != "" {
		b.WriteByte(':')
		b.WriteString(strings.ToUpper(tier))
	}
	return b.String()
}

// reforgePrefixes are the common reforge display prefixes stripped during
// identity normalization. The list does not need to be exhaustive; a missed
// prefix only splits one item into two smaller sample sets.
var reforgePrefixes = []string{
	"Sharp", "Spicy", "Legendary", "Fabled", "Withered", "Heroic", "Epic",
	"Fierce", "Wise", "Pure", "Necrotic", "Ancient", "Renowned", "Clean",
	"Gentle", "Odd", "Fast", "Fair", "Mythic", "Suspicious",
}

// toOrderBook converts the bazaar response into the domain order book.
// Products with no standing orders on either side are kept with zero prices
// so staleness can still be detected downstream.
func toOrderBook(resp bazaarResponse) domain.OrderBook {
	book := make(domain.OrderBook, len(resp.Products))
	for id, p := range resp.Products {
		itemID := p.ProductID
		if itemID == "" {
			itemID = id
		}
		book[itemID] = domain.OrderBookEntry{
			ItemID:    itemID,
			BestBuy:   int64(p.QuickStatus.SellPrice), // highest buy order
			BestSell:  int64(p.QuickStatus.BuyPrice),  // lowest sell order
			BuyDepth:  p.QuickStatus.BuyOrders,
			SellDepth: p.QuickStatus.SellOrders,
		}
	}
	return book
}

package domain

// OrderBookEntry is the aggregated standing buy/sell order state for a
// fungible item, refreshed wholesale each cycle from the bazaar feed.
type OrderBookEntry struct {
	ItemID    string
	BestBuy   int64 // highest standing buy order price, 0 if none
	BestSell  int64 // lowest standing sell order price, 0 if none
	BuyDepth  int   // number of standing buy orders
	SellDepth int   // number of standing sell orders
}

// OrderBook maps item identity to its current order-book entry.
type OrderBook map[string]OrderBookEntry

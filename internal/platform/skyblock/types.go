package skyblock

// API payload shapes for the Hypixel Skyblock endpoints. Only the fields the
// engine consumes are declared; the rest of the payload is ignored.

// auctionsPage is the response of GET /skyblock/auctions.
type auctionsPage struct {
	Success       bool         `json:"success"`
	Cause         string       `json:"cause"`
	Page          int          `json:"page"`
	TotalPages    int          `json:"totalPages"`
	TotalAuctions int          `json:"totalAuctions"`
	Auctions      []apiAuction `json:"auctions"`
}

// apiAuction is a single auction entry in the listings feed.
type apiAuction struct {
	UUID             string `json:"uuid"`
	Auctioneer       string `json:"auctioneer"`
	ItemName         string `json:"item_name"`
	Tier             string `json:"tier"`
	Category         string `json:"category"`
	StartingBid      int64  `json:"starting_bid"`
	HighestBidAmount int64  `json:"highest_bid_amount"`
	BIN              bool   `json:"bin"`
	Start            int64  `json:"start"` // ms since epoch
	End              int64  `json:"end"`   // ms since epoch
}

// bazaarResponse is the response of GET /skyblock/bazaar.
type bazaarResponse struct {
	Success  bool                     `json:"success"`
	Cause    string                   `json:"cause"`
	Products map[string]bazaarProduct `json:"products"`
}

type bazaarProduct struct {
	ProductID   string            `json:"product_id"`
	QuickStatus bazaarQuickStatus `json:"quick_status"`
}

type bazaarQuickStatus struct {
	BuyPrice   float64 `json:"buyPrice"`  // instant-buy price = lowest sell order
	SellPrice  float64 `json:"sellPrice"` // instant-sell price = highest buy order
	BuyOrders  int     `json:"buyOrders"`
	SellOrders int     `json:"sellOrders"`
}

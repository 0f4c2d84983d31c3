package domain

import "time"

// Thresholds are the profit gates a listing must clear to become a flip
// candidate. Both must pass: absolute profit alone admits noise on expensive
// items, percentage alone admits noise on cheap ones.
type Thresholds struct {
	MinProfit    int64   // coins
	MinProfitPct float64 // fraction, e.g. 0.20 for 20%
}

// FlipCandidate is a listing judged profitably underpriced relative to its
// item's reference price. It is produced by the evaluator, filtered through
// the dedup store, and consumed once by emission.
type FlipCandidate struct {
	ListingID      string
	ItemID         string
	ItemName       string
	Ask            int64
	ReferencePrice int64
	Profit         int64   // reference - ask - fees
	ProfitPct      float64 // Profit / Ask
	DetectedAt     time.Time
	CycleID        string // uuid of the cycle that produced the candidate
}

package domain

import "time"

// PriceReference is the engine's current best estimate of an item's fair
// market value. References are recomputed from each full snapshot; when a
// cycle observes too few samples for an item, the previous reference is
// carried over unchanged rather than dropped.
type PriceReference struct {
	ItemID     string    `json:"item_id"`
	Price      int64     `json:"price"`   // coins
	Samples    int       `json:"samples"` // ask sample size behind the estimate
	ComputedAt time.Time `json:"computed_at"`
}

// Stale reports whether the reference was computed before the given cutoff.
func (r PriceReference) Stale(cutoff time.Time) bool {
	return r.ComputedAt.Before(cutoff)
}

package domain

import "time"

// MenuItemCapacity is the per-item production ceiling for a single delivery
// window, plus pending supplier-order state. MenuItemID references the
// external menu catalog; no catalog data is stored here.
type MenuItemCapacity struct {
	MenuItemID        int64
	CapacityPerWindow int
	OrderedQuantity   int
	Notes             string
	LastRestockedAt   *time.Time
}

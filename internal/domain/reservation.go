package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "active"
	ReservationStatusConsumed ReservationStatus = "consumed"
	ReservationStatusExpired  ReservationStatus = "expired"
)

// Reservation holds window capacity for one order line until the order enters
// fulfillment (consumed), the order is cancelled (row deleted), or the
// reservation times out (expired).
type Reservation struct {
	ID           string
	MenuItemID   int64
	OrderID      *int64
	WindowStart  time.Time
	WindowEnd    time.Time
	DeliveryTime time.Time
	Quantity     int
	Status       ReservationStatus
	// ExpiresAt nil means the reservation never times out.
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// ActiveAt reports whether the reservation still counts against window
// capacity. A past ExpiresAt makes it inactive even before the sweeper has
// flipped its status.
func (r Reservation) ActiveAt(now time.Time) bool {
	if r.Status != ReservationStatusActive {
		return false
	}
	return r.ExpiresAt == nil || r.ExpiresAt.After(now)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdmissionsTotal tracks reservation admission attempts by outcome
	// (admitted, capacity_exceeded, busy, invalid, error).
	AdmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_admissions_total",
			Help: "Total number of reservation admission attempts",
		},
		[]string{"outcome"},
	)

	// ReservationsExpiredTotal tracks reservations reclaimed by the sweeper
	ReservationsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_reservations_expired_total",
			Help: "Total number of reservations reclaimed by the expiry sweeper",
		},
	)

	// ReservationsConsumedTotal tracks reservations consumed by fulfillment
	ReservationsConsumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_reservations_consumed_total",
			Help: "Total number of reservations marked consumed",
		},
	)

	// ReservationsReleasedTotal tracks reservations deleted by order cancellation
	ReservationsReleasedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_reservations_released_total",
			Help: "Total number of reservations released by cancellation",
		},
	)

	// InvariantBreachesTotal counts observations of negative remaining capacity.
	// Any increment here means an admission slipped past the capacity check.
	InvariantBreachesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_invariant_breaches_total",
			Help: "Total number of negative remaining-capacity observations",
		},
	)
)

const (
	OutcomeAdmitted         = "admitted"
	OutcomeCapacityExceeded = "capacity_exceeded"
	OutcomeBusy             = "busy"
	OutcomeInvalid          = "invalid"
	OutcomeError            = "error"
)

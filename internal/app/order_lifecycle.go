package app

import (
	"context"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/metrics"
	"go.uber.org/zap"
)

// OrderReservationRepository is the storage surface the order workflow's
// callbacks need.
type OrderReservationRepository interface {
	MarkConsumedByOrder(ctx context.Context, orderID int64) (int64, error)
	DeleteByOrder(ctx context.Context, orderID int64) (int64, error)
}

// OrderLifecycle applies order-workflow transitions to reservations: an order
// entering fulfillment consumes its reservations, a cancelled order releases
// them.
type OrderLifecycle struct {
	repo   OrderReservationRepository
	logger *zap.Logger
}

func NewOrderLifecycle(repo OrderReservationRepository, logger *zap.Logger) *OrderLifecycle {
	return &OrderLifecycle{repo: repo, logger: logger}
}

// MarkConsumed transitions the order's active reservations to consumed.
// Consumed reservations stop counting against window capacity but remain for
// consumption reporting. The transition is monotonic; repeating the call
// affects zero rows.
func (l *OrderLifecycle) MarkConsumed(ctx context.Context, orderID int64) (int, error) {
	n, err := l.repo.MarkConsumedByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.ReservationsConsumedTotal.Add(float64(n))
		l.logger.Info("reservations consumed",
			zap.Int64("order_id", orderID), zap.Int64("count", n))
	}
	return int(n), nil
}

// Release deletes all of the order's reservations, consumed or not.
// Cancellation always frees capacity.
func (l *OrderLifecycle) Release(ctx context.Context, orderID int64) (int, error) {
	n, err := l.repo.DeleteByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.ReservationsReleasedTotal.Add(float64(n))
		l.logger.Info("reservations released",
			zap.Int64("order_id", orderID), zap.Int64("count", n))
	}
	return int(n), nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultLockWait = 2 * time.Second

type ReservationRepository struct {
	pool     *pgxpool.Pool
	lockWait time.Duration
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool, lockWait: defaultLockWait}
}

// WithLockWait bounds how long an admission waits on a contended capacity row
// before failing with domain.ErrBusy.
func (r *ReservationRepository) WithLockWait(d time.Duration) *ReservationRepository {
	if d > 0 {
		r.lockWait = d
	}
	return r
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, r.lockWait, fn)
}

// GetCapacityForUpdate locks the capacity row for the duration of the
// surrounding transaction. This is the per-key exclusion that serializes
// admissions for the same menu item.
func (r *ReservationRepository) GetCapacityForUpdate(ctx context.Context, menuItemID int64) (domain.MenuItemCapacity, error) {
	const query = `
SELECT menu_item_id, capacity_per_window, ordered_quantity, notes, last_restocked_at
FROM menu_item_capacities
WHERE menu_item_id = $1
FOR UPDATE`

	return r.scanCapacity(r.queryRow(ctx, query, menuItemID))
}

func (r *ReservationRepository) GetCapacity(ctx context.Context, menuItemID int64) (domain.MenuItemCapacity, error) {
	const query = `
SELECT menu_item_id, capacity_per_window, ordered_quantity, notes, last_restocked_at
FROM menu_item_capacities
WHERE menu_item_id = $1`

	return r.scanCapacity(r.queryRow(ctx, query, menuItemID))
}

func (r *ReservationRepository) scanCapacity(row pgx.Row) (domain.MenuItemCapacity, error) {
	var c domain.MenuItemCapacity
	err := row.Scan(&c.MenuItemID, &c.CapacityPerWindow, &c.OrderedQuantity, &c.Notes, &c.LastRestockedAt)
	if err != nil {
		if isLockNotAvailable(err) {
			return domain.MenuItemCapacity{}, domain.ErrBusy
		}
		if err == pgx.ErrNoRows {
			return domain.MenuItemCapacity{}, domain.ErrMenuItemNotFound
		}
		return domain.MenuItemCapacity{}, fmt.Errorf("get capacity: %w", err)
	}
	return c, nil
}

// SumActiveForWindow sums quantities counting against the window at now.
// The expires_at cutoff is applied here as well as in the sweeper, so a lagging
// sweep never inflates the figure.
func (r *ReservationRepository) SumActiveForWindow(ctx context.Context, menuItemID int64, windowStart, now time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM(quantity), 0)
FROM inventory_reservations
WHERE menu_item_id = $1 AND window_start = $2 AND status = 'active'
  AND (expires_at IS NULL OR expires_at > $3)`

	var total int
	if err := r.queryRow(ctx, query, menuItemID, windowStart, now).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum active for window: %w", err)
	}
	return total, nil
}

// SumActiveByDeliveryRange sums active quantities whose delivery_time falls in
// [from, to). Daily and weekly aggregates are both served by this.
func (r *ReservationRepository) SumActiveByDeliveryRange(ctx context.Context, menuItemID int64, from, to, now time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM(quantity), 0)
FROM inventory_reservations
WHERE menu_item_id = $1 AND delivery_time >= $2 AND delivery_time < $3
  AND status = 'active' AND (expires_at IS NULL OR expires_at > $4)`

	var total int
	if err := r.queryRow(ctx, query, menuItemID, from, to, now).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum active by delivery range: %w", err)
	}
	return total, nil
}

// SumConsumedByDeliveryRange reports historical consumption for the range.
func (r *ReservationRepository) SumConsumedByDeliveryRange(ctx context.Context, menuItemID int64, from, to time.Time) (int, error) {
	const query = `
SELECT COALESCE(SUM(quantity), 0)
FROM inventory_reservations
WHERE menu_item_id = $1 AND delivery_time >= $2 AND delivery_time < $3
  AND status = 'consumed'`

	var total int
	if err := r.queryRow(ctx, query, menuItemID, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum consumed by delivery range: %w", err)
	}
	return total, nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO inventory_reservations
	(id, menu_item_id, order_id, window_start, window_end, delivery_time, quantity, status, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.MenuItemID,
		res.OrderID,
		res.WindowStart,
		res.WindowEnd,
		res.DeliveryTime,
		res.Quantity,
		res.Status,
		res.ExpiresAt,
		res.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrMenuItemNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate reservation id %s: %w", res.ID, err)
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// MarkConsumedByOrder flips the order's active reservations to consumed.
// The status predicate keeps the transition monotonic; expired and already
// consumed rows are never touched.
func (r *ReservationRepository) MarkConsumedByOrder(ctx context.Context, orderID int64) (int64, error) {
	const stmt = `
UPDATE inventory_reservations
SET status = 'consumed'
WHERE order_id = $1 AND status = 'active'`

	tag, err := r.exec(ctx, stmt, orderID)
	if err != nil {
		return 0, fmt.Errorf("mark consumed by order: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByOrder removes all of the order's reservations regardless of status.
// Cancellation always releases.
func (r *ReservationRepository) DeleteByOrder(ctx context.Context, orderID int64) (int64, error) {
	const stmt = `DELETE FROM inventory_reservations WHERE order_id = $1`

	tag, err := r.exec(ctx, stmt, orderID)
	if err != nil {
		return 0, fmt.Errorf("delete by order: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ExpireDue marks every past-due active reservation expired. A reservation
// consumed between the sweeper's tick and this statement is left untouched
// because the status predicate re-checks at commit time.
func (r *ReservationRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	const stmt = `
UPDATE inventory_reservations
SET status = 'expired'
WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= $1`

	tag, err := r.exec(ctx, stmt, now)
	if err != nil {
		return 0, fmt.Errorf("expire due reservations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListCapacities returns every capacity ledger row, for the dashboard query.
func (r *ReservationRepository) ListCapacities(ctx context.Context) ([]domain.MenuItemCapacity, error) {
	const query = `
SELECT menu_item_id, capacity_per_window, ordered_quantity, notes, last_restocked_at
FROM menu_item_capacities
ORDER BY menu_item_id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list capacities: %w", err)
	}
	defer rows.Close()

	var out []domain.MenuItemCapacity
	for rows.Next() {
		var c domain.MenuItemCapacity
		if err := rows.Scan(&c.MenuItemID, &c.CapacityPerWindow, &c.OrderedQuantity, &c.Notes, &c.LastRestockedAt); err != nil {
			return nil, fmt.Errorf("scan capacity: %w", err)
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate capacities: %w", rows.Err())
	}
	return out, nil
}

func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	const query = `
SELECT id, menu_item_id, order_id, window_start, window_end, delivery_time, quantity, status, expires_at, created_at
FROM inventory_reservations
WHERE id = $1`

	var res domain.Reservation
	var status string
	err := r.queryRow(ctx, query, id).Scan(
		&res.ID,
		&res.MenuItemID,
		&res.OrderID,
		&res.WindowStart,
		&res.WindowEnd,
		&res.DeliveryTime,
		&res.Quantity,
		&status,
		&res.ExpiresAt,
		&res.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	res.Status = domain.ReservationStatus(status)
	return res, nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

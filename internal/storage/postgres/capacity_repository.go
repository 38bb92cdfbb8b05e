package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CapacityRepository struct {
	pool *pgxpool.Pool
}

func NewCapacityRepository(pool *pgxpool.Pool) *CapacityRepository {
	return &CapacityRepository{pool: pool}
}

// Restock upserts the capacity row, setting a new per-window ceiling and
// stamping last_restocked_at.
func (r *CapacityRepository) Restock(ctx context.Context, menuItemID int64, capacityPerWindow int, notes string, restockedAt time.Time) (domain.MenuItemCapacity, error) {
	const stmt = `
INSERT INTO menu_item_capacities (menu_item_id, capacity_per_window, notes, last_restocked_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (menu_item_id) DO UPDATE
SET capacity_per_window = EXCLUDED.capacity_per_window,
    notes = EXCLUDED.notes,
    last_restocked_at = EXCLUDED.last_restocked_at,
    updated_at = EXCLUDED.updated_at
RETURNING menu_item_id, capacity_per_window, ordered_quantity, notes, last_restocked_at`

	return r.scan(r.pool.QueryRow(ctx, stmt, menuItemID, capacityPerWindow, notes, restockedAt))
}

func (r *CapacityRepository) SetOrderedQuantity(ctx context.Context, menuItemID int64, quantity int, updatedAt time.Time) (domain.MenuItemCapacity, error) {
	const stmt = `
UPDATE menu_item_capacities
SET ordered_quantity = $2, updated_at = $3
WHERE menu_item_id = $1
RETURNING menu_item_id, capacity_per_window, ordered_quantity, notes, last_restocked_at`

	return r.scan(r.pool.QueryRow(ctx, stmt, menuItemID, quantity, updatedAt))
}

// ReceiveOrdered folds the pending supplier order into the per-window capacity
// and zeroes it, in one guarded statement. A retry after success matches zero
// rows and falls back to returning the current record, so the command is safe
// to repeat.
func (r *CapacityRepository) ReceiveOrdered(ctx context.Context, menuItemID int64, receivedAt time.Time) (domain.MenuItemCapacity, error) {
	const stmt = `
UPDATE menu_item_capacities
SET capacity_per_window = capacity_per_window + ordered_quantity,
    ordered_quantity = 0,
    updated_at = $2
WHERE menu_item_id = $1 AND ordered_quantity > 0
RETURNING menu_item_id, capacity_per_window, ordered_quantity, notes, last_restocked_at`

	c, err := r.scan(r.pool.QueryRow(ctx, stmt, menuItemID, receivedAt))
	if err == domain.ErrMenuItemNotFound {
		return r.Get(ctx, menuItemID)
	}
	return c, err
}

func (r *CapacityRepository) Get(ctx context.Context, menuItemID int64) (domain.MenuItemCapacity, error) {
	const query = `
SELECT menu_item_id, capacity_per_window, ordered_quantity, notes, last_restocked_at
FROM menu_item_capacities
WHERE menu_item_id = $1`

	return r.scan(r.pool.QueryRow(ctx, query, menuItemID))
}

func (r *CapacityRepository) scan(row pgx.Row) (domain.MenuItemCapacity, error) {
	var c domain.MenuItemCapacity
	err := row.Scan(&c.MenuItemID, &c.CapacityPerWindow, &c.OrderedQuantity, &c.Notes, &c.LastRestockedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.MenuItemCapacity{}, domain.ErrMenuItemNotFound
		}
		return domain.MenuItemCapacity{}, fmt.Errorf("scan capacity: %w", err)
	}
	return c, nil
}

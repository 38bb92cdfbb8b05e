package app

import (
	"context"
	"time"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/clock"
	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/domain"
	"go.uber.org/zap"
)

type CapacityRepository interface {
	Restock(ctx context.Context, menuItemID int64, capacityPerWindow int, notes string, restockedAt time.Time) (domain.MenuItemCapacity, error)
	SetOrderedQuantity(ctx context.Context, menuItemID int64, quantity int, updatedAt time.Time) (domain.MenuItemCapacity, error)
	ReceiveOrdered(ctx context.Context, menuItemID int64, receivedAt time.Time) (domain.MenuItemCapacity, error)
}

// SupplyService covers the operator-side mutations of the capacity ledger:
// restocking, recording a supplier order, and receiving it.
type SupplyService struct {
	repo   CapacityRepository
	clock  clock.Clock
	logger *zap.Logger
}

func NewSupplyService(repo CapacityRepository, clk clock.Clock, logger *zap.Logger) *SupplyService {
	return &SupplyService{repo: repo, clock: clk, logger: logger}
}

// Restock sets a new per-window capacity for the item, creating the ledger row
// if it does not exist yet, and stamps last_restocked_at.
func (s *SupplyService) Restock(ctx context.Context, menuItemID int64, capacityPerWindow int, notes string) (domain.MenuItemCapacity, error) {
	if menuItemID <= 0 {
		return domain.MenuItemCapacity{}, domain.ErrMenuItemNotFound
	}
	if capacityPerWindow < 0 {
		return domain.MenuItemCapacity{}, domain.ErrInvalidCapacity
	}

	c, err := s.repo.Restock(ctx, menuItemID, capacityPerWindow, notes, s.clock.Now())
	if err != nil {
		return domain.MenuItemCapacity{}, err
	}
	s.logger.Info("restocked",
		zap.Int64("menu_item_id", menuItemID),
		zap.Int("capacity_per_window", capacityPerWindow))
	return c, nil
}

// SetOrderedQuantity records how many units are on order from the supplier.
// The write is absolute, so retries are harmless.
func (s *SupplyService) SetOrderedQuantity(ctx context.Context, menuItemID int64, quantity int) (domain.MenuItemCapacity, error) {
	if menuItemID <= 0 {
		return domain.MenuItemCapacity{}, domain.ErrMenuItemNotFound
	}
	if quantity < 0 {
		return domain.MenuItemCapacity{}, domain.ErrInvalidOrderedQuantity
	}

	c, err := s.repo.SetOrderedQuantity(ctx, menuItemID, quantity, s.clock.Now())
	if err != nil {
		return domain.MenuItemCapacity{}, err
	}
	s.logger.Info("ordered quantity set",
		zap.Int64("menu_item_id", menuItemID), zap.Int("quantity", quantity))
	return c, nil
}

// ReceiveOrderedInventory folds the pending supplier order into the per-window
// capacity: capacity_per_window += ordered_quantity, ordered_quantity = 0.
// Receiving with nothing on order is a no-op that returns the current record,
// which makes retries after a successful receive safe.
func (s *SupplyService) ReceiveOrderedInventory(ctx context.Context, menuItemID int64) (domain.MenuItemCapacity, error) {
	if menuItemID <= 0 {
		return domain.MenuItemCapacity{}, domain.ErrMenuItemNotFound
	}

	c, err := s.repo.ReceiveOrdered(ctx, menuItemID, s.clock.Now())
	if err != nil {
		return domain.MenuItemCapacity{}, err
	}
	s.logger.Info("ordered inventory received",
		zap.Int64("menu_item_id", menuItemID),
		zap.Int("capacity_per_window", c.CapacityPerWindow))
	return c, nil
}

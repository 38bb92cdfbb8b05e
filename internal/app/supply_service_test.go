package app

import (
	"context"
	"testing"
	"time"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/clock"
	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/domain"
	"go.uber.org/zap"
)

// fakeCapacityRepo keeps the ledger in a map and applies the same mutations as
// the Postgres repository.
type fakeCapacityRepo struct {
	capacities map[int64]domain.MenuItemCapacity
}

func newFakeCapacityRepo(capacities ...domain.MenuItemCapacity) *fakeCapacityRepo {
	byID := make(map[int64]domain.MenuItemCapacity, len(capacities))
	for _, c := range capacities {
		byID[c.MenuItemID] = c
	}
	return &fakeCapacityRepo{capacities: byID}
}

func (f *fakeCapacityRepo) Restock(_ context.Context, menuItemID int64, capacityPerWindow int, notes string, restockedAt time.Time) (domain.MenuItemCapacity, error) {
	c := f.capacities[menuItemID]
	c.MenuItemID = menuItemID
	c.CapacityPerWindow = capacityPerWindow
	c.Notes = notes
	c.LastRestockedAt = &restockedAt
	f.capacities[menuItemID] = c
	return c, nil
}

func (f *fakeCapacityRepo) SetOrderedQuantity(_ context.Context, menuItemID int64, quantity int, _ time.Time) (domain.MenuItemCapacity, error) {
	c, ok := f.capacities[menuItemID]
	if !ok {
		return domain.MenuItemCapacity{}, domain.ErrMenuItemNotFound
	}
	c.OrderedQuantity = quantity
	f.capacities[menuItemID] = c
	return c, nil
}

func (f *fakeCapacityRepo) ReceiveOrdered(_ context.Context, menuItemID int64, restockedAt time.Time) (domain.MenuItemCapacity, error) {
	c, ok := f.capacities[menuItemID]
	if !ok {
		return domain.MenuItemCapacity{}, domain.ErrMenuItemNotFound
	}
	if c.OrderedQuantity > 0 {
		c.CapacityPerWindow += c.OrderedQuantity
		c.OrderedQuantity = 0
		c.LastRestockedAt = &restockedAt
		f.capacities[menuItemID] = c
	}
	return c, nil
}

func TestSupplyService(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	makeSvc := func(capacities ...domain.MenuItemCapacity) (*SupplyService, *fakeCapacityRepo) {
		repo := newFakeCapacityRepo(capacities...)
		return NewSupplyService(repo, clock.NewFixed(now), zap.NewNop()), repo
	}

	t.Run("restock creates the ledger row", func(t *testing.T) {
		svc, repo := makeSvc()

		c, err := svc.Restock(context.Background(), 1, 20, "weekend stock")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.CapacityPerWindow != 20 {
			t.Fatalf("expected capacity 20, got %d", c.CapacityPerWindow)
		}
		if c.LastRestockedAt == nil || !c.LastRestockedAt.Equal(now) {
			t.Fatalf("expected last_restocked_at %v, got %v", now, c.LastRestockedAt)
		}
		if _, ok := repo.capacities[1]; !ok {
			t.Fatalf("expected row for item 1")
		}
	})

	t.Run("restock overwrites existing capacity", func(t *testing.T) {
		svc, _ := makeSvc(domain.MenuItemCapacity{MenuItemID: 1, CapacityPerWindow: 5, OrderedQuantity: 3})

		c, err := svc.Restock(context.Background(), 1, 12, "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.CapacityPerWindow != 12 {
			t.Fatalf("expected capacity 12, got %d", c.CapacityPerWindow)
		}
		if c.OrderedQuantity != 3 {
			t.Fatalf("restock must not touch ordered quantity, got %d", c.OrderedQuantity)
		}
	})

	t.Run("negative capacity rejected", func(t *testing.T) {
		svc, _ := makeSvc()

		if _, err := svc.Restock(context.Background(), 1, -1, ""); err != domain.ErrInvalidCapacity {
			t.Fatalf("expected ErrInvalidCapacity, got %v", err)
		}
	})

	t.Run("set ordered quantity", func(t *testing.T) {
		svc, _ := makeSvc(domain.MenuItemCapacity{MenuItemID: 1, CapacityPerWindow: 10})

		c, err := svc.SetOrderedQuantity(context.Background(), 1, 6)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.OrderedQuantity != 6 {
			t.Fatalf("expected ordered quantity 6, got %d", c.OrderedQuantity)
		}
	})

	t.Run("negative ordered quantity rejected", func(t *testing.T) {
		svc, _ := makeSvc(domain.MenuItemCapacity{MenuItemID: 1})

		if _, err := svc.SetOrderedQuantity(context.Background(), 1, -2); err != domain.ErrInvalidOrderedQuantity {
			t.Fatalf("expected ErrInvalidOrderedQuantity, got %v", err)
		}
	})

	t.Run("receive folds ordered into capacity and zeroes it", func(t *testing.T) {
		svc, _ := makeSvc(domain.MenuItemCapacity{MenuItemID: 1, CapacityPerWindow: 10, OrderedQuantity: 4})

		c, err := svc.ReceiveOrderedInventory(context.Background(), 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if c.CapacityPerWindow != 14 {
			t.Fatalf("expected capacity 14, got %d", c.CapacityPerWindow)
		}
		if c.OrderedQuantity != 0 {
			t.Fatalf("expected ordered quantity 0, got %d", c.OrderedQuantity)
		}
	})

	t.Run("receive retry is a no-op", func(t *testing.T) {
		svc, _ := makeSvc(domain.MenuItemCapacity{MenuItemID: 1, CapacityPerWindow: 10, OrderedQuantity: 4})

		if _, err := svc.ReceiveOrderedInventory(context.Background(), 1); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		c, err := svc.ReceiveOrderedInventory(context.Background(), 1)
		if err != nil {
			t.Fatalf("expected no error on retry, got %v", err)
		}
		if c.CapacityPerWindow != 14 {
			t.Fatalf("retry must not double-apply, capacity %d", c.CapacityPerWindow)
		}
	})

	t.Run("unknown item rejected", func(t *testing.T) {
		svc, _ := makeSvc()

		if _, err := svc.SetOrderedQuantity(context.Background(), 7, 1); err != domain.ErrMenuItemNotFound {
			t.Fatalf("expected ErrMenuItemNotFound, got %v", err)
		}
		if _, err := svc.ReceiveOrderedInventory(context.Background(), 7); err != domain.ErrMenuItemNotFound {
			t.Fatalf("expected ErrMenuItemNotFound, got %v", err)
		}
	})

	t.Run("non-positive menu item id rejected", func(t *testing.T) {
		svc, _ := makeSvc()

		if _, err := svc.Restock(context.Background(), 0, 5, ""); err != domain.ErrMenuItemNotFound {
			t.Fatalf("expected ErrMenuItemNotFound, got %v", err)
		}
	})
}

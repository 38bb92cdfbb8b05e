package app

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type fakeOrderReservationRepo struct {
	consumed map[int64]int64
	deleted  map[int64]int64
	err      error
}

func (f *fakeOrderReservationRepo) MarkConsumedByOrder(_ context.Context, orderID int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := f.consumed[orderID]
	f.consumed[orderID] = 0
	return n, nil
}

func (f *fakeOrderReservationRepo) DeleteByOrder(_ context.Context, orderID int64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := f.deleted[orderID]
	f.deleted[orderID] = 0
	return n, nil
}

func TestOrderLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("mark consumed reports affected rows", func(t *testing.T) {
		repo := &fakeOrderReservationRepo{consumed: map[int64]int64{42: 3}, deleted: map[int64]int64{}}
		lc := NewOrderLifecycle(repo, zap.NewNop())

		n, err := lc.MarkConsumed(context.Background(), 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 3 {
			t.Fatalf("expected 3 rows, got %d", n)
		}

		// Second call hits no active rows.
		n, err = lc.MarkConsumed(context.Background(), 42)
		if err != nil {
			t.Fatalf("expected no error on repeat, got %v", err)
		}
		if n != 0 {
			t.Fatalf("expected 0 rows on repeat, got %d", n)
		}
	})

	t.Run("release reports affected rows", func(t *testing.T) {
		repo := &fakeOrderReservationRepo{consumed: map[int64]int64{}, deleted: map[int64]int64{7: 2}}
		lc := NewOrderLifecycle(repo, zap.NewNop())

		n, err := lc.Release(context.Background(), 7)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2 rows, got %d", n)
		}
	})

	t.Run("repository errors pass through", func(t *testing.T) {
		repoErr := errors.New("storage down")
		repo := &fakeOrderReservationRepo{err: repoErr}
		lc := NewOrderLifecycle(repo, zap.NewNop())

		if _, err := lc.MarkConsumed(context.Background(), 1); !errors.Is(err, repoErr) {
			t.Fatalf("expected storage error, got %v", err)
		}
		if _, err := lc.Release(context.Background(), 1); !errors.Is(err, repoErr) {
			t.Fatalf("expected storage error, got %v", err)
		}
	})
}

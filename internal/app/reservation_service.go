package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/clock"
	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/domain"
	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/metrics"
	"go.uber.org/zap"
)

// ReservationRepository is the storage surface the admission path needs.
// GetCapacityForUpdate must lock the capacity row for the rest of the
// transaction so that sum-then-insert runs under per-item exclusion.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetCapacityForUpdate(ctx context.Context, menuItemID int64) (domain.MenuItemCapacity, error)
	GetCapacity(ctx context.Context, menuItemID int64) (domain.MenuItemCapacity, error)
	SumActiveForWindow(ctx context.Context, menuItemID int64, windowStart, now time.Time) (int, error)
	CreateReservation(ctx context.Context, res domain.Reservation) error
}

type ReservationService struct {
	repo         ReservationRepository
	clock        clock.Clock
	logger       *zap.Logger
	ttl          time.Duration
	windowLength time.Duration
}

const (
	defaultReservationTTL = 30 * time.Minute
	defaultWindowLength   = 24 * time.Hour
)

func NewReservationService(repo ReservationRepository, clk clock.Clock, logger *zap.Logger, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:         repo,
		clock:        clk,
		logger:       logger,
		ttl:          defaultReservationTTL,
		windowLength: defaultWindowLength,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithReservationTTL overrides the default expiry applied when a caller does
// not supply one.
func WithReservationTTL(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithWindowLength overrides the delivery-slot length used to derive windows
// from delivery timestamps.
func WithWindowLength(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.windowLength = d
		}
	}
}

// WindowOf derives the capacity window containing a delivery timestamp.
func (s *ReservationService) WindowOf(deliveryTime time.Time) (start, end time.Time) {
	start = deliveryTime.UTC().Truncate(s.windowLength)
	return start, start.Add(s.windowLength)
}

type ReserveInput struct {
	MenuItemID   int64
	WindowStart  time.Time
	WindowEnd    time.Time
	DeliveryTime time.Time
	Quantity     int
	OrderID      *int64
	// ExpiresAt zero means "now + default TTL".
	ExpiresAt time.Time
}

// Reserve admits one reservation against the item's window capacity, or fails
// with ErrCapacityExceeded without writing anything. The capacity read, the
// active sum and the insert all run inside one transaction holding the
// capacity row lock.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (domain.Reservation, error) {
	if in.Quantity <= 0 {
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}
	if !in.WindowStart.Before(in.WindowEnd) {
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return domain.Reservation{}, domain.ErrInvalidWindow
	}

	now := s.clock.Now()
	expiresAt := in.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.ttl)
	}

	var result domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.admit(txCtx, admitRequest{
			menuItemID:   in.MenuItemID,
			windowStart:  in.WindowStart,
			windowEnd:    in.WindowEnd,
			deliveryTime: in.DeliveryTime,
			quantity:     in.Quantity,
			orderID:      in.OrderID,
			expiresAt:    expiresAt,
			now:          now,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		s.countFailure(err)
		return domain.Reservation{}, err
	}

	metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeAdmitted).Inc()
	s.logger.Info("reservation admitted",
		zap.Int64("menu_item_id", in.MenuItemID),
		zap.Int("quantity", in.Quantity),
		zap.Time("window_start", in.WindowStart),
		zap.String("reservation_id", result.ID),
	)
	return result, nil
}

type BatchLine struct {
	MenuItemID int64
	Quantity   int
}

// ReserveBatch admits every line of a multi-item order for one delivery
// timestamp, all-or-nothing. Capacity rows are locked in ascending menu-item
// order so concurrent batches cannot deadlock. A failed line aborts the
// transaction and no reservation from any line survives.
func (s *ReservationService) ReserveBatch(ctx context.Context, orderID int64, deliveryTime time.Time, lines []BatchLine) ([]domain.Reservation, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
			return nil, domain.ErrInvalidQuantity
		}
	}
	if deliveryTime.IsZero() {
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, domain.ErrInvalidDeliveryTime
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	windowStart, windowEnd := s.WindowOf(deliveryTime)

	// Lines for the same item share one capacity check.
	totals := make(map[int64]int, len(lines))
	for _, line := range lines {
		totals[line.MenuItemID] += line.Quantity
	}
	itemIDs := make([]int64, 0, len(totals))
	for id := range totals {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	var result []domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		for _, menuItemID := range itemIDs {
			capacity, err := s.repo.GetCapacityForUpdate(txCtx, menuItemID)
			if err != nil {
				return err
			}
			reserved, err := s.repo.SumActiveForWindow(txCtx, menuItemID, windowStart, now)
			if err != nil {
				return err
			}
			if reserved+totals[menuItemID] > capacity.CapacityPerWindow {
				return domain.ErrCapacityExceeded
			}
		}

		result = result[:0]
		for _, line := range lines {
			res := domain.Reservation{
				ID:           newReservationID(),
				MenuItemID:   line.MenuItemID,
				OrderID:      &orderID,
				WindowStart:  windowStart,
				WindowEnd:    windowEnd,
				DeliveryTime: deliveryTime.UTC(),
				Quantity:     line.Quantity,
				Status:       domain.ReservationStatusActive,
				ExpiresAt:    &expiresAt,
				CreatedAt:    now,
			}
			if err := s.repo.CreateReservation(txCtx, res); err != nil {
				return err
			}
			result = append(result, res)
		}
		return nil
	})
	if err != nil {
		s.countFailure(err)
		return nil, err
	}

	metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeAdmitted).Inc()
	s.logger.Info("batch admitted",
		zap.Int64("order_id", orderID),
		zap.Int("lines", len(lines)),
		zap.Time("delivery_time", deliveryTime),
	)
	return result, nil
}

// CheckAvailability reports whether one unit of each item could be admitted
// for the delivery timestamp. It is a pure dry run: sums are recomputed and
// nothing is inserted or locked. Items that fail individually (unknown id,
// storage error) report false rather than failing the probe.
func (s *ReservationService) CheckAvailability(ctx context.Context, menuItemIDs []int64, deliveryTime time.Time) (map[int64]bool, error) {
	if deliveryTime.IsZero() {
		return nil, domain.ErrInvalidDeliveryTime
	}

	now := s.clock.Now()
	windowStart, _ := s.WindowOf(deliveryTime)

	availability := make(map[int64]bool, len(menuItemIDs))
	for _, menuItemID := range menuItemIDs {
		capacity, err := s.repo.GetCapacity(ctx, menuItemID)
		if err != nil {
			if !errors.Is(err, domain.ErrMenuItemNotFound) {
				s.logger.Warn("availability probe failed",
					zap.Int64("menu_item_id", menuItemID), zap.Error(err))
			}
			availability[menuItemID] = false
			continue
		}
		reserved, err := s.repo.SumActiveForWindow(ctx, menuItemID, windowStart, now)
		if err != nil {
			s.logger.Warn("availability probe failed",
				zap.Int64("menu_item_id", menuItemID), zap.Error(err))
			availability[menuItemID] = false
			continue
		}
		availability[menuItemID] = reserved+1 <= capacity.CapacityPerWindow
	}
	return availability, nil
}

type admitRequest struct {
	menuItemID   int64
	windowStart  time.Time
	windowEnd    time.Time
	deliveryTime time.Time
	quantity     int
	orderID      *int64
	expiresAt    time.Time
	now          time.Time
}

func (s *ReservationService) admit(txCtx context.Context, req admitRequest) (domain.Reservation, error) {
	capacity, err := s.repo.GetCapacityForUpdate(txCtx, req.menuItemID)
	if err != nil {
		return domain.Reservation{}, err
	}
	reserved, err := s.repo.SumActiveForWindow(txCtx, req.menuItemID, req.windowStart, req.now)
	if err != nil {
		return domain.Reservation{}, err
	}
	if reserved+req.quantity > capacity.CapacityPerWindow {
		return domain.Reservation{}, domain.ErrCapacityExceeded
	}

	expiresAt := req.expiresAt
	res := domain.Reservation{
		ID:           newReservationID(),
		MenuItemID:   req.menuItemID,
		OrderID:      req.orderID,
		WindowStart:  req.windowStart,
		WindowEnd:    req.windowEnd,
		DeliveryTime: req.deliveryTime,
		Quantity:     req.quantity,
		Status:       domain.ReservationStatusActive,
		ExpiresAt:    &expiresAt,
		CreatedAt:    req.now,
	}
	if err := s.repo.CreateReservation(txCtx, res); err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

func (s *ReservationService) countFailure(err error) {
	switch {
	case errors.Is(err, domain.ErrCapacityExceeded):
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeCapacityExceeded).Inc()
	case errors.Is(err, domain.ErrBusy):
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeBusy).Inc()
	case errors.Is(err, domain.ErrMenuItemNotFound):
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
	default:
		metrics.AdmissionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		s.logger.Error("admission failed", zap.Error(err))
	}
}

package app

import (
	"context"
	"time"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/clock"
	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/domain"
	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/metrics"
	"go.uber.org/zap"
)

type ReportRepository interface {
	ListCapacities(ctx context.Context) ([]domain.MenuItemCapacity, error)
	SumActiveForWindow(ctx context.Context, menuItemID int64, windowStart, now time.Time) (int, error)
	SumActiveByDeliveryRange(ctx context.Context, menuItemID int64, from, to, now time.Time) (int, error)
	SumConsumedByDeliveryRange(ctx context.Context, menuItemID int64, from, to time.Time) (int, error)
}

// ReportService answers the aggregate capacity queries behind availability
// checks and the operator dashboard. All sums exclude consumed reservations
// and apply the expiry cutoff themselves rather than trusting the sweeper.
type ReportService struct {
	repo         ReportRepository
	clock        clock.Clock
	logger       *zap.Logger
	windowLength time.Duration
}

func NewReportService(repo ReportRepository, clk clock.Clock, logger *zap.Logger, opts ...ReportServiceOption) *ReportService {
	svc := &ReportService{
		repo:         repo,
		clock:        clk,
		logger:       logger,
		windowLength: defaultWindowLength,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReportServiceOption func(*ReportService)

// WithReportWindowLength must match the admission side's slot length.
func WithReportWindowLength(d time.Duration) ReportServiceOption {
	return func(s *ReportService) {
		if d > 0 {
			s.windowLength = d
		}
	}
}

// WindowReserved sums active quantities for the exact window.
func (s *ReportService) WindowReserved(ctx context.Context, menuItemID int64, windowStart time.Time) (int, error) {
	return s.repo.SumActiveForWindow(ctx, menuItemID, windowStart, s.clock.Now())
}

// DailyReserved sums active quantities whose delivery time falls on the
// calendar date of day (UTC).
func (s *ReportService) DailyReserved(ctx context.Context, menuItemID int64, day time.Time) (int, error) {
	from := day.UTC().Truncate(24 * time.Hour)
	return s.repo.SumActiveByDeliveryRange(ctx, menuItemID, from, from.Add(24*time.Hour), s.clock.Now())
}

// WeeklyReserved sums active quantities with delivery time in
// [weekStart, weekStart+7d).
func (s *ReportService) WeeklyReserved(ctx context.Context, menuItemID int64, weekStart time.Time) (int, error) {
	from := weekStart.UTC().Truncate(24 * time.Hour)
	return s.repo.SumActiveByDeliveryRange(ctx, menuItemID, from, from.AddDate(0, 0, 7), s.clock.Now())
}

// WeeklyConsumed reports historical consumption for the week.
func (s *ReportService) WeeklyConsumed(ctx context.Context, menuItemID int64, weekStart time.Time) (int, error) {
	from := weekStart.UTC().Truncate(24 * time.Hour)
	return s.repo.SumConsumedByDeliveryRange(ctx, menuItemID, from, from.AddDate(0, 0, 7))
}

// Snapshot is one dashboard row: current-window figures plus the weekly view.
type Snapshot struct {
	MenuItemID        int64
	CapacityPerWindow int
	Reserved          int
	Remaining         int
	WeeklyReserved    int
	OrderedQuantity   int
	Notes             string
	LastRestockedAt   *time.Time
	WindowStart       time.Time
	WindowEnd         time.Time
	// ReservedByDate keys the seven days of the week (ISO dates) to their
	// active reserved sums.
	ReservedByDate map[string]int
}

// WeeklySnapshot builds the operator dashboard rows for the week starting at
// weekStart. Remaining may be negative; that signals an admission slipped past
// the capacity check, so it is surfaced and counted, never clamped.
func (s *ReportService) WeeklySnapshot(ctx context.Context, weekStart time.Time) ([]Snapshot, error) {
	now := s.clock.Now()
	windowStart := now.Truncate(s.windowLength)
	windowEnd := windowStart.Add(s.windowLength)
	from := weekStart.UTC().Truncate(24 * time.Hour)

	capacities, err := s.repo.ListCapacities(ctx)
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(capacities))
	for _, c := range capacities {
		reserved, err := s.repo.SumActiveForWindow(ctx, c.MenuItemID, windowStart, now)
		if err != nil {
			return nil, err
		}
		weekly, err := s.repo.SumActiveByDeliveryRange(ctx, c.MenuItemID, from, from.AddDate(0, 0, 7), now)
		if err != nil {
			return nil, err
		}

		byDate := make(map[string]int, 7)
		for i := 0; i < 7; i++ {
			day := from.AddDate(0, 0, i)
			qty, err := s.repo.SumActiveByDeliveryRange(ctx, c.MenuItemID, day, day.AddDate(0, 0, 1), now)
			if err != nil {
				return nil, err
			}
			byDate[day.Format("2006-01-02")] = qty
		}

		remaining := c.CapacityPerWindow - reserved
		if remaining < 0 {
			metrics.InvariantBreachesTotal.Inc()
			s.logger.Error("negative remaining capacity",
				zap.Int64("menu_item_id", c.MenuItemID),
				zap.Int("capacity_per_window", c.CapacityPerWindow),
				zap.Int("reserved", reserved),
				zap.Time("window_start", windowStart))
		}

		snapshots = append(snapshots, Snapshot{
			MenuItemID:        c.MenuItemID,
			CapacityPerWindow: c.CapacityPerWindow,
			Reserved:          reserved,
			Remaining:         remaining,
			WeeklyReserved:    weekly,
			OrderedQuantity:   c.OrderedQuantity,
			Notes:             c.Notes,
			LastRestockedAt:   c.LastRestockedAt,
			WindowStart:       windowStart,
			WindowEnd:         windowEnd,
			ReservedByDate:    byDate,
		})
	}
	return snapshots, nil
}

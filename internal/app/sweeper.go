package app

import (
	"context"
	"time"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/clock"
	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/metrics"
	"go.uber.org/zap"
)

type ExpiryRepository interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically reclaims capacity held by reservations that were never
// consumed before their expiry. Aggregation already ignores past-due rows, so
// the sweep only has to make the state explicit; running it late never
// inflates capacity sums.
type Sweeper struct {
	repo     ExpiryRepository
	clock    clock.Clock
	logger   *zap.Logger
	interval time.Duration
}

const defaultSweepInterval = time.Minute

func NewSweeper(repo ExpiryRepository, clk clock.Clock, logger *zap.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{repo: repo, clock: clk, logger: logger, interval: interval}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("expiry sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce expires every past-due active reservation and reports how many
// rows were reclaimed. Safe to run concurrently with admissions: the storage
// transition re-checks the active status at commit time, so a reservation
// consumed mid-sweep is left alone.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	n, err := s.repo.ExpireDue(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.ReservationsExpiredTotal.Add(float64(n))
		s.logger.Info("reservations expired", zap.Int64("count", n))
	}
	return int(n), nil
}

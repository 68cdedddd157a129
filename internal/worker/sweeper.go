package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type OverdueMarker interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// Sweeper periodically persists overdue transitions so that stored labels
// and debtor notifications follow due dates without waiting for a write.
type Sweeper struct {
	marker OverdueMarker
	every  time.Duration
	logger *zap.Logger
}

func NewSweeper(marker OverdueMarker, every time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{marker: marker, every: every, logger: logger}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.every <= 0 {
		s.logger.Info("overdue sweeper disabled")
		return
	}
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	changed, err := s.marker.SweepOverdue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("overdue sweep failed", zap.Error(err))
		}
		return
	}
	if changed > 0 {
		s.logger.Info("overdue sweep", zap.Int("marked", changed))
	}
}

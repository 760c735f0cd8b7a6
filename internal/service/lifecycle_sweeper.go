package service

import (
	"context"
	"time"

	"go-telehealth-booking/internal/delivery/dto"

	"github.com/sirupsen/logrus"
)

// SweepRunner executes one reconciliation pass over overdue appointments
type SweepRunner interface {
	RunLifecycleSweep(ctx context.Context) (*dto.SweepResultResponse, error)
}

// LifecycleSweeper drives a SweepRunner on a fixed interval.
//
// One sweep runs immediately, then one per tick. Runs never overlap within a
// process; overlap across processes is resolved by the conditional updates.
type LifecycleSweeper struct {
	runner   SweepRunner
	log      *logrus.Logger
	interval time.Duration
}

func NewLifecycleSweeper(runner SweepRunner, log *logrus.Logger, interval time.Duration) *LifecycleSweeper {
	return &LifecycleSweeper{
		runner:   runner,
		log:      log,
		interval: interval,
	}
}

// Run blocks until ctx is done
func (s *LifecycleSweeper) Run(ctx context.Context) error {
	s.log.WithField("interval", s.interval.String()).Info("Lifecycle sweeper started")

	s.sweepOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Lifecycle sweeper stopped")
			return nil
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *LifecycleSweeper) sweepOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := s.runner.RunLifecycleSweep(ctx)
	if err != nil {
		s.log.Errorf("Lifecycle sweep failed: %+v", err)
		return
	}

	if result.ProcessedCount == 0 && result.FailedCount == 0 {
		return
	}

	s.log.WithFields(logrus.Fields{
		"processed": result.ProcessedCount,
		"skipped":   result.SkippedCount,
		"failed":    result.FailedCount,
	}).Info("Lifecycle sweep completed")
}

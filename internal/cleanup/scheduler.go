package cleanup

import (
	"context"
	"time"

	"remi/internal/logger"
)

// cleanupInterval is how often the retention sweep runs.
const cleanupInterval = 6 * time.Hour

// Scheduler manages periodic cleanup runs.
type Scheduler struct {
	runner *Runner
	logger *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
	ticker *time.Ticker
}

// NewScheduler creates a new cleanup scheduler.
func NewScheduler(runner *Runner, log *logger.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		logger: log,
	}
}

// Start begins the periodic cleanup scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	if s.runner.config.RetentionDays <= 0 {
		s.logger.Info("cleanup scheduler disabled")
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.ticker = time.NewTicker(cleanupInterval)

	s.logger.Info("cleanup scheduler started",
		logger.Field{Key: "retention_days", Value: s.runner.config.RetentionDays})

	// Run initial cleanup
	go s.runCleanup(s.ctx)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.runCleanup(s.ctx)
			case <-s.ctx.Done():
				s.ticker.Stop()
				s.logger.Info("cleanup scheduler stopped")
				return
			}
		}
	}()
}

// Stop stops the cleanup scheduler.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// runCleanup executes a single cleanup run.
func (s *Scheduler) runCleanup(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	stats, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("cleanup failed", err)
		return
	}

	if stats.RemindersPurged > 0 {
		s.logger.Info("cleanup completed",
			logger.Field{Key: "reminders_purged", Value: stats.RemindersPurged},
			logger.Field{Key: "duration_ms", Value: stats.Duration.Milliseconds()})
	} else {
		s.logger.Debug("cleanup completed: nothing to purge")
	}
}

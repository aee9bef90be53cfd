// Package cleanup removes delivered, failed and missed reminders once they
// are old enough to be irrelevant. Scheduled reminders are never touched:
// the reconciler owns those.
package cleanup

import (
	"context"
	"time"

	"remi/internal/logger"
	"remi/internal/reminder"
)

// Stats holds statistics about a single cleanup run.
type Stats struct {
	RemindersPurged int64         // finished reminders removed
	Duration        time.Duration // time taken for the run
}

// Config holds configuration for cleanup operations.
type Config struct {
	RetentionDays int // keep finished reminders for N days (zero or negative keeps forever)
}

// Runner purges finished reminders past their retention window.
type Runner struct {
	config Config
	store  reminder.Store
	logger *logger.Logger
}

// NewRunner creates a new cleanup runner.
func NewRunner(config Config, store reminder.Store, log *logger.Logger) *Runner {
	return &Runner{
		config: config,
		store:  store,
		logger: log,
	}
}

// Run performs a single cleanup pass.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	stats := Stats{}
	if r.config.RetentionDays <= 0 {
		r.logger.Debug("reminder retention disabled, skipping cleanup")
		return stats, nil
	}

	start := time.Now()
	cutoff := start.AddDate(0, 0, -r.config.RetentionDays)

	purged, err := r.store.PurgeFinalBefore(ctx, cutoff)
	if err != nil {
		return stats, err
	}

	stats.RemindersPurged = purged
	stats.Duration = time.Since(start)
	return stats, nil
}

// Package reconcile restores reminder scheduling after a restart. Queue
// tasks are durable, but a reminder persisted without a task (enqueue
// failure, queue wipe) would otherwise never fire. On startup the
// reconciler walks every scheduled reminder and re-enqueues it, marking
// reminders past the grace period as missed.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"remi/internal/logger"
	"remi/internal/queue"
	"remi/internal/reminder"
)

// defaultGracePeriod is how far past its fire time a reminder may still be
// reloaded instead of marked missed.
const defaultGracePeriod = 5 * time.Minute

// Report summarizes one reconciliation run.
type Report struct {
	// Reloaded counts reminders re-enqueued (or already enqueued).
	Reloaded int
	// SkippedPast counts reminders marked missed.
	SkippedPast int
	// Errors collects per-reminder failures; one bad row never aborts the
	// run.
	Errors []error
}

// Reconciler re-enqueues scheduled reminders on startup.
type Reconciler struct {
	store   reminder.Store
	queue   queue.Dispatcher
	baseURL string
	grace   time.Duration
	logger  *logger.Logger
	now     func() time.Time
}

// New creates a reconciler. A non-positive grace falls back to the default
// five minutes.
func New(store reminder.Store, dispatcher queue.Dispatcher, baseURL string, grace time.Duration, log *logger.Logger) *Reconciler {
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	return &Reconciler{
		store:   store,
		queue:   dispatcher,
		baseURL: baseURL,
		grace:   grace,
		logger:  log,
		now:     time.Now,
	}
}

// Run reconciles every scheduled reminder. Reminders whose fire time is
// within the grace period (or in the future) are re-enqueued under their
// deterministic task name, so reminders the queue still holds are left
// alone. Older reminders are marked missed and never delivered late.
//
// Run is idempotent: a second pass re-encounters the same tasks as
// AlreadyExists and changes nothing.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	reminders, err := r.store.ListAllScheduled(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list scheduled reminders: %w", err)
	}

	now := r.now()
	cutoff := now.Add(-r.grace)
	var report Report

	for _, rem := range reminders {
		if rem.FireAt.Before(cutoff) {
			if err := r.markMissed(ctx, rem); err != nil {
				report.Errors = append(report.Errors, err)
				continue
			}
			report.SkippedPast++
			continue
		}

		if err := r.enqueue(ctx, rem); err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		report.Reloaded++
	}

	r.logger.InfoCtx(ctx, "reminder reconciliation finished",
		logger.Field{Key: "reloaded", Value: report.Reloaded},
		logger.Field{Key: "skipped_past", Value: report.SkippedPast},
		logger.Field{Key: "errors", Value: len(report.Errors)})

	return report, nil
}

func (r *Reconciler) markMissed(ctx context.Context, rem *reminder.Reminder) error {
	err := r.store.MarkMissed(ctx, rem.ID)
	if err != nil && !errors.Is(err, reminder.ErrAlreadyFinal) {
		return fmt.Errorf("failed to mark reminder %s missed: %w", rem.ID, err)
	}

	r.logger.WarnCtx(ctx, "reminder missed its window",
		logger.Field{Key: "reminder_id", Value: rem.ID},
		logger.Field{Key: "fire_at", Value: rem.FireAt})

	return nil
}

func (r *Reconciler) enqueue(ctx context.Context, rem *reminder.Reminder) error {
	payload, err := json.Marshal(reminder.SendPayload{ReminderID: rem.ID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload for reminder %s: %w", rem.ID, err)
	}

	_, err = r.queue.Enqueue(ctx, queue.Task{
		Name:       reminder.TaskName(rem.ID),
		URL:        r.baseURL + reminder.SendPath,
		Payload:    payload,
		ScheduleAt: rem.FireAt,
	})
	if errors.Is(err, queue.ErrAlreadyExists) {
		// The queue still holds this task; nothing to restore.
		r.logger.DebugCtx(ctx, "reminder task already enqueued",
			logger.Field{Key: "reminder_id", Value: rem.ID})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to re-enqueue reminder %s: %w", rem.ID, err)
	}

	r.logger.InfoCtx(ctx, "reminder re-enqueued",
		logger.Field{Key: "reminder_id", Value: rem.ID},
		logger.Field{Key: "fire_at", Value: rem.FireAt})

	return nil
}

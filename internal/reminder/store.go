package reminder

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a reminder id does not exist.
var ErrNotFound = errors.New("reminder not found")

// ErrAlreadyFinal is returned by a Mark* transition when the reminder is
// no longer in the scheduled state. Terminal states are never overwritten;
// callers treat this as a benign duplicate delivery.
var ErrAlreadyFinal = errors.New("reminder already in a terminal state")

// Store is the reminder persistence interface.
type Store interface {
	// Create persists a new reminder in the scheduled state.
	Create(ctx context.Context, r *Reminder) error

	// Get loads a reminder by id. Returns ErrNotFound when missing.
	Get(ctx context.Context, id string) (*Reminder, error)

	// MarkSent transitions scheduled → sent and records the send time.
	MarkSent(ctx context.Context, id string) error

	// MarkFailed transitions scheduled → failed and records the error.
	MarkFailed(ctx context.Context, id string, sendErr string) error

	// MarkMissed transitions scheduled → missed and records the time.
	MarkMissed(ctx context.Context, id string) error

	// ListScheduled returns an owner's scheduled reminders with fire_at
	// at or after the given instant, ordered by fire_at ascending.
	ListScheduled(ctx context.Context, ownerID string, after time.Time) ([]*Reminder, error)

	// ListAllScheduled returns every scheduled reminder regardless of
	// owner or fire time, ordered by fire_at ascending. Used by the
	// reconciler on startup.
	ListAllScheduled(ctx context.Context) ([]*Reminder, error)

	// PurgeFinalBefore deletes sent, failed and missed reminders whose
	// fire time is before the cutoff. Scheduled reminders are never
	// touched. Returns the number of rows removed.
	PurgeFinalBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

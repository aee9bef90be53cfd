// Package queue abstracts the durable task queue that drives all deferred
// execution. Tasks are delivered back to the service as HTTP callbacks at
// (or shortly after) their scheduled time; the queue is the only timer in
// the system.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyExists is returned by Enqueue when a task with the same
// deterministic name already exists in the queue.
var ErrAlreadyExists = errors.New("task already exists")

// Task describes a deferred HTTP callback.
type Task struct {
	// Name is an optional deterministic task name. Named tasks are
	// deduplicated by the queue; an empty name lets the queue assign one.
	Name string

	// URL is the absolute callback URL the queue will POST to.
	URL string

	// Payload is the JSON request body delivered with the callback.
	Payload []byte

	// ScheduleAt is the earliest instant the callback fires. Delivery is
	// at-least-once and best-effort on timing.
	ScheduleAt time.Time
}

// Dispatcher is the queue client interface. Implementations must be safe
// for concurrent use.
type Dispatcher interface {
	// Enqueue registers a task and returns the queue-assigned handle.
	// Returns ErrAlreadyExists when a named task collides.
	Enqueue(ctx context.Context, task Task) (string, error)

	// Delete removes a named task. Deleting a task that no longer exists
	// is not an error.
	Delete(ctx context.Context, name string) error
}

package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"remi/internal/logger"
)

// Sender delivers a rendered message to a channel-specific address.
// Implementations live in internal/delivery.
type Sender interface {
	Send(ctx context.Context, address, message string) error
}

// SendPool bounds outbound send concurrency. Execute blocks until the job
// has run on a worker and returns its error.
type SendPool interface {
	Execute(ctx context.Context, id string, fn func(context.Context) error) error
}

// DeliveryError wraps a provider failure during reminder execution.
type DeliveryError struct {
	ReminderID string
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver reminder %s: %v", e.ReminderID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// defaultSendTimeout bounds a single delivery attempt.
const defaultSendTimeout = 30 * time.Second

// Executor runs the reminder execution callback: load the record, deliver
// the message through the send pool, and record the outcome. Execution is
// idempotent under queue redelivery: a reminder already in a terminal
// state is left untouched.
type Executor struct {
	store   Store
	sender  Sender
	pool    SendPool
	timeout time.Duration
	logger  *logger.Logger
}

// NewExecutor creates a reminder executor.
func NewExecutor(store Store, sender Sender, pool SendPool, log *logger.Logger) *Executor {
	return &Executor{
		store:   store,
		sender:  sender,
		pool:    pool,
		timeout: defaultSendTimeout,
		logger:  log,
	}
}

// Execute delivers the reminder with the given id.
//
// Returns ErrNotFound for unknown ids and nil for reminders already in a
// terminal state; both are conditions the queue must not retry. A
// DeliveryError means the send failed and the reminder was marked failed.
func (e *Executor) Execute(ctx context.Context, id string) error {
	r, err := e.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			e.logger.WarnCtx(ctx, "reminder not found, nothing to send",
				logger.Field{Key: "reminder_id", Value: id})
			return ErrNotFound
		}
		return fmt.Errorf("failed to load reminder %s: %w", id, err)
	}

	if r.Status != StatusScheduled {
		e.logger.InfoCtx(ctx, "reminder already handled, skipping duplicate delivery",
			logger.Field{Key: "reminder_id", Value: id},
			logger.Field{Key: "status", Value: string(r.Status)})
		return nil
	}

	e.logger.InfoCtx(ctx, "sending reminder",
		logger.Field{Key: "reminder_id", Value: id},
		logger.Field{Key: "owner_id", Value: r.OwnerID})

	sendErr := e.pool.Execute(ctx, id, func(jobCtx context.Context) error {
		sendCtx, cancel := context.WithTimeout(jobCtx, e.timeout)
		defer cancel()
		return e.sender.Send(sendCtx, r.DeliveryAddress, r.Message)
	})

	if sendErr != nil {
		if markErr := e.store.MarkFailed(ctx, id, sendErr.Error()); markErr != nil && !errors.Is(markErr, ErrAlreadyFinal) {
			e.logger.ErrorCtx(ctx, "failed to mark reminder failed", markErr,
				logger.Field{Key: "reminder_id", Value: id})
		}
		return &DeliveryError{ReminderID: id, Err: sendErr}
	}

	if err := e.store.MarkSent(ctx, id); err != nil && !errors.Is(err, ErrAlreadyFinal) {
		return fmt.Errorf("reminder %s delivered but not marked sent: %w", id, err)
	}

	e.logger.InfoCtx(ctx, "reminder sent",
		logger.Field{Key: "reminder_id", Value: id})

	return nil
}

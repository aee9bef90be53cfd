package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"remi/internal/logger"
	"remi/internal/queue"
	"remi/internal/timeparse"
)

// Result is the outcome of a reminder operation, shaped for the
// conversational layer: status plus a user-facing message.
type Result struct {
	Status     string `json:"status"` // success | error | skipped
	Message    string `json:"message"`
	ReminderID string `json:"reminder_id,omitempty"`
	FireAt     string `json:"reminder_time,omitempty"`
}

// ServiceConfig contains service wiring parameters.
type ServiceConfig struct {
	// BaseURL is the externally reachable base URL of this service; the
	// queue delivers callbacks to BaseURL+SendPath.
	BaseURL string
	// Location is the timezone all user-facing times are interpreted and
	// rendered in.
	Location *time.Location
	// DefaultLeadMinutes is the event reminder lead when the caller does
	// not specify one.
	DefaultLeadMinutes int
}

// Service implements the reminder operations: create, list, and the
// persist-then-enqueue flow.
type Service struct {
	store  Store
	queue  queue.Dispatcher
	config ServiceConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a reminder service.
func NewService(store Store, dispatcher queue.Dispatcher, cfg ServiceConfig, log *logger.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultLeadMinutes <= 0 {
		cfg.DefaultLeadMinutes = 15
	}
	return &Service{
		store:  store,
		queue:  dispatcher,
		config: cfg,
		logger: log,
		now:    time.Now,
	}
}

// CreateCustomReminder parses the natural-language time expression and
// schedules a free-form reminder. The record is persisted before the queue
// task is created; if enqueueing fails the reminder survives and the
// reconciler re-enqueues it on the next restart.
func (s *Service) CreateCustomReminder(ctx context.Context, ownerID, address, message, remindIn string) Result {
	now := s.now().In(s.config.Location)

	fireAt, err := timeparse.Resolve(remindIn, now)
	if err != nil {
		s.logger.WarnCtx(ctx, "failed to resolve reminder time",
			logger.Field{Key: "owner_id", Value: ownerID},
			logger.Field{Key: "input", Value: remindIn})
		return Result{Status: "error", Message: fmt.Sprintf("❌ %s", err.Error())}
	}

	r := &Reminder{
		OwnerID:         ownerID,
		Kind:            KindCustom,
		Message:         fmt.Sprintf("⏰ Reminder: %s", message),
		TimeInput:       remindIn,
		DeliveryAddress: address,
		FireAt:          fireAt,
	}

	return s.schedule(ctx, r, fmt.Sprintf(
		"✅ Reminder set! I'll remind you about '%s' in %s (%s)",
		message, humanizeUntil(fireAt.Sub(now)), formatInstant(fireAt)))
}

// CreateEventReminder schedules a reminder a number of minutes before a
// calendar event. An event starting sooner than the lead time yields a
// skipped result and nothing is persisted.
func (s *Service) CreateEventReminder(ctx context.Context, ownerID, address, eventTitle string, eventAt time.Time, minutesBefore int) Result {
	if minutesBefore <= 0 {
		minutesBefore = s.config.DefaultLeadMinutes
	}

	now := s.now().In(s.config.Location)
	eventAt = eventAt.In(s.config.Location)
	fireAt := eventAt.Add(-time.Duration(minutesBefore) * time.Minute)

	if !fireAt.After(now.Add(time.Second)) {
		s.logger.InfoCtx(ctx, "event reminder skipped, event too close",
			logger.Field{Key: "owner_id", Value: ownerID},
			logger.Field{Key: "event_title", Value: eventTitle},
			logger.Field{Key: "minutes_before", Value: minutesBefore})
		return Result{
			Status: "skipped",
			Message: fmt.Sprintf("⚠️ '%s' starts in less than %d minutes, so no reminder was set.",
				eventTitle, minutesBefore),
		}
	}

	r := &Reminder{
		OwnerID:         ownerID,
		Kind:            KindEvent,
		Message:         fmt.Sprintf("⏰ Reminder: '%s' starts in %d minutes!", eventTitle, minutesBefore),
		EventTitle:      eventTitle,
		EventAt:         &eventAt,
		MinutesBefore:   minutesBefore,
		DeliveryAddress: address,
		FireAt:          fireAt,
	}

	return s.schedule(ctx, r, fmt.Sprintf(
		"✅ Reminder created! You'll be notified %d minutes before '%s' on %s",
		minutesBefore, eventTitle, formatInstant(eventAt)))
}

// schedule persists the reminder and enqueues its execution callback.
func (s *Service) schedule(ctx context.Context, r *Reminder, successMsg string) Result {
	if err := s.store.Create(ctx, r); err != nil {
		s.logger.ErrorCtx(ctx, "failed to persist reminder", err,
			logger.Field{Key: "owner_id", Value: r.OwnerID},
			logger.Field{Key: "kind", Value: string(r.Kind)})
		return Result{Status: "error", Message: "❌ Something went wrong saving your reminder. Please try again."}
	}

	payload, err := json.Marshal(SendPayload{ReminderID: r.ID})
	if err != nil {
		return Result{Status: "error", Message: "❌ Something went wrong saving your reminder. Please try again."}
	}

	_, err = s.queue.Enqueue(ctx, queue.Task{
		Name:       TaskName(r.ID),
		URL:        s.config.BaseURL + SendPath,
		Payload:    payload,
		ScheduleAt: r.FireAt,
	})
	if err != nil {
		// The record stays in the store; the reconciler re-enqueues it
		// on the next restart.
		s.logger.ErrorCtx(ctx, "failed to enqueue reminder task", err,
			logger.Field{Key: "reminder_id", Value: r.ID},
			logger.Field{Key: "fire_at", Value: r.FireAt})
		return Result{
			Status:     "error",
			Message:    "⚠️ Your reminder was saved but could not be scheduled. It will be rescheduled automatically.",
			ReminderID: r.ID,
		}
	}

	s.logger.InfoCtx(ctx, "reminder scheduled",
		logger.Field{Key: "reminder_id", Value: r.ID},
		logger.Field{Key: "kind", Value: string(r.Kind)},
		logger.Field{Key: "fire_at", Value: r.FireAt})

	return Result{
		Status:     "success",
		Message:    successMsg,
		ReminderID: r.ID,
		FireAt:     r.FireAt.Format("2006-01-02 15:04:05 MST"),
	}
}

// ListReminders renders an owner's upcoming reminders as a numbered digest.
func (s *Service) ListReminders(ctx context.Context, ownerID string) Result {
	now := s.now().In(s.config.Location)

	reminders, err := s.store.ListScheduled(ctx, ownerID, now)
	if err != nil {
		s.logger.ErrorCtx(ctx, "failed to list reminders", err,
			logger.Field{Key: "owner_id", Value: ownerID})
		return Result{Status: "error", Message: "❌ Something went wrong fetching your reminders. Please try again."}
	}

	if len(reminders) == 0 {
		return Result{Status: "success", Message: "📅 You have no scheduled reminders."}
	}

	lines := []string{"📅 Your scheduled reminders:\n"}
	for i, r := range reminders {
		var desc string
		if r.Kind == KindEvent {
			desc = fmt.Sprintf("Remind %d min before '%s'", r.MinutesBefore, r.EventTitle)
		} else {
			desc = strings.TrimPrefix(r.Message, "⏰ Reminder: ")
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, desc, humanizeCountdown(r.FireAt.Sub(now))))
	}

	return Result{Status: "success", Message: strings.Join(lines, "\n")}
}

// formatInstant renders a fire time the way it is shown to users,
// e.g. "June 01, 2025 at 03:04 PM".
func formatInstant(t time.Time) string {
	return t.Format("January 02, 2006 at 03:04 PM")
}

// humanizeUntil renders a duration for the confirmation message:
// "2 days and 3 hours", "3 hours and 5 minutes" or "12 minutes".
func humanizeUntil(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%d days and %d hours", days, hours)
	case hours > 0:
		return fmt.Sprintf("%d hours and %d minutes", hours, minutes)
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}

// humanizeCountdown renders a compact countdown for listings:
// "in 2d 3h", "in 3h 5m" or "in 12m".
func humanizeCountdown(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("in %dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("in %dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("in %dm", minutes)
	}
}

// Package reminder holds the reminder domain: the persistent record, its
// status lifecycle, the store interface and the service operations that
// create, list and execute reminders.
package reminder

import (
	"fmt"
	"time"
)

// Kind distinguishes what a reminder is about.
type Kind string

const (
	// KindEvent is a reminder tied to a calendar event, fired a configured
	// number of minutes before the event starts.
	KindEvent Kind = "event_reminder"
	// KindCustom is a free-form reminder at a user-chosen time.
	KindCustom Kind = "custom_reminder"
)

// Status represents the reminder lifecycle state. Transitions are
// monotonic: scheduled is the only non-terminal state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusMissed    Status = "missed"
)

// Reminder is the persistent reminder record. The database row, not the
// queue task, is the source of truth: a reminder survives queue loss and
// is re-enqueued by the reconciler.
type Reminder struct {
	ID      string `json:"id" gorm:"primaryKey"`
	OwnerID string `json:"owner_id" gorm:"index;not null"`
	Kind    Kind   `json:"kind" gorm:"not null"`

	// Message is the fully rendered text delivered when the reminder fires.
	Message string `json:"message" gorm:"not null"`

	// Event payload, set for KindEvent only.
	EventTitle    string     `json:"event_title,omitempty"`
	EventAt       *time.Time `json:"event_at,omitempty"`
	MinutesBefore int        `json:"minutes_before,omitempty"`

	// TimeInput preserves the user's original time expression for
	// KindCustom reminders.
	TimeInput string `json:"time_input,omitempty"`

	// DeliveryAddress is the channel-specific destination (phone number
	// or chat id).
	DeliveryAddress string `json:"delivery_address" gorm:"not null"`

	FireAt    time.Time `json:"fire_at" gorm:"index;not null"`
	Status    Status    `json:"status" gorm:"index;default:scheduled"`
	LastError string    `json:"last_error,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	MissedAt  *time.Time `json:"missed_at,omitempty"`
}

// TableName sets the reminders table name.
func (Reminder) TableName() string {
	return "reminders"
}

// TaskName returns the deterministic queue task name for a reminder.
// Creation and the reconciler derive the same name, so a reminder is never
// enqueued twice.
func TaskName(id string) string {
	return fmt.Sprintf("reminder-%s", id)
}

// SendPath is the callback path the queue POSTs to when a reminder fires.
const SendPath = "/reminder/send"

// SendPayload is the JSON body of the execution callback.
type SendPayload struct {
	ReminderID string `json:"reminder_id"`
}

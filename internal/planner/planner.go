// Package planner holds the calendar events, tasks and user directory the
// daily briefing jobs read from.
package planner

import (
	"context"
	"time"
)

// Priority represents task priority level.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Event is a calendar entry shown in the daily briefing.
type Event struct {
	ID      string     `json:"id" gorm:"primaryKey"`
	OwnerID string     `json:"owner_id" gorm:"index;not null"`
	Title   string     `json:"title" gorm:"not null"`
	StartAt time.Time  `json:"start_at" gorm:"index;not null"`
	EndAt   *time.Time `json:"end_at,omitempty"`
	// AllDay events render without a time range.
	AllDay    bool      `json:"all_day" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the events table name.
func (Event) TableName() string {
	return "events"
}

// Task is a to-do item shown in the daily briefing.
type Task struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	OwnerID   string     `json:"owner_id" gorm:"index;not null"`
	Title     string     `json:"title" gorm:"not null"`
	Priority  Priority   `json:"priority" gorm:"default:medium"`
	Status    TaskStatus `json:"status" gorm:"index;default:pending"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName sets the tasks table name.
func (Task) TableName() string {
	return "tasks"
}

// User is a briefing recipient.
type User struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Nickname string `json:"nickname" gorm:"not null"`
	// DeliveryAddress is the channel-specific destination (phone number
	// or chat id).
	DeliveryAddress string    `json:"delivery_address" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName sets the users table name.
func (User) TableName() string {
	return "users"
}

// EventStore reads calendar events.
type EventStore interface {
	// ListOnDate returns an owner's events whose start falls on the given
	// calendar day in loc, ordered by start time ascending.
	ListOnDate(ctx context.Context, ownerID string, day time.Time, loc *time.Location) ([]*Event, error)
}

// TaskStore reads tasks.
type TaskStore interface {
	// ListActive returns an owner's pending and in-progress tasks,
	// pending first.
	ListActive(ctx context.Context, ownerID string) ([]*Task, error)
}

// UserStore reads the user directory.
type UserStore interface {
	// Get loads a user by id. Returns ErrUserNotFound when missing.
	Get(ctx context.Context, id string) (*User, error)

	// ListAll returns every user, for the briefing fan-out.
	ListAll(ctx context.Context) ([]*User, error)
}

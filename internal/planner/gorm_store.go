package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrUserNotFound is returned when a user id does not exist.
var ErrUserNotFound = errors.New("user not found")

// GormStore implements EventStore, TaskStore and UserStore using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed planner store and migrates its tables.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Event{}, &Task{}, &User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate planner tables: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) ListOnDate(ctx context.Context, ownerID string, day time.Time, loc *time.Location) ([]*Event, error) {
	day = day.In(loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	var events []*Event
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND start_at >= ? AND start_at < ?", ownerID, start, end).
		Order("start_at ASC").
		Find(&events).Error
	return events, err
}

func (s *GormStore) ListActive(ctx context.Context, ownerID string) ([]*Task, error) {
	var tasks []*Task
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND status IN ?", ownerID, []TaskStatus{TaskStatusPending, TaskStatusInProgress}).
		Order("CASE WHEN status = 'pending' THEN 0 ELSE 1 END, created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (s *GormStore) Get(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) ListAll(ctx context.Context) ([]*User, error) {
	var users []*User
	err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

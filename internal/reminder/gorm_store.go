package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM-backed reminder store and migrates the
// reminders table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Reminder{}); err != nil {
		return nil, fmt.Errorf("failed to migrate reminders table: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Create(ctx context.Context, r *Reminder) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = StatusScheduled
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (*Reminder, error) {
	var r Reminder
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *GormStore) MarkSent(ctx context.Context, id string) error {
	now := time.Now()
	return s.transition(ctx, id, map[string]interface{}{
		"status":     StatusSent,
		"sent_at":    now,
		"updated_at": now,
	})
}

func (s *GormStore) MarkFailed(ctx context.Context, id string, sendErr string) error {
	return s.transition(ctx, id, map[string]interface{}{
		"status":     StatusFailed,
		"last_error": sendErr,
		"updated_at": time.Now(),
	})
}

func (s *GormStore) MarkMissed(ctx context.Context, id string) error {
	now := time.Now()
	return s.transition(ctx, id, map[string]interface{}{
		"status":     StatusMissed,
		"missed_at":  now,
		"updated_at": now,
	})
}

// transition applies a terminal status update gated on the row still being
// scheduled. The WHERE clause makes the state machine monotonic even under
// concurrent duplicate deliveries.
func (s *GormStore) transition(ctx context.Context, id string, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&Reminder{}).
		Where("id = ? AND status = ?", id, StatusScheduled).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return ErrAlreadyFinal
	}
	return nil
}

func (s *GormStore) ListScheduled(ctx context.Context, ownerID string, after time.Time) ([]*Reminder, error) {
	var reminders []*Reminder
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND status = ? AND fire_at >= ?", ownerID, StatusScheduled, after).
		Order("fire_at ASC").
		Find(&reminders).Error
	return reminders, err
}

func (s *GormStore) ListAllScheduled(ctx context.Context) ([]*Reminder, error) {
	var reminders []*Reminder
	err := s.db.WithContext(ctx).
		Where("status = ?", StatusScheduled).
		Order("fire_at ASC").
		Find(&reminders).Error
	return reminders, err
}

func (s *GormStore) PurgeFinalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("status IN ? AND fire_at < ?", []Status{StatusSent, StatusFailed, StatusMissed}, cutoff).
		Delete(&Reminder{})
	return res.RowsAffected, res.Error
}

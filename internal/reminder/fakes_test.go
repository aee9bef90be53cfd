package reminder

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"remi/internal/queue"
)

// fakeStore is an in-memory Store for tests.
type fakeStore struct {
	mu        sync.Mutex
	reminders map[string]*Reminder
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{reminders: make(map[string]*Reminder)}
}

func (s *fakeStore) Create(_ context.Context, r *Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = StatusScheduled
	}
	cp := *r
	s.reminders[r.ID] = &cp
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) transition(id string, apply func(*Reminder)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok {
		return ErrNotFound
	}
	if r.Status != StatusScheduled {
		return ErrAlreadyFinal
	}
	apply(r)
	r.UpdatedAt = time.Now()
	return nil
}

func (s *fakeStore) MarkSent(_ context.Context, id string) error {
	now := time.Now()
	return s.transition(id, func(r *Reminder) {
		r.Status = StatusSent
		r.SentAt = &now
	})
}

func (s *fakeStore) MarkFailed(_ context.Context, id string, sendErr string) error {
	return s.transition(id, func(r *Reminder) {
		r.Status = StatusFailed
		r.LastError = sendErr
	})
}

func (s *fakeStore) MarkMissed(_ context.Context, id string) error {
	now := time.Now()
	return s.transition(id, func(r *Reminder) {
		r.Status = StatusMissed
		r.MissedAt = &now
	})
}

func (s *fakeStore) ListScheduled(_ context.Context, ownerID string, after time.Time) ([]*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Reminder
	for _, r := range s.reminders {
		if r.OwnerID == ownerID && r.Status == StatusScheduled && !r.FireAt.Before(after) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out, nil
}

func (s *fakeStore) ListAllScheduled(_ context.Context) ([]*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Reminder
	for _, r := range s.reminders {
		if r.Status == StatusScheduled {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out, nil
}

func (s *fakeStore) PurgeFinalBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for id, r := range s.reminders {
		if r.Status != StatusScheduled && r.FireAt.Before(cutoff) {
			delete(s.reminders, id)
			purged++
		}
	}
	return purged, nil
}

// fakeDispatcher records enqueued tasks.
type fakeDispatcher struct {
	mu         sync.Mutex
	tasks      []queue.Task
	deleted    []string
	enqueueErr error
}

func (d *fakeDispatcher) Enqueue(_ context.Context, task queue.Task) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enqueueErr != nil {
		return "", d.enqueueErr
	}
	d.tasks = append(d.tasks, task)
	return task.Name, nil
}

func (d *fakeDispatcher) Delete(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, name)
	return nil
}

// fakeSender records sent messages.
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	sendErr error
}

type sentMessage struct {
	address string
	message string
}

func (s *fakeSender) Send(_ context.Context, address, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, sentMessage{address: address, message: message})
	return nil
}

// inlinePool runs jobs on the calling goroutine.
type inlinePool struct{}

func (inlinePool) Execute(ctx context.Context, _ string, fn func(context.Context) error) error {
	return fn(ctx)
}

package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remi/internal/logger"
)

var testLoc = mustLoadLocation("Asia/Kuala_Lumpur")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func newTestService(t *testing.T, store Store, dispatcher *fakeDispatcher, now time.Time) *Service {
	t.Helper()
	svc := NewService(store, dispatcher, ServiceConfig{
		BaseURL:            "https://remi.example.com",
		Location:           testLoc,
		DefaultLeadMinutes: 15,
	}, testLogger(t))
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateCustomReminder(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, testLoc)
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, store, dispatcher, now)

	res := svc.CreateCustomReminder(context.Background(), "u1", "60123456789", "call mum", "in 30 minutes")

	require.Equal(t, "success", res.Status)
	assert.Contains(t, res.Message, "Reminder set!")
	assert.Contains(t, res.Message, "'call mum'")
	assert.Contains(t, res.Message, "30 minutes")
	require.NotEmpty(t, res.ReminderID)

	r, err := store.Get(context.Background(), res.ReminderID)
	require.NoError(t, err)
	assert.Equal(t, KindCustom, r.Kind)
	assert.Equal(t, StatusScheduled, r.Status)
	assert.Equal(t, "⏰ Reminder: call mum", r.Message)
	assert.Equal(t, "in 30 minutes", r.TimeInput)
	assert.Equal(t, "60123456789", r.DeliveryAddress)
	assert.True(t, r.FireAt.Equal(now.Add(30*time.Minute)))

	require.Len(t, dispatcher.tasks, 1)
	task := dispatcher.tasks[0]
	assert.Equal(t, TaskName(res.ReminderID), task.Name)
	assert.Equal(t, "https://remi.example.com/reminder/send", task.URL)
	assert.True(t, task.ScheduleAt.Equal(r.FireAt))
	assert.JSONEq(t, `{"reminder_id":"`+res.ReminderID+`"}`, string(task.Payload))
}

func TestCreateCustomReminder_UnparseableTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, testLoc)
	store := newFakeStore()
	svc := newTestService(t, store, &fakeDispatcher{}, now)

	res := svc.CreateCustomReminder(context.Background(), "u1", "60123456789", "call mum", "whenever you feel like it")

	assert.Equal(t, "error", res.Status)
	assert.Contains(t, res.Message, "couldn't understand the time")
	assert.Contains(t, res.Message, "whenever you feel like it")
	assert.Empty(t, store.reminders)
}

func TestCreateCustomReminder_PastTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 19, 0, 0, 0, testLoc)
	svc := newTestService(t, newFakeStore(), &fakeDispatcher{}, now)

	res := svc.CreateCustomReminder(context.Background(), "u1", "60123456789", "x", "2024-12-31 10:00")

	assert.Equal(t, "error", res.Status)
	assert.Contains(t, res.Message, "must be in the future")
}

func TestCreateCustomReminder_EnqueueFailureKeepsRecord(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, testLoc)
	store := newFakeStore()
	dispatcher := &fakeDispatcher{enqueueErr: errors.New("queue unavailable")}
	svc := newTestService(t, store, dispatcher, now)

	res := svc.CreateCustomReminder(context.Background(), "u1", "60123456789", "call mum", "in 2 hours")

	assert.Equal(t, "error", res.Status)
	assert.Contains(t, res.Message, "saved but could not be scheduled")
	require.NotEmpty(t, res.ReminderID)

	// The record survives for the reconciler.
	r, err := store.Get(context.Background(), res.ReminderID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, r.Status)
}

func TestCreateEventReminder(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, testLoc)
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, store, dispatcher, now)

	eventAt := time.Date(2025, 6, 1, 14, 0, 0, 0, testLoc)
	res := svc.CreateEventReminder(context.Background(), "u1", "60123456789", "Team standup", eventAt, 30)

	require.Equal(t, "success", res.Status)
	assert.Contains(t, res.Message, "30 minutes before 'Team standup'")

	r, err := store.Get(context.Background(), res.ReminderID)
	require.NoError(t, err)
	assert.Equal(t, KindEvent, r.Kind)
	assert.Equal(t, "⏰ Reminder: 'Team standup' starts in 30 minutes!", r.Message)
	assert.True(t, r.FireAt.Equal(eventAt.Add(-30*time.Minute)))
	require.Len(t, dispatcher.tasks, 1)
}

func TestCreateEventReminder_DefaultLead(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, testLoc)
	store := newFakeStore()
	svc := newTestService(t, store, &fakeDispatcher{}, now)

	eventAt := now.Add(2 * time.Hour)
	res := svc.CreateEventReminder(context.Background(), "u1", "60123456789", "Dinner", eventAt, 0)

	require.Equal(t, "success", res.Status)
	r, err := store.Get(context.Background(), res.ReminderID)
	require.NoError(t, err)
	assert.Equal(t, 15, r.MinutesBefore)
	assert.True(t, r.FireAt.Equal(eventAt.Add(-15*time.Minute)))
}

func TestCreateEventReminder_EventTooClose(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, testLoc)
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	svc := newTestService(t, store, dispatcher, now)

	// Event in 10 minutes, lead 15: the reminder instant is already past.
	eventAt := now.Add(10 * time.Minute)
	res := svc.CreateEventReminder(context.Background(), "u1", "60123456789", "Quick sync", eventAt, 15)

	assert.Equal(t, "skipped", res.Status)
	assert.Contains(t, res.Message, "Quick sync")
	assert.Empty(t, store.reminders)
	assert.Empty(t, dispatcher.tasks)
}

func TestListReminders(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, testLoc)
	store := newFakeStore()
	svc := newTestService(t, store, &fakeDispatcher{}, now)

	eventAt := now.Add(26 * time.Hour)
	require.NoError(t, store.Create(context.Background(), &Reminder{
		OwnerID: "u1", Kind: KindEvent, EventTitle: "Flight to KL", EventAt: &eventAt,
		MinutesBefore: 60, Message: "⏰ Reminder: 'Flight to KL' starts in 60 minutes!",
		DeliveryAddress: "60123456789", FireAt: eventAt.Add(-time.Hour),
	}))
	require.NoError(t, store.Create(context.Background(), &Reminder{
		OwnerID: "u1", Kind: KindCustom, Message: "⏰ Reminder: call mum",
		DeliveryAddress: "60123456789", FireAt: now.Add(90 * time.Minute),
	}))
	// Another owner's reminder must not leak in.
	require.NoError(t, store.Create(context.Background(), &Reminder{
		OwnerID: "u2", Kind: KindCustom, Message: "⏰ Reminder: other",
		DeliveryAddress: "60199999999", FireAt: now.Add(time.Hour),
	}))

	res := svc.ListReminders(context.Background(), "u1")

	require.Equal(t, "success", res.Status)
	assert.Contains(t, res.Message, "📅 Your scheduled reminders:")
	assert.Contains(t, res.Message, "1. call mum (in 1h 30m)")
	assert.Contains(t, res.Message, "2. Remind 60 min before 'Flight to KL' (in 1d 1h)")
	assert.NotContains(t, res.Message, "other")
}

func TestListReminders_Empty(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, testLoc)
	svc := newTestService(t, newFakeStore(), &fakeDispatcher{}, now)

	res := svc.ListReminders(context.Background(), "u1")

	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "📅 You have no scheduled reminders.", res.Message)
}

func TestHumanizeUntil(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Minute, "30 minutes"},
		{3*time.Hour + 5*time.Minute, "3 hours and 5 minutes"},
		{50*time.Hour + 12*time.Minute, "2 days and 2 hours"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeUntil(tt.d))
	}
}

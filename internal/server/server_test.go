package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remi/internal/logger"
	"remi/internal/reminder"
)

type stubExecutor struct {
	executed []string
	err      error
}

func (e *stubExecutor) Execute(_ context.Context, id string) error {
	e.executed = append(e.executed, id)
	return e.err
}

type stubBriefing struct {
	todayRuns    int
	tomorrowRuns int
	userRuns     []string
	sent         bool
	err          error
}

func (b *stubBriefing) RunToday(context.Context) (int, error) {
	b.todayRuns++
	return 3, b.err
}

func (b *stubBriefing) RunTomorrow(context.Context) (int, error) {
	b.tomorrowRuns++
	return 2, b.err
}

func (b *stubBriefing) RunTodayFor(_ context.Context, userID string) (bool, error) {
	b.userRuns = append(b.userRuns, "today:"+userID)
	return b.sent, b.err
}

func (b *stubBriefing) RunTomorrowFor(_ context.Context, userID string) (bool, error) {
	b.userRuns = append(b.userRuns, "tomorrow:"+userID)
	return b.sent, b.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func doJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	srv := New(&stubExecutor{}, &stubBriefing{}, testLogger(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReminderSend(t *testing.T) {
	exec := &stubExecutor{}
	srv := New(exec, &stubBriefing{}, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/send", reminder.SendPayload{ReminderID: "abc"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decodeBody(t, rec)["status"])
	assert.Equal(t, []string{"abc"}, exec.executed)
}

func TestReminderSend_NotFoundIs2xx(t *testing.T) {
	exec := &stubExecutor{err: reminder.ErrNotFound}
	srv := New(exec, &stubBriefing{}, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/send", reminder.SendPayload{ReminderID: "missing"})

	// The queue must not retry an unknown reminder.
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Reminder not found", body["message"])
}

func TestReminderSend_DeliveryFailureIs2xx(t *testing.T) {
	exec := &stubExecutor{err: &reminder.DeliveryError{ReminderID: "abc", Err: errors.New("provider down")}}
	srv := New(exec, &stubBriefing{}, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/send", reminder.SendPayload{ReminderID: "abc"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec)["status"])
}

func TestReminderSend_InfrastructureFailureIs5xx(t *testing.T) {
	exec := &stubExecutor{err: errors.New("db down")}
	srv := New(exec, &stubBriefing{}, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/send", reminder.SendPayload{ReminderID: "abc"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReminderSend_InvalidPayload(t *testing.T) {
	exec := &stubExecutor{}
	srv := New(exec, &stubBriefing{}, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/send", map[string]string{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec)["status"])
	assert.Empty(t, exec.executed)
}

func TestDailyToday(t *testing.T) {
	jobs := &stubBriefing{}
	srv := New(&stubExecutor{}, jobs, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/daily/today", map[string]bool{"scheduled": true})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(3), body["users_processed"])
	assert.Equal(t, 1, jobs.todayRuns)
}

func TestDailyTomorrow(t *testing.T) {
	jobs := &stubBriefing{}
	srv := New(&stubExecutor{}, jobs, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/daily/tomorrow", map[string]bool{"scheduled": true})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, jobs.tomorrowRuns)
}

func TestDailyToday_JobErrorIs2xx(t *testing.T) {
	jobs := &stubBriefing{err: errors.New("users unavailable")}
	srv := New(&stubExecutor{}, jobs, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/daily/today", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec)["status"])
}

func TestDailyPerUser(t *testing.T) {
	jobs := &stubBriefing{sent: true}
	srv := New(&stubExecutor{}, jobs, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/daily/today/user", map[string]string{"user_id": "u1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, true, body["message_sent"])

	rec = doJSON(t, srv.Handler(), "/reminder/daily/tomorrow/user", map[string]string{"user_id": "u2"})
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"today:u1", "tomorrow:u2"}, jobs.userRuns)
}

func TestDailyPerUser_EmptyDayReportsNoSend(t *testing.T) {
	jobs := &stubBriefing{sent: false}
	srv := New(&stubExecutor{}, jobs, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/daily/today/user", map[string]string{"user_id": "u1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "u1", body["user_id"])
	assert.Equal(t, false, body["message_sent"])
}

func TestDailyPerUser_MissingUserID(t *testing.T) {
	jobs := &stubBriefing{}
	srv := New(&stubExecutor{}, jobs, testLogger(t))

	rec := doJSON(t, srv.Handler(), "/reminder/daily/today/user", map[string]string{})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec)["status"])
	assert.Empty(t, jobs.userRuns)
}

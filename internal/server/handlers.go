package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"remi/internal/briefing"
	"remi/internal/logger"
	"remi/internal/reminder"
)

// handleReminderSend executes a fired reminder.
// POST /reminder/send {"reminder_id": "..."}
func (s *Server) handleReminderSend(c *gin.Context) {
	var payload reminder.SendPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.ReminderID == "" {
		// A malformed callback will never become valid; do not let the
		// queue retry it.
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "invalid payload"})
		return
	}

	err := s.executor.Execute(c.Request.Context(), payload.ReminderID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "success"})

	case errors.Is(err, reminder.ErrNotFound):
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "Reminder not found"})

	default:
		var deliveryErr *reminder.DeliveryError
		if errors.As(err, &deliveryErr) {
			// The reminder is marked failed; retrying delivers nobody
			// anything.
			c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
			return
		}

		s.logger.ErrorCtx(c.Request.Context(), "reminder execution failed", err,
			logger.Field{Key: "reminder_id", Value: payload.ReminderID})
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
	}
}

// handleDailyToday runs the global morning briefing fan-out.
// POST /reminder/daily/today
func (s *Server) handleDailyToday(c *gin.Context) {
	processed, err := s.briefing.RunToday(c.Request.Context())
	if err != nil {
		s.logger.ErrorCtx(c.Request.Context(), "today briefing job failed", err)
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "users_processed": processed})
}

// handleDailyTomorrow runs the global evening briefing fan-out.
// POST /reminder/daily/tomorrow
func (s *Server) handleDailyTomorrow(c *gin.Context) {
	processed, err := s.briefing.RunTomorrow(c.Request.Context())
	if err != nil {
		s.logger.ErrorCtx(c.Request.Context(), "tomorrow briefing job failed", err)
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "users_processed": processed})
}

// handleDailyTodayUser runs the morning briefing for one user.
// POST /reminder/daily/today/user {"user_id": "..."}
func (s *Server) handleDailyTodayUser(c *gin.Context) {
	s.runUserBriefing(c, s.briefing.RunTodayFor)
}

// handleDailyTomorrowUser runs the evening briefing for one user.
// POST /reminder/daily/tomorrow/user {"user_id": "..."}
func (s *Server) handleDailyTomorrowUser(c *gin.Context) {
	s.runUserBriefing(c, s.briefing.RunTomorrowFor)
}

func (s *Server) runUserBriefing(c *gin.Context, run func(ctx context.Context, userID string) (bool, error)) {
	var payload briefing.UserPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.UserID == "" {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "invalid payload"})
		return
	}

	sent, err := run(c.Request.Context(), payload.UserID)
	if err != nil {
		s.logger.ErrorCtx(c.Request.Context(), "user briefing job failed", err,
			logger.Field{Key: "user_id", Value: payload.UserID})
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"user_id":      payload.UserID,
		"message_sent": sent,
	})
}

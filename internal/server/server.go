// Package server exposes the HTTP callback endpoints the task queue
// delivers into: reminder execution and the daily briefing jobs.
//
// Callback handlers answer 2xx for every business outcome, including
// failures: the queue retries on non-2xx, and retrying a delivery failure
// or a missing reminder would not make it succeed. Non-2xx is reserved for
// infrastructure faults where a retry can help.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"remi/internal/briefing"
	"remi/internal/logger"
	"remi/internal/reminder"
)

// Executor runs a fired reminder. Implemented by reminder.Executor.
type Executor interface {
	Execute(ctx context.Context, id string) error
}

// BriefingJobs runs the daily briefing jobs. Implemented by
// briefing.Runner.
type BriefingJobs interface {
	RunToday(ctx context.Context) (int, error)
	RunTomorrow(ctx context.Context) (int, error)
	RunTodayFor(ctx context.Context, userID string) (bool, error)
	RunTomorrowFor(ctx context.Context, userID string) (bool, error)
}

// Server is the callback HTTP server.
type Server struct {
	engine   *gin.Engine
	executor Executor
	briefing BriefingJobs
	logger   *logger.Logger
}

// New creates the callback server and registers its routes.
func New(executor Executor, briefingRunner BriefingJobs, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:   engine,
		executor: executor,
		briefing: briefingRunner,
		logger:   log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST(reminder.SendPath, s.handleReminderSend)
	s.engine.POST(briefing.TodayPath, s.handleDailyToday)
	s.engine.POST(briefing.TomorrowPath, s.handleDailyTomorrow)
	s.engine.POST(briefing.TodayUserPath, s.handleDailyTodayUser)
	s.engine.POST(briefing.TomorrowUserPath, s.handleDailyTomorrowUser)
}

// Handler returns the http.Handler for serving.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Package app wires the Remi components together and manages their
// lifecycle: database, queue client, delivery sender, send worker pool,
// callback HTTP server, startup scheduling and the reconciler.
package app

import (
	"context"
	"net/http"
	"sync"

	"gorm.io/gorm"

	"remi/internal/briefing"
	"remi/internal/cleanup"
	"remi/internal/config"
	"remi/internal/delivery"
	"remi/internal/logger"
	"remi/internal/planner"
	"remi/internal/queue"
	"remi/internal/reconcile"
	"remi/internal/reminder"
	"remi/internal/workers"
)

// App represents the running application.
type App struct {
	config *config.Config
	logger *logger.Logger

	db *gorm.DB

	queueClient *queue.Client
	sender      delivery.Sender

	reminderStore *reminder.GormStore
	plannerStore  *planner.GormStore

	service    *reminder.Service
	executor   *reminder.Executor
	briefing   *briefing.Runner
	reconciler *reconcile.Reconciler
	cleanup    *cleanup.Scheduler

	pool       *workers.Pool
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
}

// New creates a new App instance. Components are wired in Initialize.
func New(cfg *config.Config, log *logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

// Service returns the reminder service, for embedding Remi's operations
// into a larger assistant process.
func (a *App) Service() *reminder.Service {
	return a.service
}

// Run starts the application and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		return err
	}

	if err := a.Start(); err != nil {
		return err
	}

	a.logger.Info("application is running",
		logger.Field{Key: "listen", Value: a.config.Server.Listen})

	<-ctx.Done()

	return a.Shutdown()
}

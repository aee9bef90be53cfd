package app

import (
	"context"
	"fmt"
	"net/http"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"remi/internal/briefing"
	"remi/internal/cleanup"
	"remi/internal/delivery"
	"remi/internal/logger"
	"remi/internal/planner"
	"remi/internal/queue"
	"remi/internal/reconcile"
	"remi/internal/reminder"
	"remi/internal/server"
	"remi/internal/workers"
)

// Initialize wires all application components.
func (a *App) Initialize(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	// 1. Database
	db, err := gorm.Open(postgres.Open(a.config.Database.DSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db

	a.reminderStore, err = reminder.NewGormStore(db)
	if err != nil {
		return err
	}
	a.plannerStore, err = planner.NewGormStore(db)
	if err != nil {
		return err
	}

	// 2. Task queue client
	a.queueClient = queue.NewClient(queue.ClientConfig{
		BaseURL:        a.config.Queue.BaseURL,
		Project:        a.config.Queue.Project,
		Location:       a.config.Queue.Location,
		Queue:          a.config.Queue.Queue,
		AuthToken:      a.config.Queue.AuthToken,
		TimeoutSeconds: a.config.Queue.TimeoutSeconds,
	}, a.logger)

	// 3. Delivery sender
	a.sender, err = delivery.New(a.config.Delivery, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("delivery sender initialized",
		logger.Field{Key: "channel", Value: a.config.Delivery.Channel})

	// 4. Send worker pool
	metrics := workers.InitMetrics("remi", nil)
	a.pool = workers.NewPool(a.config.Workers.PoolSize, a.config.Workers.QueueSize, metrics, a.logger)

	// 5. Reminder service and executor
	a.service = reminder.NewService(a.reminderStore, a.queueClient, reminder.ServiceConfig{
		BaseURL:            a.config.Server.BaseURL,
		Location:           a.config.Location(),
		DefaultLeadMinutes: a.config.Reminders.DefaultLeadMinutes,
	}, a.logger)
	a.executor = reminder.NewExecutor(a.reminderStore, a.sender, a.pool, a.logger)

	// 6. Briefing jobs
	a.briefing, err = briefing.NewRunner(a.plannerStore, a.plannerStore, a.plannerStore,
		a.sender, a.queueClient, briefing.Config{
			BaseURL:    a.config.Server.BaseURL,
			Timezone:   a.config.Timezone,
			TodayAt:    a.config.Briefing.TodayAt,
			TomorrowAt: a.config.Briefing.TomorrowAt,
			PerUser:    a.config.Briefing.PerUser,
		}, a.logger)
	if err != nil {
		return err
	}

	// 7. Reconciler
	a.reconciler = reconcile.New(a.reminderStore, a.queueClient,
		a.config.Server.BaseURL, a.config.GracePeriod(), a.logger)

	// 8. Retention cleanup
	cleanupRunner := cleanup.NewRunner(cleanup.Config{
		RetentionDays: a.config.Reminders.RetentionDays,
	}, a.reminderStore, a.logger)
	a.cleanup = cleanup.NewScheduler(cleanupRunner, a.logger)

	// 9. Callback HTTP server
	srv := server.New(a.executor, a.briefing, a.logger)
	a.httpServer = &http.Server{
		Addr:    a.config.Server.Listen,
		Handler: srv.Handler(),
	}

	return nil
}

// Start brings the application up: workers, HTTP server, reconciliation
// and the daily briefing schedule.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return fmt.Errorf("application already started")
	}

	a.pool.Start()

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", err,
				logger.Field{Key: "listen", Value: a.httpServer.Addr})
			a.cancel()
		}
	}()

	// Restore reminder scheduling before any new work arrives.
	report, err := a.reconciler.Run(a.ctx)
	if err != nil {
		return fmt.Errorf("reminder reconciliation failed: %w", err)
	}
	for _, recErr := range report.Errors {
		a.logger.Error("reconciliation error", recErr)
	}

	if err := a.briefing.Schedule(a.ctx); err != nil {
		return fmt.Errorf("failed to schedule daily briefings: %w", err)
	}

	a.cleanup.Start(a.ctx)

	a.started = true
	return nil
}

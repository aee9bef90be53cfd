package app

import (
	"context"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Shutdown stops accepting callbacks, drains in-flight sends and
// releases resources. Safe to call once after Start.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}

	a.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown failed", err)
	}

	a.cleanup.Stop()
	a.pool.Stop()

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.logger.Error("failed to close database", err)
			}
		}
	}

	a.cancel()
	a.started = false
	a.logger.Info("shutdown complete")
	return nil
}

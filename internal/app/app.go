// Package app provides application lifecycle management for the document source server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/logger"
)

// DocSourceApp encapsulates all components needed to run the document source API server
// It provides lifecycle management and graceful shutdown capabilities
type DocSourceApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the application components (HTTP server, upload workers and periodic checks)
// This method blocks until the HTTP server stops or encounters an error
func (app *DocSourceApp) Start() error {
	app.components.Queue.Start(app.ctx)

	// Start periodic checks in background
	go func() {
		if err := app.components.Scheduler.Start(app.ctx); err != nil {
			logger.Errorf("Source check scheduler failed: %v", err)
		}
	}()

	// Start HTTP server (blocks until stopped)
	logger.Infof("Server listening on %s", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout
// The HTTP server stops accepting uploads first, then periodic checks stop and the
// upload queue drains before storage and the database are released.
func (app *DocSourceApp) Stop(timeout time.Duration) error {
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	if err := app.components.Scheduler.Stop(); err != nil {
		logger.Errorf("Failed to stop scheduler: %v", err)
	}

	if err := app.components.Queue.Stop(); err != nil {
		logger.Errorf("Failed to stop upload queue: %v", err)
	}

	// Cancel the application context and release storage resources
	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logger.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *DocSourceApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *DocSourceApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetComponents returns the application components
func (app *DocSourceApp) GetComponents() *AppComponents {
	return app.components
}

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/docsource-server/internal/app"
	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/logger"
	"github.com/stacklok/docsource-server/internal/telemetry"
	"github.com/stacklok/docsource-server/pkg/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the document source API server",
	Long: `Start the document source API server.

The server requires a configuration file (--config) that specifies:
- Data directory and database (local SQLite or PostgreSQL)
- File storages for staging caches, shared uploads and documents
- Sources, document types and metadata types created at startup
- Authentication, authorization and telemetry settings

The server runs the upload workers and the periodic source checks
alongside the HTTP API.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	serveCmd.Flags().String("data-dir", "", "Directory for local state (overrides dataDir in the config file)")

	for _, name := range []string{"address", "config", "data-dir"} {
		if err := viper.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			logger.Fatalf("Failed to bind %s flag: %v", name, err)
		}
	}

	// Mark config as required
	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Infof("Loaded configuration from %s (driver: %s, sources: %d)",
		configPath, cfg.GetDatabaseDriver(), len(cfg.Sources))

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(withServiceVersion(cfg.Telemetry)))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Failed to shutdown telemetry: %v", err)
		}
	}()

	opts := []app.DocSourceAppOptions{
		app.WithConfig(cfg),
		app.WithAddress(viper.GetString("address")),
		app.WithMeterProvider(tel.MeterProvider()),
		app.WithTracerProvider(tel.TracerProvider()),
	}
	if h := tel.PrometheusHandler(); h != nil {
		opts = append(opts, app.WithMetricsHandler(h))
	}
	if dir := viper.GetString("data-dir"); dir != "" {
		opts = append(opts, app.WithDataDirectory(dir))
	}

	docSourceApp, err := app.NewDocSourceApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- docSourceApp.Start()
	}()

	// Wait for interrupt signal or a server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var startErr error
	select {
	case sig := <-quit:
		logger.Infof("Received signal %s", sig)
	case startErr = <-errCh:
		if startErr != nil {
			logger.Errorf("Server failed: %v", startErr)
		}
	}

	if err := docSourceApp.Stop(defaultGracefulTimeout); err != nil {
		return err
	}
	return startErr
}

// withServiceVersion fills the telemetry service version from the build
func withServiceVersion(cfg *telemetry.Config) *telemetry.Config {
	if cfg == nil || cfg.ServiceVersion != "" {
		return cfg
	}
	withVersion := *cfg
	withVersion.ServiceVersion = versions.Version
	return &withVersion
}

// Package main is the entry point for the document source API server.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/stacklok/docsource-server/cmd/docsource-api/app"
	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/logger"
)

// logLevelFromEnv reads DOCSOURCE_LOG_LEVEL, then LOG_LEVEL
func logLevelFromEnv() string {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if level := v.GetString("LOG_LEVEL"); level != "" {
		return level
	}
	return os.Getenv("LOG_LEVEL")
}

func main() {
	name := logLevelFromEnv()
	level, ok := logger.ParseSlogLevel(name)

	// Logs go to stderr so stdout only carries command output
	app.LogLevel.Set(level)
	slog.SetDefault(slog.New(logger.NewSlogHandler(os.Stderr, app.LogLevel)))
	logger.Initialize(level.String())
	if !ok {
		slog.Warn("Invalid log level, using info", "value", name)
	}

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// Package logger provides a process-wide printf-style logger backed by zap.
package logger

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	current.Store(newSugared(zapcore.InfoLevel))
}

// Initialize replaces the global logger with one logging at the given level.
// Unknown levels fall back to info.
func Initialize(level string) {
	current.Store(newSugared(parseLevel(level)))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newSugared(level zapcore.Level) *zap.SugaredLogger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Debug logs a message at debug level
func Debug(msg string) { current.Load().Debug(msg) }

// Debugf logs a formatted message at debug level
func Debugf(format string, args ...any) { current.Load().Debugf(format, args...) }

// Info logs a message at info level
func Info(msg string) { current.Load().Info(msg) }

// Infof logs a formatted message at info level
func Infof(format string, args ...any) { current.Load().Infof(format, args...) }

// Warn logs a message at warn level
func Warn(msg string) { current.Load().Warn(msg) }

// Warnf logs a formatted message at warn level
func Warnf(format string, args ...any) { current.Load().Warnf(format, args...) }

// Error logs a message at error level
func Error(msg string) { current.Load().Error(msg) }

// Errorf logs a formatted message at error level
func Errorf(format string, args ...any) { current.Load().Errorf(format, args...) }

// Fatalf logs a formatted message and exits the process
func Fatalf(format string, args ...any) { current.Load().Fatalf(format, args...) }

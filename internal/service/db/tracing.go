package database

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/otel"
)

const (
	// ServiceTracerName is the name used for the database service tracer
	ServiceTracerName = "github.com/stacklok/docsource-server/service/db"
)

// dbSystem returns the db.system attribute of a database driver
func dbSystem(driver string) attribute.KeyValue {
	if driver == config.DatabaseDriverPostgres {
		return semconv.DBSystemPostgreSQL
	}
	return semconv.DBSystemSqlite
}

// startSpan starts a new span for service operations.
// If the tracer is nil, it returns a no-op span from the context.
// Every span carries the db.system attribute of the configured driver.
func (s *dbService) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	opts = append([]trace.SpanStartOption{trace.WithAttributes(dbSystem(s.driver))}, opts...)
	return otel.StartSpan(ctx, s.tracer, name, opts...)
}

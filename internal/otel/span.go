// Package otel holds the span helpers and attribute keys shared by the source
// and document services.
package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys put on service spans
const (
	AttrSourceID       = attribute.Key("source.id")
	AttrSourceBackend  = attribute.Key("source.backend")
	AttrDocumentID     = attribute.Key("document.id")
	AttrDocumentTypeID = attribute.Key("document_type.id")
	AttrStagingFile    = attribute.Key("staging.file")
	AttrPageSize       = attribute.Key("pagination.limit")
	AttrResultCount    = attribute.Key("result.count")

	// AttrErrorType carries the Go type of the innermost wrapped error
	AttrErrorType = attribute.Key("error.type")
)

// StartSpan starts a span on tracer. A nil tracer yields the span already in ctx,
// which is a no-op span when there is none.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed. The status description is fixed so mail
// passwords and folder paths stay out of it; the error text goes to the event.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, trace.WithAttributes(AttrErrorType.String(errorType(err))))
	span.SetStatus(codes.Error, "operation failed")
}

// errorType unwraps fmt.Errorf chains to name the error that caused err
func errorType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}

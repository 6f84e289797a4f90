package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceNamespace groups every docsource process under one namespace
const ServiceNamespace = "docsource"

// newResource describes the running server. resource.New is used instead of
// resource.Default so the schema URL never conflicts with the SDK's.
func newResource(ctx context.Context, cfg *Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.GetServiceName()),
		semconv.ServiceVersion(cfg.GetServiceVersion()),
		semconv.ServiceNamespace(ServiceNamespace),
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

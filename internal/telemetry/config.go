// Package telemetry wires OpenTelemetry tracing and metrics for the document source server.
// Traces and metrics are pushed over OTLP/HTTP; metrics can also be scraped through Prometheus.
package telemetry

import (
	"errors"
	"fmt"
)

const (
	// DefaultServiceName identifies the server when serviceName is not configured
	DefaultServiceName = "docsource-api"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the trace ratio used when sampling is not configured
	DefaultSampling = 0.05
)

// Config is the telemetry section of the server configuration
type Config struct {
	// Enabled is the master switch. Nothing is exported while it is false.
	Enabled bool `yaml:"enabled"`

	ServiceName    string `yaml:"serviceName,omitempty"`
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is "host:port"; the exporters append /v1/traces and /v1/metrics.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure selects plain HTTP towards the collector.
	Insecure bool `yaml:"insecure,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of root traces kept, between 0 and 1.
	// Unset means DefaultSampling; an explicit 0 drops every root trace.
	Sampling *float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls metric export
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Prometheus serves the metrics on /metrics next to the OTLP exporter.
	Prometheus bool `yaml:"prometheus,omitempty"`

	// DisableOTLP keeps only the Prometheus reader.
	DisableOTLP bool `yaml:"disableOtlp,omitempty"`
}

// GetServiceName returns the configured service name or DefaultServiceName
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the configured version or "unknown"
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return "unknown"
	}
	return c.ServiceVersion
}

// GetEndpoint returns the configured collector endpoint or DefaultEndpoint
func (c *Config) GetEndpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// GetInsecure reports whether the exporters use plain HTTP
func (c *Config) GetInsecure() bool {
	return c.Insecure
}

// GetSampling returns the configured ratio or DefaultSampling when unset
func (c *TracingConfig) GetSampling() float64 {
	if c == nil || c.Sampling == nil {
		return DefaultSampling
	}
	return *c.Sampling
}

// Validate checks the tracing and metrics sections of an enabled configuration
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if err := c.Tracing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	return errors.Join(errs...)
}

// Validate checks the sampling ratio of enabled tracing
func (c *TracingConfig) Validate() error {
	if c == nil || !c.Enabled || c.Sampling == nil {
		return nil
	}
	if s := *c.Sampling; s < 0 || s > 1 {
		return fmt.Errorf("sampling must be between 0.0 and 1.0, got %v", s)
	}
	return nil
}

// Validate checks that enabled metrics keep at least one reader
func (c *MetricsConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if c.DisableOTLP && !c.Prometheus {
		return errors.New("at least one metrics exporter must be enabled")
	}
	return nil
}

// Package telemetry provides OpenTelemetry instrumentation for the document source server.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SourceMetricsMeterName is the name used for the document source metrics meter
	SourceMetricsMeterName = "github.com/stacklok/docsource-server/sources"

	// CheckMetricsMeterName is the name used for the periodic check metrics meter
	CheckMetricsMeterName = "github.com/stacklok/docsource-server/checks"

	// IngestMetricsMeterName is the name used for the ingestion pipeline metrics meter
	IngestMetricsMeterName = "github.com/stacklok/docsource-server/ingest"
)

// SourceMetrics holds the instruments for staging file previews
type SourceMetrics struct {
	imageCacheHits   metric.Int64Counter
	imageCacheMisses metric.Int64Counter
}

// NewSourceMetrics creates a new SourceMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSourceMetrics(provider metric.MeterProvider) (*SourceMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SourceMetricsMeterName)

	hits, err := meter.Int64Counter(
		"docsource_staging_image_cache_hits_total",
		metric.WithDescription("Staging file previews served from the cache"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"docsource_staging_image_cache_misses_total",
		metric.WithDescription("Staging file previews that had to be generated"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, err
	}

	return &SourceMetrics{imageCacheHits: hits, imageCacheMisses: misses}, nil
}

// RecordImageCache records a staging image cache lookup for a source
func (m *SourceMetrics) RecordImageCache(ctx context.Context, sourceID int64, hit bool) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Int64("source_id", sourceID))
	if hit {
		m.imageCacheHits.Add(ctx, 1, attrs)
	} else {
		m.imageCacheMisses.Add(ctx, 1, attrs)
	}
}

// CheckMetrics holds the instruments for periodic source checks
type CheckMetrics struct {
	checkDuration metric.Float64Histogram
}

// NewCheckMetrics creates a new CheckMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCheckMetrics(provider metric.MeterProvider) (*CheckMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CheckMetricsMeterName)

	checkDuration, err := meter.Float64Histogram(
		"docsource_check_duration_seconds",
		metric.WithDescription("Duration of periodic source checks in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	return &CheckMetrics{checkDuration: checkDuration}, nil
}

// RecordCheckDuration records the duration of a periodic check
func (m *CheckMetrics) RecordCheckDuration(
	ctx context.Context, sourceID int64, backendPath string, duration time.Duration, success bool,
) {
	if m == nil || m.checkDuration == nil {
		return
	}

	m.checkDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.Int64("source_id", sourceID),
		attribute.String("backend", backendPath),
		attribute.Bool("success", success),
	))
}

// IngestMetrics holds the instruments for the upload pipeline
type IngestMetrics struct {
	documentsIngested metric.Int64Counter
	tasksFailed       metric.Int64Counter
	queueDepth        metric.Int64UpDownCounter
}

// NewIngestMetrics creates a new IngestMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewIngestMetrics(provider metric.MeterProvider) (*IngestMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(IngestMetricsMeterName)

	ingested, err := meter.Int64Counter(
		"docsource_documents_ingested_total",
		metric.WithDescription("Documents created by the ingestion pipeline"),
		metric.WithUnit("{document}"),
	)
	if err != nil {
		return nil, err
	}

	failed, err := meter.Int64Counter(
		"docsource_upload_tasks_failed_total",
		metric.WithDescription("Upload tasks that failed"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	depth, err := meter.Int64UpDownCounter(
		"docsource_upload_queue_depth",
		metric.WithDescription("Upload tasks waiting for a worker"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	return &IngestMetrics{documentsIngested: ingested, tasksFailed: failed, queueDepth: depth}, nil
}

// RecordDocumentsIngested records documents created for a source
func (m *IngestMetrics) RecordDocumentsIngested(ctx context.Context, sourceID int64, count int) {
	if m == nil || count == 0 {
		return
	}
	m.documentsIngested.Add(ctx, int64(count), metric.WithAttributes(attribute.Int64("source_id", sourceID)))
}

// RecordTaskFailed records a failed upload task
func (m *IngestMetrics) RecordTaskFailed(ctx context.Context, sourceID int64) {
	if m == nil {
		return
	}
	m.tasksFailed.Add(ctx, 1, metric.WithAttributes(attribute.Int64("source_id", sourceID)))
}

// RecordQueueDelta adjusts the queue depth gauge
func (m *IngestMetrics) RecordQueueDelta(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.queueDepth.Add(ctx, delta)
}

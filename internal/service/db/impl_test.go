package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/docsource-server/internal/config"
	docmocks "github.com/stacklok/docsource-server/internal/documents/mocks"
	"github.com/stacklok/docsource-server/internal/service/db/mocks"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/wizard"
)

func TestNewRequiresStores(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := mocks.NewMockSourceStore(ctrl)
	docs := docmocks.NewMockStore(ctrl)
	registry := sources.NewRegistry()

	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{
			name:    "missing source store",
			opts:    []Option{WithDocumentStore(docs), WithRegistry(registry, nil)},
			wantErr: "source store is required",
		},
		{
			name:    "missing document store",
			opts:    []Option{WithSourceStore(store), WithRegistry(registry, nil)},
			wantErr: "document store is required",
		},
		{
			name:    "missing registry",
			opts:    []Option{WithSourceStore(store), WithDocumentStore(docs)},
			wantErr: "backend registry is required",
		},
		{
			name:    "nil registry option",
			opts:    []Option{WithRegistry(nil, nil)},
			wantErr: "backend registry is required",
		},
		{
			name: "complete",
			opts: []Option{WithSourceStore(store), WithDocumentStore(docs), WithRegistry(registry, nil)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, err := New(tt.opts...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, svc.ListWizardSteps())
		})
	}
}

func TestCheckReadiness(t *testing.T) {
	t.Parallel()

	ts := newTestService(t)
	assert.NoError(t, ts.CheckReadiness(context.Background()))

	pinger := mocks.NewMockPinger(ts.ctrl)
	ts.pinger = pinger
	pinger.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))

	err := ts.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
}

func TestListWizardSteps(t *testing.T) {
	t.Parallel()

	ts := newTestService(t)
	ts.wizard = wizard.NewDefaultRegistry(ts.docs)

	steps := ts.ListWizardSteps()
	require.Len(t, steps, 2)
	assert.Equal(t, wizard.StepDocumentType, steps[0].Name())
	assert.Equal(t, wizard.StepMetadata, steps[1].Name())
}

func TestStartSpanAddsDBSystem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver string
		want   string
	}{
		{driver: config.DatabaseDriverPostgres, want: "postgresql"},
		{driver: config.DatabaseDriverSQLite, want: "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			t.Parallel()

			exporter := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

			svc := &dbService{tracer: tp.Tracer(ServiceTracerName), driver: tt.driver}
			_, span := svc.startSpan(context.Background(), "dbService.Test")
			span.End()

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			var system string
			for _, attr := range spans[0].Attributes {
				if attr.Key == "db.system" {
					system = attr.Value.AsString()
				}
			}
			assert.Equal(t, tt.want, system)
		})
	}
}

func TestStartSpanNilTracer(t *testing.T) {
	t.Parallel()

	svc := &dbService{}
	ctx, span := svc.startSpan(context.Background(), "dbService.Test")
	require.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid(), "nil tracer should return no-op span")
	assert.NotPanics(t, func() { span.End() })
}

package app

import (
	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/scheduler"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/storage"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Scheduler runs periodic source checks
	Scheduler scheduler.Scheduler

	// Queue runs upload tasks through the ingestion pipeline
	Queue *ingest.Queue

	// Service provides the source and document business logic
	Service service.Service

	// Registry holds the source backends
	Registry *sources.Registry

	// Storage holds the defined storages
	Storage *storage.Defined
}

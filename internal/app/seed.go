package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stacklok/docsource-server/internal/config"
	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/logger"
	"github.com/stacklok/docsource-server/internal/service"
)

// InitializeFromConfig ensures the metadata types, document types and sources
// declared in config exist. Entries are matched by name or label and existing
// ones are left untouched, so it is safe to call on every startup.
func InitializeFromConfig(ctx context.Context, cfg *config.Config, svc service.Service) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	if svc == nil {
		return fmt.Errorf("service is required")
	}

	metadataIDs, err := seedMetadataTypes(ctx, cfg.MetadataTypes, svc)
	if err != nil {
		return err
	}

	if err := seedDocumentTypes(ctx, cfg.DocumentTypes, metadataIDs, svc); err != nil {
		return err
	}

	return seedSources(ctx, cfg.Sources, svc)
}

func seedMetadataTypes(
	ctx context.Context, declared []config.MetadataTypeConfig, svc service.Service,
) (map[string]int64, error) {
	existing, err := svc.ListMetadataTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata types: %w", err)
	}

	ids := make(map[string]int64, len(existing))
	for _, mt := range existing {
		ids[mt.Name] = mt.ID
	}

	created := 0
	for i, mtCfg := range declared {
		if _, ok := ids[mtCfg.Name]; ok {
			continue
		}
		mt, err := svc.CreateMetadataType(ctx, &documents.MetadataType{Name: mtCfg.Name, Label: mtCfg.Label})
		if err != nil {
			return nil, fmt.Errorf("metadataTypes[%d] (%s): %w", i, mtCfg.Name, err)
		}
		ids[mt.Name] = mt.ID
		created++
	}

	if created > 0 {
		logger.Infof("Initialized %d metadata type%s from config", created, pluralize(created, "", "s"))
	}
	return ids, nil
}

func seedDocumentTypes(
	ctx context.Context, declared []config.DocumentTypeConfig, metadataIDs map[string]int64, svc service.Service,
) error {
	existing, err := svc.ListDocumentTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list document types: %w", err)
	}

	labels := make(map[string]bool, len(existing))
	for _, dt := range existing {
		labels[dt.Label] = true
	}

	created := 0
	for i, dtCfg := range declared {
		if labels[dtCfg.Label] {
			continue
		}

		docType := &documents.DocumentType{Label: dtCfg.Label}
		for _, name := range dtCfg.MetadataTypes {
			id, ok := metadataIDs[name]
			if !ok {
				logger.Warnf("documentTypes[%d] (%s): unknown metadata type %q skipped", i, dtCfg.Label, name)
				continue
			}
			docType.MetadataTypeIDs = append(docType.MetadataTypeIDs, id)
		}

		if _, err := svc.CreateDocumentType(ctx, docType); err != nil {
			return fmt.Errorf("documentTypes[%d] (%s): %w", i, dtCfg.Label, err)
		}
		labels[dtCfg.Label] = true
		created++
	}

	if created > 0 {
		logger.Infof("Initialized %d document type%s from config", created, pluralize(created, "", "s"))
	}
	return nil
}

func seedSources(ctx context.Context, declared []config.SourceConfig, svc service.Service) error {
	existing, err := svc.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	labels := make(map[string]bool, len(existing))
	for _, src := range existing {
		labels[src.Label] = true
	}

	created := 0
	for i, srcCfg := range declared {
		if labels[srcCfg.Label] {
			logger.Debugf("Source %s already exists, skipping", srcCfg.Label)
			continue
		}

		var data json.RawMessage
		if len(srcCfg.BackendData) > 0 {
			data, err = json.Marshal(srcCfg.BackendData)
			if err != nil {
				return fmt.Errorf("sources[%d] (%s): invalid backendData: %w", i, srcCfg.Label, err)
			}
		}

		src, err := svc.CreateSource(ctx, &service.SourceInput{
			Label:       srcCfg.Label,
			Enabled:     srcCfg.IsEnabled(),
			BackendPath: srcCfg.Backend,
			BackendData: data,
		})
		if err != nil {
			return fmt.Errorf("sources[%d] (%s): %w", i, srcCfg.Label, err)
		}
		labels[src.Label] = true
		created++

		logger.Infof("Initialized source: %s (id: %d, backend: %s)", src.Label, src.ID, src.BackendPath)
	}

	if created == 0 {
		logger.Info("No new sources found in config")
	}
	return nil
}

// pluralize returns singular or plural suffix based on count
func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

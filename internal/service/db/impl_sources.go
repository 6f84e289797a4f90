package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/logger"
	"github.com/stacklok/docsource-server/internal/otel"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/internal/sources"
	"github.com/stacklok/docsource-server/internal/status"
)

// ListSources returns every source ordered by label
func (s *dbService) ListSources(ctx context.Context) ([]*sources.Source, error) {
	ctx, span := s.startSpan(ctx, "dbService.ListSources")
	defer span.End()

	list, err := s.sources.List(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(list)))
	return list, nil
}

// GetSource returns one source
func (s *dbService) GetSource(ctx context.Context, id int64) (*sources.Source, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetSource",
		trace.WithAttributes(otel.AttrSourceID.Int64(id)))
	defer span.End()

	src, err := s.sources.Get(ctx, id)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return src, nil
}

// CreateSource validates and persists a source, then runs its backend Create hook.
// The record is removed again when the hook fails.
func (s *dbService) CreateSource(ctx context.Context, input *service.SourceInput) (*sources.Source, error) {
	ctx, span := s.startSpan(ctx, "dbService.CreateSource",
		trace.WithAttributes(otel.AttrSourceBackend.String(input.BackendPath)))
	defer span.End()

	src, err := s.createSource(ctx, input)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrSourceID.Int64(src.ID))
	return src, nil
}

func (s *dbService) createSource(ctx context.Context, input *service.SourceInput) (*sources.Source, error) {
	label := strings.TrimSpace(input.Label)
	if label == "" {
		return nil, sources.NewValidationError("label", "This field is required.")
	}
	if input.BackendPath == "" {
		return nil, sources.NewValidationError("backend_path", "This field is required.")
	}

	// Validation returns the data with field defaults filled in
	data, err := s.registry.Validate(ctx, s.env, input.BackendPath, input.BackendData)
	if err != nil {
		return nil, err
	}

	created, err := s.sources.Create(ctx, &sources.Source{
		Label:       label,
		Enabled:     input.Enabled,
		BackendPath: input.BackendPath,
		BackendData: data,
	})
	if err != nil {
		return nil, err
	}

	backend, _, err := s.registry.Backend(created, s.env)
	if err == nil {
		err = backend.Create(ctx)
	}
	if err != nil {
		// Roll back even if the request was cancelled meanwhile
		if delErr := s.sources.Delete(context.WithoutCancel(ctx), created.ID); delErr != nil {
			logger.Errorf("Source %d: Failed to remove source after create hook error: %v", created.ID, delErr)
		}
		return nil, fmt.Errorf("failed to set up source %s: %w", label, err)
	}

	logger.Infof("Created source %d (%s) with backend %s", created.ID, created.Label, created.BackendPath)
	s.triggerIfPeriodic(created)
	return created, nil
}

// UpdateSource applies a full or partial edit, then runs the backend Save hook
func (s *dbService) UpdateSource(ctx context.Context, id int64, update *service.SourceUpdate) (*sources.Source, error) {
	ctx, span := s.startSpan(ctx, "dbService.UpdateSource",
		trace.WithAttributes(otel.AttrSourceID.Int64(id)))
	defer span.End()

	src, err := s.updateSource(ctx, id, update)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return src, nil
}

func (s *dbService) updateSource(ctx context.Context, id int64, update *service.SourceUpdate) (*sources.Source, error) {
	current, err := s.sources.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Nil fields of a partial edit keep their current value
	next := *current
	if update.Label != nil {
		next.Label = strings.TrimSpace(*update.Label)
		if next.Label == "" {
			return nil, sources.NewValidationError("label", "This field is required.")
		}
	}
	if update.Enabled != nil {
		next.Enabled = *update.Enabled
	}
	if update.BackendPath != nil {
		next.BackendPath = *update.BackendPath
	}

	// Backend data is revalidated whenever it or the backend changes, so
	// that defaults of a new backend are applied.
	if update.BackendData != nil || next.BackendPath != current.BackendPath {
		raw := update.BackendData
		if raw == nil {
			raw = current.BackendData
		}
		data, err := s.registry.Validate(ctx, s.env, next.BackendPath, raw)
		if err != nil {
			return nil, err
		}
		next.BackendData = data
	}

	updated, err := s.sources.Update(ctx, &next)
	if err != nil {
		return nil, err
	}

	backend, _, err := s.registry.Backend(updated, s.env)
	if err != nil {
		return nil, err
	}
	if err := backend.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save source %s: %w", updated.Label, err)
	}

	logger.Infof("Updated source %d (%s)", updated.ID, updated.Label)
	s.triggerIfPeriodic(updated)
	return updated, nil
}

// DeleteSource runs the backend Delete hook, then removes the source and its check status
func (s *dbService) DeleteSource(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "dbService.DeleteSource",
		trace.WithAttributes(otel.AttrSourceID.Int64(id)))
	defer span.End()

	if err := s.deleteSource(ctx, id); err != nil {
		otel.RecordError(span, err)
		return err
	}
	return nil
}

func (s *dbService) deleteSource(ctx context.Context, id int64) error {
	src, err := s.sources.Get(ctx, id)
	if err != nil {
		return err
	}

	backend, _, err := s.registry.Backend(src, s.env)
	switch {
	case errors.Is(err, sources.ErrBackendNotFound):
		// The backend was removed from the server; the record can still go.
		logger.Warnf("Source %d: Backend %s is not registered, skipping delete hook", id, src.BackendPath)
	case err != nil:
		return err
	default:
		if err := backend.Delete(ctx); err != nil {
			return fmt.Errorf("failed to tear down source %s: %w", src.Label, err)
		}
	}

	if err := s.sources.Delete(ctx, id); err != nil {
		return err
	}
	if s.scheduler != nil {
		if err := s.scheduler.Forget(ctx, id); err != nil {
			logger.Warnf("Source %d: Failed to remove check status: %v", id, err)
		}
	}

	logger.Infof("Deleted source %d (%s)", id, src.Label)
	return nil
}

// TestSource runs one periodic check in test mode
func (s *dbService) TestSource(ctx context.Context, id int64) (*sources.ProcessResult, error) {
	ctx, span := s.startSpan(ctx, "dbService.TestSource",
		trace.WithAttributes(otel.AttrSourceID.Int64(id)))
	defer span.End()

	src, err := s.sources.Get(ctx, id)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrSourceBackend.String(src.BackendPath))

	info, err := s.registry.Get(src.BackendPath)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	if !info.Periodic {
		return nil, fmt.Errorf("%w: %s", service.ErrNotPeriodic, src.Label)
	}
	if s.scheduler == nil {
		return nil, fmt.Errorf("%w: periodic checks are disabled", service.ErrNotPeriodic)
	}

	result, err := s.scheduler.RunCheck(ctx, src, sources.ProcessOptions{TestMode: true})
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// GetSourceStatus returns the periodic check status of a source
func (s *dbService) GetSourceStatus(ctx context.Context, id int64) (*status.CheckStatus, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetSourceStatus",
		trace.WithAttributes(otel.AttrSourceID.Int64(id)))
	defer span.End()

	if _, err := s.sources.Get(ctx, id); err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	if s.scheduler == nil {
		return &status.CheckStatus{}, nil
	}
	st, err := s.scheduler.GetStatus(ctx, id)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return st, nil
}

// ListBackends returns the registered backends sorted by label
func (s *dbService) ListBackends() []sources.BackendChoice {
	return s.registry.GetChoices()
}

// GetBackendSchema returns the setup form of a backend
func (s *dbService) GetBackendSchema(path string) (sources.Schema, error) {
	return s.registry.GetSetupFormSchema(path)
}

// interactiveSources lists the enabled sources bound to an interactive backend
func (s *dbService) interactiveSources(ctx context.Context) ([]*sources.Source, error) {
	all, err := s.sources.List(ctx)
	if err != nil {
		return nil, err
	}
	var result []*sources.Source
	for _, src := range all {
		if s.isInteractive(src) {
			result = append(result, src)
		}
	}
	return result, nil
}

func (s *dbService) isInteractive(src *sources.Source) bool {
	if !src.Enabled {
		return false
	}
	info, err := s.registry.Get(src.BackendPath)
	return err == nil && info.Interactive
}

// GetUploadView returns the upload view context of an interactive source
func (s *dbService) GetUploadView(ctx context.Context, sourceID *int64) (*service.UploadView, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetUploadView")
	defer span.End()

	interactive, err := s.interactiveSources(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	if len(interactive) == 0 {
		return nil, service.ErrNoInteractiveSources
	}

	selected := interactive[0]
	if sourceID != nil {
		selected = nil
		for _, src := range interactive {
			if src.ID == *sourceID {
				selected = src
				break
			}
		}
		if selected == nil {
			return nil, fmt.Errorf("%w: %d", sources.ErrSourceNotFound, *sourceID)
		}
	}
	span.SetAttributes(otel.AttrSourceID.Int64(selected.ID))

	backend, _, err := s.registry.Backend(selected, s.env)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	viewContext, err := backend.GetViewContext(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	return &service.UploadView{Source: selected, Sources: interactive, Context: viewContext}, nil
}

// Upload runs an interactive upload
func (s *dbService) Upload(
	ctx context.Context, sourceID int64, req *sources.UploadRequest,
) ([]*ingest.UploadTask, error) {
	ctx, span := s.startSpan(ctx, "dbService.Upload",
		trace.WithAttributes(otel.AttrSourceID.Int64(sourceID), otel.AttrDocumentTypeID.Int64(req.DocumentTypeID)))
	defer span.End()

	tasks, err := s.upload(ctx, sourceID, req)
	if err != nil {
		otel.RecordError(span, err)
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(tasks)))
	return tasks, err
}

func (s *dbService) upload(ctx context.Context, sourceID int64, req *sources.UploadRequest) ([]*ingest.UploadTask, error) {
	src, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !s.isInteractive(src) {
		return nil, fmt.Errorf("%w: %s", sources.ErrNotInteractive, src.Label)
	}
	if _, err := s.documents.GetDocumentType(ctx, req.DocumentTypeID); err != nil {
		return nil, err
	}

	backend, _, err := s.registry.Backend(src, s.env)
	if err != nil {
		return nil, err
	}
	uploader, ok := backend.(sources.Uploader)
	if !ok {
		return nil, fmt.Errorf("%w: %s", sources.ErrNotInteractive, src.Label)
	}

	tasks, err := uploader.Upload(ctx, req)
	if err != nil {
		logger.Errorf("Source %d: Upload failed: %v", src.ID, err)
		return tasks, err
	}
	logger.Infof("Source %d: Queued %d upload tasks", src.ID, len(tasks))
	return tasks, nil
}

// triggerIfPeriodic asks for an immediate check of an enabled periodic source
func (s *dbService) triggerIfPeriodic(src *sources.Source) {
	if s.scheduler == nil || !src.Enabled {
		return
	}
	if info, err := s.registry.Get(src.BackendPath); err == nil && info.Periodic {
		s.scheduler.Trigger(src.ID)
	}
}

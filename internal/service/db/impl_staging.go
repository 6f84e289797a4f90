package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/logger"
	"github.com/stacklok/docsource-server/internal/otel"
	"github.com/stacklok/docsource-server/internal/service"
	"github.com/stacklok/docsource-server/internal/sources"
)

// stagingFolder returns the staging folder backend of a source
func (s *dbService) stagingFolder(ctx context.Context, sourceID int64) (*sources.StagingFolderBackend, error) {
	src, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	backend, _, err := s.registry.Backend(src, s.env)
	if err != nil {
		return nil, err
	}
	// Staging routes of any other backend answer as missing
	folder, ok := backend.(*sources.StagingFolderBackend)
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrNotStagingFolder, src.Label)
	}
	return folder, nil
}

// ListStagingFiles lists the files of a staging folder source
func (s *dbService) ListStagingFiles(ctx context.Context, sourceID int64) ([]*sources.StagingFile, error) {
	ctx, span := s.startSpan(ctx, "dbService.ListStagingFiles",
		trace.WithAttributes(otel.AttrSourceID.Int64(sourceID)))
	defer span.End()

	folder, err := s.stagingFolder(ctx, sourceID)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	files, err := folder.GetFiles()
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(files)))
	return files, nil
}

// GetStagingFile returns one staging file
func (s *dbService) GetStagingFile(
	ctx context.Context, sourceID int64, encodedFilename string,
) (*sources.StagingFile, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetStagingFile",
		trace.WithAttributes(otel.AttrSourceID.Int64(sourceID), otel.AttrStagingFile.String(encodedFilename)))
	defer span.End()

	file, _, err := s.stagingFile(ctx, sourceID, encodedFilename)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return file, nil
}

func (s *dbService) stagingFile(
	ctx context.Context, sourceID int64, encodedFilename string,
) (*sources.StagingFile, *sources.StagingFolderBackend, error) {
	folder, err := s.stagingFolder(ctx, sourceID)
	if err != nil {
		return nil, nil, err
	}
	file, err := folder.GetFile(encodedFilename)
	if err != nil {
		return nil, nil, err
	}
	return file, folder, nil
}

// GetStagingFileImage renders the preview image of a staging file
func (s *dbService) GetStagingFileImage(
	ctx context.Context, sourceID int64, encodedFilename string, opts sources.ImageOptions,
) ([]byte, error) {
	ctx, span := s.startSpan(ctx, "dbService.GetStagingFileImage",
		trace.WithAttributes(otel.AttrSourceID.Int64(sourceID), otel.AttrStagingFile.String(encodedFilename)))
	defer span.End()

	file, _, err := s.stagingFile(ctx, sourceID, encodedFilename)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	image, err := file.Image(ctx, opts)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return image, nil
}

// DeleteStagingFile deletes a staging file and its cached images
func (s *dbService) DeleteStagingFile(ctx context.Context, sourceID int64, encodedFilename string) error {
	ctx, span := s.startSpan(ctx, "dbService.DeleteStagingFile",
		trace.WithAttributes(otel.AttrSourceID.Int64(sourceID), otel.AttrStagingFile.String(encodedFilename)))
	defer span.End()

	file, _, err := s.stagingFile(ctx, sourceID, encodedFilename)
	if err != nil {
		otel.RecordError(span, err)
		return err
	}
	if err := file.Delete(ctx); err != nil {
		otel.RecordError(span, err)
		return fmt.Errorf("failed to delete staging file %s: %w", file, err)
	}
	logger.Infof("Source %d: Deleted staging file %s", sourceID, file)
	return nil
}

// UploadStagingFile queues a staging file for ingestion and runs the staging cleanup
func (s *dbService) UploadStagingFile(
	ctx context.Context, sourceID int64, encodedFilename string, req *service.StagingUploadRequest,
) (*ingest.UploadTask, error) {
	ctx, span := s.startSpan(ctx, "dbService.UploadStagingFile",
		trace.WithAttributes(
			otel.AttrSourceID.Int64(sourceID),
			otel.AttrStagingFile.String(encodedFilename),
			otel.AttrDocumentTypeID.Int64(req.DocumentTypeID),
		))
	defer span.End()

	task, err := s.uploadStagingFile(ctx, sourceID, encodedFilename, req)
	if err != nil {
		otel.RecordError(span, err)
		return task, err
	}
	return task, nil
}

func (s *dbService) uploadStagingFile(
	ctx context.Context, sourceID int64, encodedFilename string, req *service.StagingUploadRequest,
) (*ingest.UploadTask, error) {
	// Check the document type before touching the file, a bad type must not consume it
	if _, err := s.documents.GetDocumentType(ctx, req.DocumentTypeID); err != nil {
		return nil, err
	}
	file, folder, err := s.stagingFile(ctx, sourceID, encodedFilename)
	if err != nil {
		return nil, err
	}

	tasks, err := folder.Upload(ctx, &sources.UploadRequest{
		DocumentTypeID: req.DocumentTypeID,
		UserID:         req.UserID,
		Expand:         req.Expand,
		StagingFile:    file.EncodedFilename,
	})
	var task *ingest.UploadTask
	if len(tasks) > 0 {
		task = tasks[0]
	}
	if err != nil {
		return task, err
	}
	logger.Infof("Source %d: Queued staging file %s", sourceID, file)
	return task, nil
}

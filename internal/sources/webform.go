package sources

import (
	"context"
	"errors"

	"github.com/stacklok/docsource-server/internal/ingest"
)

func webFormSchema() Schema {
	return compressedFields(UncompressNever)
}

// WebFormBackend accepts files uploaded through a multipart request
type WebFormBackend struct {
	base
}

// WebFormBackendInfo describes the web form backend
func WebFormBackendInfo() *BackendInfo {
	schema := webFormSchema()
	return &BackendInfo{
		Label:       "Web form",
		Schema:      schema,
		Interactive: true,
		Compressed:  true,
		New: func(src *Source, env *Env) (Backend, error) {
			return &WebFormBackend{base: newBase(src, env, schema)}, nil
		},
	}
}

// GetViewContext describes the upload form
func (b *WebFormBackend) GetViewContext(context.Context) (map[string]any, error) {
	return map[string]any{
		"form": map[string]any{
			"fields":     []string{"files"},
			"uncompress": b.data.String(fieldUncompress),
		},
	}, nil
}

// Upload queues one task per uploaded file
func (b *WebFormBackend) Upload(ctx context.Context, req *UploadRequest) ([]*ingest.UploadTask, error) {
	if len(req.Files) == 0 {
		return nil, NewValidationError("files", "No files were submitted.")
	}

	expand := ShouldExpand(b.data.String(fieldUncompress), req.Expand)
	tasks := make([]*ingest.UploadTask, 0, len(req.Files))
	var errs []error
	for _, file := range req.Files {
		task, err := QueueUpload(ctx, b.env, b.source, b, file, req.queueRequest(expand))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, errors.Join(errs...)
}

package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/stacklok/docsource-server/internal/ingest"
	"github.com/stacklok/docsource-server/internal/logger"
)

const (
	fieldFolderPath        = "folder_path"
	fieldPreviewWidth      = "preview_width"
	fieldPreviewHeight     = "preview_height"
	fieldDeleteAfterUpload = "delete_after_upload"
)

func stagingFolderSchema() Schema {
	return Schema{
		Fields: map[string]Field{
			fieldFolderPath: {
				Label:     "Folder path",
				HelpText:  "Server side filesystem path.",
				Class:     FieldString,
				Default:   "",
				Required:  true,
				MaxLength: 255,
			},
			fieldPreviewWidth: {
				Label:    "Preview width",
				HelpText: "Width value to be passed to the converter backend.",
				Class:    FieldInteger,
				Required: true,
				MinValue: minValue(0),
			},
			fieldPreviewHeight: {
				Label:    "Preview height",
				HelpText: "Height value to be passed to the converter backend.",
				Class:    FieldInteger,
				MinValue: minValue(0),
			},
			fieldDeleteAfterUpload: {
				Label:    "Delete after upload",
				HelpText: "Delete the file after is has been successfully uploaded.",
				Class:    FieldBoolean,
			},
		},
		FieldOrder: []string{fieldFolderPath, fieldPreviewWidth, fieldPreviewHeight, fieldDeleteAfterUpload},
	}.merge(compressedFields(UncompressNever))
}

// StagingFolderBackend serves files from a server side folder
type StagingFolderBackend struct {
	base
}

// StagingFolderBackendInfo describes the staging folder backend
func StagingFolderBackendInfo() *BackendInfo {
	schema := stagingFolderSchema()
	return &BackendInfo{
		Label:       "Staging folder",
		Schema:      schema,
		Interactive: true,
		Compressed:  true,
		New: func(src *Source, env *Env) (Backend, error) {
			return NewStagingFolderBackend(src, env), nil
		},
		Initialize: func(env *Env) error {
			if env == nil || env.Cache == nil {
				return errors.New("staging folder cache storage is not configured")
			}
			return nil
		},
	}
}

// NewStagingFolderBackend binds the staging folder backend to a source
func NewStagingFolderBackend(src *Source, env *Env) *StagingFolderBackend {
	return &StagingFolderBackend{base: newBase(src, env, stagingFolderSchema())}
}

// FolderPath is the watched directory
func (b *StagingFolderBackend) FolderPath() string {
	return b.data.String(fieldFolderPath)
}

func normcase(name string) string {
	if runtime.GOOS == "windows" {
		return strings.ToLower(name)
	}
	return name
}

// GetFiles lists the regular files of the folder in name order
func (b *StagingFolderBackend) GetFiles() ([]*StagingFile, error) {
	entries, err := os.ReadDir(b.FolderPath())
	if err != nil {
		logger.Errorf("Unable get list of staging files from source: %s; %v", b.source.Label, err)
		return nil, fmt.Errorf("Unable get list of staging files: %s", err) //nolint:staticcheck // user facing message
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		info, err := os.Stat(filepath.Join(b.FolderPath(), entry.Name()))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		names = append(names, normcase(entry.Name()))
	}
	sort.Strings(names)

	files := make([]*StagingFile, 0, len(names))
	for _, name := range names {
		file, err := newStagingFile(b, name)
		if err != nil {
			continue
		}
		files = append(files, file)
	}
	return files, nil
}

// GetFile returns the staging file for an encoded filename
func (b *StagingFolderBackend) GetFile(encoded string) (*StagingFile, error) {
	filename, err := DecodeFilename(encoded)
	if err != nil {
		return nil, err
	}
	file, err := newStagingFile(b, filename)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(file.FullPath())
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return nil, fmt.Errorf("%w: %s", ErrStagingFileNotFound, filename)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

// CleanUpUploadFile removes an uploaded file when the source asks for it
func (b *StagingFolderBackend) CleanUpUploadFile(ctx context.Context, file *StagingFile) error {
	if !b.data.Bool(fieldDeleteAfterUpload) {
		return nil
	}
	if err := file.Delete(ctx); err != nil {
		logger.Errorf("Error deleting staging file: %s; %v", file, err)
		return fmt.Errorf("Error deleting staging file; %s", err) //nolint:staticcheck // user facing message
	}
	return nil
}

// GetViewContext lists the staging files
func (b *StagingFolderBackend) GetViewContext(context.Context) (map[string]any, error) {
	files, err := b.GetFiles()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"object_list":      files,
		"no_results_title": "No staging files available",
		"no_results_text": "This could mean that the staging folder is empty. It could also mean that " +
			"the operating system user account being used doesn't have the necessary file system " +
			"permissions for the folder.",
	}, nil
}

// Upload queues the selected staging file
func (b *StagingFolderBackend) Upload(ctx context.Context, req *UploadRequest) ([]*ingest.UploadTask, error) {
	if req.StagingFile == "" {
		return nil, NewValidationError("staging_file_id", "This field is required.")
	}
	file, err := b.GetFile(req.StagingFile)
	if err != nil {
		return nil, err
	}

	task, err := b.UploadFile(ctx, file, req.queueRequest(ShouldExpand(b.data.String(fieldUncompress), req.Expand)))
	if err != nil {
		return nil, err
	}
	return []*ingest.UploadTask{task}, nil
}

// UploadFile copies a staging file to shared storage, queues it and runs the cleanup
func (b *StagingFolderBackend) UploadFile(ctx context.Context, file *StagingFile, req QueueRequest) (*ingest.UploadTask, error) {
	task, err := QueueUpload(ctx, b.env, b.source, b, IncomingFile{Filename: file.Filename, Open: file.Open}, req)
	if err != nil {
		return nil, err
	}
	if err := b.CleanUpUploadFile(ctx, file); err != nil {
		return task, err
	}
	return task, nil
}

package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"github.com/stacklok/docsource-server/internal/logger"
)

const (
	fieldIncludeSubdirectories = "include_subdirectories"

	watchDebounce = time.Second
)

// ErrSourceBusy is returned when another process is checking the same source
var ErrSourceBusy = errors.New("source is being processed by another process")

func watchFolderSchema() Schema {
	return Schema{
		Fields: map[string]Field{
			fieldFolderPath: {
				Label:     "Folder path",
				HelpText:  "Server side filesystem path to scan for files.",
				Class:     FieldString,
				Required:  true,
				MaxLength: 255,
			},
			fieldIncludeSubdirectories: {
				Label:    "Include subdirectories?",
				HelpText: "If checked, not only will the folder path be scanned for files but also its subdirectories.",
				Class:    FieldBoolean,
			},
		},
		FieldOrder: []string{fieldFolderPath, fieldIncludeSubdirectories},
	}.merge(periodicFields()).merge(compressedFields(UncompressNever))
}

// Watcher is implemented by backends that can detect new documents without polling
type Watcher interface {
	Watch(ctx context.Context, trigger func()) error
}

// WatchFolderBackend ingests and removes files dropped into a folder
type WatchFolderBackend struct {
	periodic
}

// WatchFolderBackendInfo describes the watch folder backend
func WatchFolderBackendInfo() *BackendInfo {
	schema := watchFolderSchema()
	return &BackendInfo{
		Label:      "Watch folder",
		Schema:     schema,
		Periodic:   true,
		Compressed: true,
		New: func(src *Source, env *Env) (Backend, error) {
			return &WatchFolderBackend{periodic{base: newBase(src, env, schema)}}, nil
		},
		Validate: func(ctx context.Context, env *Env, data Data) error {
			_, err := validateDocumentType(ctx, env, data)
			return err
		},
	}
}

// FolderPath is the watched directory
func (b *WatchFolderBackend) FolderPath() string {
	return b.data.String(fieldFolderPath)
}

func (b *WatchFolderBackend) lockPath() string {
	dir := b.env.LockDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("watchfolder-%d.lock", b.source.ID))
}

// ProcessDocuments queues every file of the folder and removes it once queued
func (b *WatchFolderBackend) ProcessDocuments(ctx context.Context, opts ProcessOptions) (*ProcessResult, error) {
	lock := flock.New(b.lockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock watch folder: %w", err)
	}
	if !locked {
		return nil, ErrSourceBusy
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warnf("Failed to unlock %s: %v", b.lockPath(), err)
		}
	}()

	paths, err := b.scan()
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{}
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rel, err := filepath.Rel(b.FolderPath(), path)
		if err != nil {
			rel = filepath.Base(path)
		}
		file := IncomingFile{
			Filename: filepath.Base(path),
			Open:     func() (io.ReadCloser, error) { return os.Open(path) },
		}
		if err := b.queue(ctx, b, file, b.queueRequest(filepath.ToSlash(rel))); err != nil {
			errs = append(errs, err)
			continue
		}
		result.DocumentsQueued++

		if opts.TestMode {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
		}
	}
	return result, errors.Join(errs...)
}

func (b *WatchFolderBackend) scan() ([]string, error) {
	root := b.FolderPath()
	recursive := b.data.Bool(fieldIncludeSubdirectories)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan watch folder %s: %w", root, err)
	}
	return paths, nil
}

// Watch calls trigger shortly after files are created in the folder
func (b *WatchFolderBackend) Watch(ctx context.Context, trigger func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dirs := []string{b.FolderPath()}
	if b.data.Bool(fieldIncludeSubdirectories) {
		dirs = dirs[:0]
		_ = filepath.WalkDir(b.FolderPath(), func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				dirs = append(dirs, path)
			}
			return nil
		})
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if b.data.Bool(fieldIncludeSubdirectories) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if debounce == nil {
				debounce = time.After(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("Watch folder %s: %v", b.FolderPath(), err)
		case <-debounce:
			debounce = nil
			trigger()
		}
	}
}

// Package storage provides the named blob storages used by sources and the
// ingestion pipeline, on top of gocloud.dev/blob.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"github.com/stacklok/docsource-server/internal/config"
)

const (
	// NameSourceCache is the storage holding staging file preview images
	NameSourceCache = "sources__staging_folder_cache"
	// NameSharedUploads is the storage holding files waiting to be ingested
	NameSharedUploads = "storage__shared_uploads"
	// NameDocumentFiles is the storage holding document files
	NameDocumentFiles = "documents__document_files"
)

// ErrNotFound is returned when a key does not exist in a storage
var ErrNotFound = errors.New("storage object not found")

var labels = map[string]string{
	NameSourceCache:   "Staging folder files",
	NameSharedUploads: "Shared uploaded files",
	NameDocumentFiles: "Document files",
}

// Label returns the human readable label of a defined storage
func Label(name string) string {
	if label, ok := labels[name]; ok {
		return label
	}
	return name
}

// Storage is a named blob bucket
type Storage struct {
	name   string
	bucket *blob.Bucket
}

// New wraps an already opened bucket
func New(name string, bucket *blob.Bucket) *Storage {
	return &Storage{name: name, bucket: bucket}
}

// Open opens the bucket described by the backend configuration
func Open(ctx context.Context, name string, cfg config.StorageBackendConfig) (*Storage, error) {
	var (
		bucket *blob.Bucket
		err    error
	)

	switch cfg.Backend {
	case config.StorageBackendFile:
		bucket, err = fileblob.OpenBucket(cfg.Arguments["location"], &fileblob.Options{CreateDir: true})
	case config.StorageBackendMemory:
		bucket = memblob.OpenBucket(nil)
	case config.StorageBackendURL:
		bucket, err = blob.OpenBucket(ctx, cfg.Arguments["url"])
	default:
		return nil, fmt.Errorf("%s: unsupported storage backend: %s", name, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open storage %s: %w", name, err)
	}

	return New(name, bucket), nil
}

// Name returns the defined storage name
func (s *Storage) Name() string {
	return s.name
}

// Exists reports whether the key is present
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	return s.bucket.Exists(ctx, key)
}

// Open returns a reader for the key
func (s *Storage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

// ReadAll returns the full content of the key
func (s *Storage) ReadAll(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, mapError(err)
	}
	return data, nil
}

// Save writes the content of r under key, returning the number of bytes written
func (s *Storage) Save(ctx context.Context, key string, r io.Reader, opts *SaveOptions) (int64, error) {
	var writerOpts *blob.WriterOptions
	if opts != nil {
		writerOpts = &blob.WriterOptions{ContentType: opts.ContentType, Metadata: opts.Metadata}
	}

	w, err := s.bucket.NewWriter(ctx, key, writerOpts)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s/%s for writing: %w", s.name, key, err)
	}

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.Close()
		return n, fmt.Errorf("failed to write %s/%s: %w", s.name, key, err)
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("failed to write %s/%s: %w", s.name, key, err)
	}
	return n, nil
}

// Metadata returns the user metadata stored with the key
func (s *Storage) Metadata(ctx context.Context, key string) (map[string]string, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		return nil, mapError(err)
	}
	return attrs.Metadata, nil
}

// Delete removes the key, a missing key is not an error
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}
		return fmt.Errorf("failed to delete %s/%s: %w", s.name, key, err)
	}
	return nil
}

// List returns the keys with the given prefix in lexical order
func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})

	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", s.name, err)
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close releases the bucket
func (s *Storage) Close() error {
	return s.bucket.Close()
}

// SaveOptions carries optional attributes stored with an object
type SaveOptions struct {
	ContentType string
	Metadata    map[string]string
}

func mapError(err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

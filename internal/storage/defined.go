package storage

import (
	"context"
	"errors"

	"github.com/stacklok/docsource-server/internal/config"
)

// Defined holds every defined storage opened from configuration
type Defined struct {
	SourceCache   *Storage
	SharedUploads *Storage
	DocumentFiles *Storage
}

// OpenDefined opens the three defined storages
func OpenDefined(ctx context.Context, cfg *config.Config) (*Defined, error) {
	cache, err := Open(ctx, NameSourceCache, cfg.GetSourceCacheStorage())
	if err != nil {
		return nil, err
	}

	shared, err := Open(ctx, NameSharedUploads, cfg.GetSharedUploadsStorage())
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	files, err := Open(ctx, NameDocumentFiles, cfg.GetDocumentsStorage())
	if err != nil {
		_ = cache.Close()
		_ = shared.Close()
		return nil, err
	}

	return &Defined{SourceCache: cache, SharedUploads: shared, DocumentFiles: files}, nil
}

// ByName returns a defined storage by its name
func (d *Defined) ByName(name string) (*Storage, bool) {
	switch name {
	case NameSourceCache:
		return d.SourceCache, true
	case NameSharedUploads:
		return d.SharedUploads, true
	case NameDocumentFiles:
		return d.DocumentFiles, true
	}
	return nil, false
}

// Close closes every storage
func (d *Defined) Close() error {
	var errs []error
	for _, s := range []*Storage{d.SourceCache, d.SharedUploads, d.DocumentFiles} {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

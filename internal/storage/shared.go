package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	metadataFilename  = "filename"
	metadataCreatedAt = "created_at"
)

// SharedUploadedFile is a file waiting in shared storage for the ingestion pipeline
type SharedUploadedFile struct {
	ID        uuid.UUID
	Filename  string
	Size      int64
	CreatedAt time.Time
}

// Key returns the storage key of the file
func (f *SharedUploadedFile) Key() string {
	return f.ID.String()
}

// SharedUploads stores files handed from sources to upload workers
type SharedUploads struct {
	storage *Storage
	now     func() time.Time
}

// NewSharedUploads creates the shared upload store on top of a storage
func NewSharedUploads(s *Storage) *SharedUploads {
	return &SharedUploads{storage: s, now: time.Now}
}

// Create copies r into a new shared uploaded file
func (s *SharedUploads) Create(ctx context.Context, filename string, r io.Reader) (*SharedUploadedFile, error) {
	file := &SharedUploadedFile{
		ID:        uuid.New(),
		Filename:  filename,
		CreatedAt: s.now().UTC(),
	}

	// mimetype needs the file header, read it before streaming the rest
	header := make([]byte, 3072)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	header = header[:n]

	size, err := s.storage.Save(ctx, file.Key(), io.MultiReader(bytes.NewReader(header), r), &SaveOptions{
		ContentType: mimetype.Detect(header).String(),
		Metadata: map[string]string{
			metadataFilename:  filename,
			metadataCreatedAt: file.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return nil, err
	}
	file.Size = size

	return file, nil
}

// Get returns the descriptor of a shared uploaded file
func (s *SharedUploads) Get(ctx context.Context, id uuid.UUID) (*SharedUploadedFile, error) {
	metadata, err := s.storage.Metadata(ctx, id.String())
	if err != nil {
		return nil, err
	}

	file := &SharedUploadedFile{ID: id, Filename: metadata[metadataFilename]}
	if createdAt, err := time.Parse(time.RFC3339Nano, metadata[metadataCreatedAt]); err == nil {
		file.CreatedAt = createdAt
	}
	return file, nil
}

// Open returns a reader over the shared uploaded file content
func (s *SharedUploads) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	return s.storage.Open(ctx, id.String())
}

// Delete removes the shared uploaded file
func (s *SharedUploads) Delete(ctx context.Context, id uuid.UUID) error {
	return s.storage.Delete(ctx, id.String())
}

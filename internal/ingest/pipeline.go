package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/stacklok/docsource-server/internal/documents"
	"github.com/stacklok/docsource-server/internal/storage"
	"github.com/stacklok/docsource-server/internal/telemetry"
)

const mimeSniffLen = 3072

// PostUploadProcessor runs after each document is created
type PostUploadProcessor interface {
	PostUploadProcess(ctx context.Context, doc *documents.Document, query url.Values) error
}

// Pipeline creates documents from upload tasks
type Pipeline struct {
	shared   *storage.SharedUploads
	files    *storage.Storage
	store    documents.Store
	wizard   PostUploadProcessor
	metrics  *telemetry.IngestMetrics
	language string
	tempDir  string
	now      func() time.Time
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithWizard sets the post-upload wizard steps
func WithWizard(w PostUploadProcessor) PipelineOption {
	return func(p *Pipeline) {
		p.wizard = w
	}
}

// WithIngestMetrics records the number of documents created
func WithIngestMetrics(m *telemetry.IngestMetrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithDefaultLanguage sets the language of tasks that do not carry one
func WithDefaultLanguage(language string) PipelineOption {
	return func(p *Pipeline) {
		if language != "" {
			p.language = language
		}
	}
}

// WithTempDir sets where uploads are spooled while they are processed
func WithTempDir(dir string) PipelineOption {
	return func(p *Pipeline) {
		p.tempDir = dir
	}
}

// NewPipeline creates the document creation pipeline
func NewPipeline(
	shared *storage.SharedUploads, files *storage.Storage, store documents.Store, opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		shared:   shared,
		files:    files,
		store:    store,
		language: documents.DefaultLanguage,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process implements Processor. The shared uploaded file is deleted once the
// task has been handled, whether documents were created or not.
func (p *Pipeline) Process(ctx context.Context, task *UploadTask) error {
	file, err := p.shared.Get(ctx, task.SharedUploadedFileID)
	if err != nil {
		return fmt.Errorf("failed to find shared uploaded file %s: %w", task.SharedUploadedFileID, err)
	}
	defer func() {
		if err := p.shared.Delete(context.WithoutCancel(ctx), file.ID); err != nil {
			slog.Warn("Failed to delete shared uploaded file", "id", file.ID, "error", err)
		}
	}()

	spool, size, err := p.spool(ctx, file)
	if err != nil {
		return err
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	created, err := p.createDocuments(ctx, task, file, spool, size)
	p.metrics.RecordDocumentsIngested(ctx, task.SourceID, created)
	if err != nil {
		return err
	}

	slog.Info("Documents created from upload",
		"source_id", task.SourceID,
		"filename", file.Filename,
		"documents", created)
	return nil
}

// spool copies the shared file to a local temporary file, archives need random access
func (p *Pipeline) spool(ctx context.Context, file *storage.SharedUploadedFile) (*os.File, int64, error) {
	r, err := p.shared.Open(ctx, file.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open shared uploaded file %s: %w", file.ID, err)
	}
	defer r.Close()

	spool, err := os.CreateTemp(p.tempDir, "docsource-upload-*")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create spool file: %w", err)
	}

	size, err := io.Copy(spool, r)
	if err != nil {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
		return nil, 0, fmt.Errorf("failed to spool shared uploaded file %s: %w", file.ID, err)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
		return nil, 0, err
	}
	return spool, size, nil
}

func (p *Pipeline) createDocuments(
	ctx context.Context, task *UploadTask, file *storage.SharedUploadedFile, spool *os.File, size int64,
) (int, error) {
	if task.Expand && isZip(spool) {
		return p.expandArchive(ctx, task, spool, size)
	}

	label := task.Label
	if label == "" {
		label = file.Filename
	}
	if _, err := p.createDocument(ctx, task, label, spool); err != nil {
		return 0, err
	}
	return 1, nil
}

func (p *Pipeline) expandArchive(ctx context.Context, task *UploadTask, spool *os.File, size int64) (int, error) {
	archive, err := zip.NewReader(spool, size)
	if err != nil {
		return 0, fmt.Errorf("failed to read archive: %w", err)
	}

	created := 0
	for _, member := range archive.File {
		if member.FileInfo().IsDir() {
			continue
		}

		if err := p.createFromArchiveMember(ctx, task, member); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (p *Pipeline) createFromArchiveMember(ctx context.Context, task *UploadTask, member *zip.File) error {
	r, err := member.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive member %s: %w", member.Name, err)
	}
	defer r.Close()

	_, err = p.createDocument(ctx, task, path.Base(member.Name), r)
	return err
}

func (p *Pipeline) createDocument(
	ctx context.Context, task *UploadTask, label string, r io.Reader,
) (*documents.Document, error) {
	header := make([]byte, mimeSniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", label, err)
	}
	header = header[:n]
	mime := mimetype.Detect(header)

	doc := &documents.Document{
		UUID:           uuid.New(),
		DocumentTypeID: task.DocumentTypeID,
		Label:          label,
		Description:    task.Description,
		Language:       task.Language,
		UserID:         task.UserID,
		Mimetype:       mime.String(),
		Metadata:       append([]documents.MetadataValue(nil), task.Metadata...),
		CreatedAt:      p.now().UTC(),
	}
	if doc.Language == "" {
		doc.Language = p.language
	}
	if task.SourceID != 0 {
		sourceID := task.SourceID
		doc.SourceID = &sourceID
	}
	doc.FileKey = doc.UUID.String()

	hasher := sha256.New()
	body := io.TeeReader(io.MultiReader(bytes.NewReader(header), r), hasher)
	doc.Size, err = p.files.Save(ctx, doc.FileKey, body, &storage.SaveOptions{ContentType: doc.Mimetype})
	if err != nil {
		return nil, err
	}
	doc.Checksum = hex.EncodeToString(hasher.Sum(nil))

	created, err := p.store.CreateDocument(ctx, doc)
	if err != nil {
		_ = p.files.Delete(context.WithoutCancel(ctx), doc.FileKey)
		return nil, fmt.Errorf("failed to create document %s: %w", label, err)
	}

	if p.wizard != nil {
		if err := p.wizard.PostUploadProcess(ctx, created, task.Query()); err != nil {
			return created, err
		}
	}
	return created, nil
}

func isZip(f *os.File) bool {
	defer func() { _, _ = f.Seek(0, io.SeekStart) }()

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		return false
	}
	return mime.Is("application/zip")
}

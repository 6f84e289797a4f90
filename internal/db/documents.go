package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/docsource-server/internal/documents"
)

const documentColumns = "id, uuid, document_type_id, label, description, language, source_id, user_id, " +
	"file_key, mimetype, checksum, size, metadata, created_at"

// DocumentStore implements documents.Store on the database
type DocumentStore struct {
	conn *Connection
	now  func() time.Time
}

var _ documents.Store = (*DocumentStore)(nil)

// NewDocumentStore creates a document store on top of a connection
func NewDocumentStore(conn *Connection) *DocumentStore {
	return &DocumentStore{conn: conn, now: time.Now}
}

// ListDocumentTypes returns every document type ordered by label
func (s *DocumentStore) ListDocumentTypes(ctx context.Context) ([]*documents.DocumentType, error) {
	rows, err := s.conn.DB.QueryContext(ctx, "SELECT id, label FROM document_types ORDER BY label, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list document types: %w", err)
	}
	defer rows.Close()

	result := []*documents.DocumentType{}
	for rows.Next() {
		docType := &documents.DocumentType{MetadataTypeIDs: []int64{}}
		if err := rows.Scan(&docType.ID, &docType.Label); err != nil {
			return nil, fmt.Errorf("failed to scan document type: %w", err)
		}
		result = append(result, docType)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	links, err := s.metadataLinks(ctx, s.conn.DB, nil)
	if err != nil {
		return nil, err
	}
	for _, docType := range result {
		if ids, ok := links[docType.ID]; ok {
			docType.MetadataTypeIDs = ids
		}
	}
	return result, nil
}

// metadataLinks returns the metadata type ids of document types, all of them when id is nil
func (s *DocumentStore) metadataLinks(ctx context.Context, q queryer, id *int64) (map[int64][]int64, error) {
	query := "SELECT document_type_id, metadata_type_id FROM document_type_metadata_types"
	var args []any
	if id != nil {
		query += " WHERE document_type_id = ?"
		args = append(args, *id)
	}
	rows, err := q.QueryContext(ctx, s.conn.rebind(query+" ORDER BY document_type_id, metadata_type_id"), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list document type metadata types: %w", err)
	}
	defer rows.Close()

	links := make(map[int64][]int64)
	for rows.Next() {
		var docTypeID, metadataTypeID int64
		if err := rows.Scan(&docTypeID, &metadataTypeID); err != nil {
			return nil, fmt.Errorf("failed to scan document type metadata type: %w", err)
		}
		links[docTypeID] = append(links[docTypeID], metadataTypeID)
	}
	return links, rows.Err()
}

// GetDocumentType returns a document type with its metadata type ids
func (s *DocumentStore) GetDocumentType(ctx context.Context, id int64) (*documents.DocumentType, error) {
	docType := &documents.DocumentType{MetadataTypeIDs: []int64{}}
	err := s.conn.DB.QueryRowContext(ctx, s.conn.rebind("SELECT id, label FROM document_types WHERE id = ?"), id).
		Scan(&docType.ID, &docType.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", documents.ErrDocumentTypeNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document type %d: %w", id, err)
	}

	links, err := s.metadataLinks(ctx, s.conn.DB, &id)
	if err != nil {
		return nil, err
	}
	if ids, ok := links[id]; ok {
		docType.MetadataTypeIDs = ids
	}
	return docType, nil
}

// CreateDocumentType inserts a document type and its metadata type links
func (s *DocumentStore) CreateDocumentType(
	ctx context.Context, docType *documents.DocumentType,
) (*documents.DocumentType, error) {
	created := &documents.DocumentType{Label: docType.Label, MetadataTypeIDs: []int64{}}
	err := s.conn.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, s.conn.rebind("INSERT INTO document_types (label) VALUES (?) RETURNING id"),
			docType.Label).Scan(&created.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("document type %s %w", docType.Label, documents.ErrAlreadyExists)
			}
			return fmt.Errorf("failed to create document type: %w", err)
		}

		for _, metadataTypeID := range docType.MetadataTypeIDs {
			var exists int
			err := tx.QueryRowContext(ctx, s.conn.rebind("SELECT 1 FROM metadata_types WHERE id = ?"), metadataTypeID).
				Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %d", documents.ErrMetadataTypeNotFound, metadataTypeID)
			}
			if err != nil {
				return fmt.Errorf("failed to look up metadata type %d: %w", metadataTypeID, err)
			}
			if _, err := tx.ExecContext(ctx, s.conn.rebind(
				"INSERT INTO document_type_metadata_types (document_type_id, metadata_type_id) VALUES (?, ?)"),
				created.ID, metadataTypeID); err != nil {
				if isUniqueViolation(err) {
					continue
				}
				return fmt.Errorf("failed to link metadata type %d: %w", metadataTypeID, err)
			}
			created.MetadataTypeIDs = append(created.MetadataTypeIDs, metadataTypeID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListMetadataTypes returns every metadata type ordered by name
func (s *DocumentStore) ListMetadataTypes(ctx context.Context) ([]*documents.MetadataType, error) {
	rows, err := s.conn.DB.QueryContext(ctx, "SELECT id, name, label FROM metadata_types ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata types: %w", err)
	}
	defer rows.Close()

	result := []*documents.MetadataType{}
	for rows.Next() {
		mt := &documents.MetadataType{}
		if err := rows.Scan(&mt.ID, &mt.Name, &mt.Label); err != nil {
			return nil, fmt.Errorf("failed to scan metadata type: %w", err)
		}
		result = append(result, mt)
	}
	return result, rows.Err()
}

func (s *DocumentStore) getMetadataType(ctx context.Context, column string, key any) (*documents.MetadataType, error) {
	mt := &documents.MetadataType{}
	err := s.conn.DB.QueryRowContext(ctx,
		s.conn.rebind("SELECT id, name, label FROM metadata_types WHERE "+column+" = ?"), key).
		Scan(&mt.ID, &mt.Name, &mt.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", documents.ErrMetadataTypeNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata type %v: %w", key, err)
	}
	return mt, nil
}

// GetMetadataType returns a metadata type by id
func (s *DocumentStore) GetMetadataType(ctx context.Context, id int64) (*documents.MetadataType, error) {
	return s.getMetadataType(ctx, "id", id)
}

// GetMetadataTypeByName returns a metadata type by its unique name
func (s *DocumentStore) GetMetadataTypeByName(ctx context.Context, name string) (*documents.MetadataType, error) {
	return s.getMetadataType(ctx, "name", name)
}

// CreateMetadataType inserts a metadata type, labelled by its name when no label is given
func (s *DocumentStore) CreateMetadataType(
	ctx context.Context, metadataType *documents.MetadataType,
) (*documents.MetadataType, error) {
	created := &documents.MetadataType{Name: metadataType.Name, Label: metadataType.Label}
	if created.Label == "" {
		created.Label = created.Name
	}
	err := s.conn.DB.QueryRowContext(ctx,
		s.conn.rebind("INSERT INTO metadata_types (name, label) VALUES (?, ?) RETURNING id"),
		created.Name, created.Label).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("metadata type %s %w", metadataType.Name, documents.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create metadata type: %w", err)
	}
	return created, nil
}

func scanDocument(row interface{ Scan(...any) error }) (*documents.Document, error) {
	var (
		doc       documents.Document
		sourceID  sql.NullInt64
		metadata  string
		createdAt dbTime
	)
	err := row.Scan(&doc.ID, &doc.UUID, &doc.DocumentTypeID, &doc.Label, &doc.Description, &doc.Language,
		&sourceID, &doc.UserID, &doc.FileKey, &doc.Mimetype, &doc.Checksum, &doc.Size, &metadata, &createdAt)
	if err != nil {
		return nil, err
	}
	if sourceID.Valid {
		id := sourceID.Int64
		doc.SourceID = &id
	}
	doc.Metadata = []documents.MetadataValue{}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("invalid metadata of document %d: %w", doc.ID, err)
		}
	}
	doc.CreatedAt = createdAt.Time
	return &doc, nil
}

func metadataArg(values []documents.MetadataValue) (string, error) {
	if values == nil {
		values = []documents.MetadataValue{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(data), nil
}

// ListDocuments returns documents newest first
func (s *DocumentStore) ListDocuments(ctx context.Context, opts documents.ListOptions) ([]*documents.Document, error) {
	var (
		where []string
		args  []any
	)
	if opts.DocumentTypeID != 0 {
		where = append(where, "document_type_id = ?")
		args = append(args, opts.DocumentTypeID)
	}
	if opts.SourceID != 0 {
		where = append(where, "source_id = ?")
		args = append(args, opts.SourceID)
	}

	query := "SELECT " + documentColumns + " FROM documents"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.conn.DB.QueryContext(ctx, s.conn.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	result := []*documents.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

// GetDocument returns a document by id
func (s *DocumentStore) GetDocument(ctx context.Context, id int64) (*documents.Document, error) {
	row := s.conn.DB.QueryRowContext(ctx, s.conn.rebind("SELECT "+documentColumns+" FROM documents WHERE id = ?"), id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", documents.ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %d: %w", id, err)
	}
	return doc, nil
}

// CreateDocument inserts a document, assigning a uuid when it has none
func (s *DocumentStore) CreateDocument(ctx context.Context, doc *documents.Document) (*documents.Document, error) {
	docUUID := doc.UUID
	if docUUID == uuid.Nil {
		docUUID = uuid.New()
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	metadata, err := metadataArg(doc.Metadata)
	if err != nil {
		return nil, err
	}
	var sourceID any
	if doc.SourceID != nil {
		sourceID = *doc.SourceID
	}

	row := s.conn.DB.QueryRowContext(ctx, s.conn.rebind(
		"INSERT INTO documents (uuid, document_type_id, label, description, language, source_id, user_id, "+
			"file_key, mimetype, checksum, size, metadata, created_at) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING "+documentColumns),
		docUUID, doc.DocumentTypeID, doc.Label, doc.Description, doc.Language, sourceID, doc.UserID,
		doc.FileKey, doc.Mimetype, doc.Checksum, doc.Size, metadata, s.conn.timeArg(createdAt),
	)
	created, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return created, nil
}

// UpdateDocumentMetadata replaces the metadata values of a document
func (s *DocumentStore) UpdateDocumentMetadata(ctx context.Context, id int64, metadata []documents.MetadataValue) error {
	encoded, err := metadataArg(metadata)
	if err != nil {
		return err
	}
	res, err := s.conn.DB.ExecContext(ctx, s.conn.rebind("UPDATE documents SET metadata = ? WHERE id = ?"), encoded, id)
	if err != nil {
		return fmt.Errorf("failed to update metadata of document %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update metadata of document %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", documents.ErrDocumentNotFound, id)
	}
	return nil
}

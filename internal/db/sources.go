package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stacklok/docsource-server/internal/sources"
)

const sourceColumns = "id, label, enabled, backend_path, backend_data, created_at, updated_at"

// SourceStore persists source records
type SourceStore struct {
	conn *Connection
	now  func() time.Time
}

// NewSourceStore creates a source store on top of a connection
func NewSourceStore(conn *Connection) *SourceStore {
	return &SourceStore{conn: conn, now: time.Now}
}

func scanSource(row interface{ Scan(...any) error }) (*sources.Source, error) {
	var (
		src                  sources.Source
		data                 string
		createdAt, updatedAt dbTime
	)
	if err := row.Scan(&src.ID, &src.Label, &src.Enabled, &src.BackendPath, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	src.BackendData = json.RawMessage(data)
	src.CreatedAt = createdAt.Time
	src.UpdatedAt = updatedAt.Time
	return &src, nil
}

func backendDataArg(data json.RawMessage) string {
	if len(data) == 0 {
		return "{}"
	}
	return string(data)
}

// List returns every source ordered by label
func (s *SourceStore) List(ctx context.Context) ([]*sources.Source, error) {
	rows, err := s.conn.DB.QueryContext(ctx, "SELECT "+sourceColumns+" FROM sources ORDER BY label, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	result := []*sources.Source{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		result = append(result, src)
	}
	return result, rows.Err()
}

// Get returns a source by id
func (s *SourceStore) Get(ctx context.Context, id int64) (*sources.Source, error) {
	row := s.conn.DB.QueryRowContext(ctx, s.conn.rebind("SELECT "+sourceColumns+" FROM sources WHERE id = ?"), id)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", sources.ErrSourceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source %d: %w", id, err)
	}
	return src, nil
}

// GetByLabel returns a source by its unique label
func (s *SourceStore) GetByLabel(ctx context.Context, label string) (*sources.Source, error) {
	row := s.conn.DB.QueryRowContext(ctx, s.conn.rebind("SELECT "+sourceColumns+" FROM sources WHERE label = ?"), label)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", sources.ErrSourceNotFound, label)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source %s: %w", label, err)
	}
	return src, nil
}

// Create inserts a new source and returns it with its id and timestamps
func (s *SourceStore) Create(ctx context.Context, src *sources.Source) (*sources.Source, error) {
	now := s.now()
	row := s.conn.DB.QueryRowContext(ctx, s.conn.rebind(
		"INSERT INTO sources (label, enabled, backend_path, backend_data, created_at, updated_at) "+
			"VALUES (?, ?, ?, ?, ?, ?) RETURNING "+sourceColumns),
		src.Label, src.Enabled, src.BackendPath, backendDataArg(src.BackendData), s.conn.timeArg(now), s.conn.timeArg(now),
	)
	created, err := scanSource(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", sources.ErrDuplicateLabel, src.Label)
		}
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	return created, nil
}

// Update replaces the editable columns of a source
func (s *SourceStore) Update(ctx context.Context, src *sources.Source) (*sources.Source, error) {
	row := s.conn.DB.QueryRowContext(ctx, s.conn.rebind(
		"UPDATE sources SET label = ?, enabled = ?, backend_path = ?, backend_data = ?, updated_at = ? "+
			"WHERE id = ? RETURNING "+sourceColumns),
		src.Label, src.Enabled, src.BackendPath, backendDataArg(src.BackendData), s.conn.timeArg(s.now()), src.ID,
	)
	updated, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", sources.ErrSourceNotFound, src.ID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", sources.ErrDuplicateLabel, src.Label)
		}
		return nil, fmt.Errorf("failed to update source %d: %w", src.ID, err)
	}
	return updated, nil
}

// Delete removes a source; its check status goes with it
func (s *SourceStore) Delete(ctx context.Context, id int64) error {
	res, err := s.conn.DB.ExecContext(ctx, s.conn.rebind("DELETE FROM sources WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", sources.ErrSourceNotFound, id)
	}
	return nil
}

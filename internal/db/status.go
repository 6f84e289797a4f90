package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stacklok/docsource-server/internal/status"
)

const statusColumns = "source_id, phase, message, last_attempt, attempt_count, last_success, " +
	"documents_ingested, interval_seconds"

// StatusStore implements status.StatusPersistence on the database
type StatusStore struct {
	conn *Connection
}

var _ status.StatusPersistence = (*StatusStore)(nil)

// NewStatusStore creates a check status store on top of a connection
func NewStatusStore(conn *Connection) *StatusStore {
	return &StatusStore{conn: conn}
}

func scanStatus(row interface{ Scan(...any) error }) (int64, *status.CheckStatus, error) {
	var (
		sourceID                 int64
		st                       status.CheckStatus
		phase                    string
		lastAttempt, lastSuccess dbTime
	)
	err := row.Scan(&sourceID, &phase, &st.Message, &lastAttempt, &st.AttemptCount, &lastSuccess,
		&st.DocumentsIngested, &st.IntervalSeconds)
	if err != nil {
		return 0, nil, err
	}
	st.Phase = status.CheckPhase(phase)
	st.LastAttempt = lastAttempt.Ptr()
	st.LastSuccess = lastSuccess.Ptr()
	return sourceID, &st, nil
}

// SaveStatus upserts the check status of a source
func (s *StatusStore) SaveStatus(ctx context.Context, sourceID int64, st *status.CheckStatus) error {
	_, err := s.conn.DB.ExecContext(ctx, s.conn.rebind(
		"INSERT INTO source_check_status ("+statusColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT (source_id) DO UPDATE SET phase = excluded.phase, message = excluded.message, "+
			"last_attempt = excluded.last_attempt, attempt_count = excluded.attempt_count, "+
			"last_success = excluded.last_success, documents_ingested = excluded.documents_ingested, "+
			"interval_seconds = excluded.interval_seconds"),
		sourceID, string(st.Phase), st.Message, s.conn.nullTimeArg(st.LastAttempt), st.AttemptCount,
		s.conn.nullTimeArg(st.LastSuccess), st.DocumentsIngested, st.IntervalSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to save check status of source %d: %w", sourceID, err)
	}
	return nil
}

// LoadStatus returns the check status of a source, empty when none was saved
func (s *StatusStore) LoadStatus(ctx context.Context, sourceID int64) (*status.CheckStatus, error) {
	row := s.conn.DB.QueryRowContext(ctx,
		s.conn.rebind("SELECT "+statusColumns+" FROM source_check_status WHERE source_id = ?"), sourceID)
	_, st, err := scanStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return &status.CheckStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load check status of source %d: %w", sourceID, err)
	}
	return st, nil
}

// LoadAllStatus returns the check status of every source that has one
func (s *StatusStore) LoadAllStatus(ctx context.Context) (map[int64]*status.CheckStatus, error) {
	rows, err := s.conn.DB.QueryContext(ctx, "SELECT "+statusColumns+" FROM source_check_status")
	if err != nil {
		return nil, fmt.Errorf("failed to list check status: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]*status.CheckStatus)
	for rows.Next() {
		sourceID, st, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check status: %w", err)
		}
		result[sourceID] = st
	}
	return result, rows.Err()
}

// DeleteStatus removes the check status of a source
func (s *StatusStore) DeleteStatus(ctx context.Context, sourceID int64) error {
	_, err := s.conn.DB.ExecContext(ctx,
		s.conn.rebind("DELETE FROM source_check_status WHERE source_id = ?"), sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete check status of source %d: %w", sourceID, err)
	}
	return nil
}

// Package status provides periodic check status tracking and persistence for sources.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// StatusPersistence defines the interface for check status persistence
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// SaveStatus saves the check status of a source
	SaveStatus(ctx context.Context, sourceID int64, status *CheckStatus) error

	// LoadStatus loads the check status of a source
	// Returns an empty CheckStatus if none was saved yet (first run)
	LoadStatus(ctx context.Context, sourceID int64) (*CheckStatus, error)

	// LoadAllStatus loads the check status of every source
	LoadAllStatus(ctx context.Context) (map[int64]*CheckStatus, error)

	// DeleteStatus removes the check status of a source
	DeleteStatus(ctx context.Context, sourceID int64) error
}

// fileStatusPersistence implements StatusPersistence using local filesystem
type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a new file-based status persistence
// basePath is the base directory where per-source status files will be stored
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

func (f *fileStatusPersistence) sourceDir(sourceID int64) string {
	return filepath.Join(f.basePath, strconv.FormatInt(sourceID, 10))
}

// SaveStatus saves the check status to a JSON file in a source-specific directory
func (f *fileStatusPersistence) SaveStatus(_ context.Context, sourceID int64, status *CheckStatus) error {
	sourceDir := f.sourceDir(sourceID)
	if err := os.MkdirAll(sourceDir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory for source %d: %w", sourceID, err)
	}

	filePath := filepath.Join(sourceDir, StatusFileName)

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data for source %d: %w", sourceID, err)
	}

	// Write to temporary file first for atomic operation
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file for source %d: %w", sourceID, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file for source %d: %w", sourceID, err)
	}

	return nil
}

// LoadStatus loads the check status from the JSON file of a source
// Returns an empty CheckStatus if the file doesn't exist
func (f *fileStatusPersistence) LoadStatus(_ context.Context, sourceID int64) (*CheckStatus, error) {
	filePath := filepath.Join(f.sourceDir(sourceID), StatusFileName)

	// #nosec G304 -- filePath is built from basePath and a numeric source id
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &CheckStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file for source %d: %w", sourceID, err)
	}

	var status CheckStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data for source %d: %w", sourceID, err)
	}

	return &status, nil
}

// LoadAllStatus loads the check status of every source with a status directory
func (f *fileStatusPersistence) LoadAllStatus(ctx context.Context) (map[int64]*CheckStatus, error) {
	result := make(map[int64]*CheckStatus)

	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read status directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sourceID, err := strconv.ParseInt(entry.Name(), 10, 64)
		if err != nil {
			continue
		}

		status, err := f.LoadStatus(ctx, sourceID)
		if err != nil {
			// Partial results are better than none
			continue
		}

		result[sourceID] = status
	}

	return result, nil
}

// DeleteStatus removes the status directory of a source
func (f *fileStatusPersistence) DeleteStatus(_ context.Context, sourceID int64) error {
	if err := os.RemoveAll(f.sourceDir(sourceID)); err != nil {
		return fmt.Errorf("failed to delete status for source %d: %w", sourceID, err)
	}
	return nil
}

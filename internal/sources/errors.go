package sources

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrBackendNotFound is returned when no backend is registered under a path
	ErrBackendNotFound = errors.New("source backend not found")
	// ErrNotImplemented is returned when a backend does not support an operation
	ErrNotImplemented = errors.New("not implemented")
	// ErrInvalidEncodedFilename is returned for staging file names that do not decode
	ErrInvalidEncodedFilename = errors.New("invalid encoded filename")
	// ErrStagingFileNotFound is returned when a staging file does not exist
	ErrStagingFileNotFound = errors.New("staging file not found")
	// ErrNotInteractive is returned when an upload targets a non interactive source
	ErrNotInteractive = errors.New("source is not interactive")
	// ErrSourceNotFound is returned when a source does not exist
	ErrSourceNotFound = errors.New("source not found")
	// ErrDuplicateLabel is returned when another source already uses a label
	ErrDuplicateLabel = errors.New("source with this label already exists")
)

// ValidationError reports invalid backend data, keyed by field name.
// Errors that do not concern a single field use the empty key.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates a ValidationError with one field error
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add records a message for a field
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

// Empty reports whether no errors were recorded
func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

func (v *ValidationError) Error() string {
	names := make([]string, 0, len(v.Fields))
	for name := range v.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		msg := strings.Join(v.Fields[name], " ")
		if name == "" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, msg))
	}
	return "invalid backend data: " + strings.Join(parts, "; ")
}

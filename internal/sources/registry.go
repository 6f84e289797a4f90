package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/stacklok/docsource-server/internal/logger"
)

// Constructor creates a backend bound to a source
type Constructor func(src *Source, env *Env) (Backend, error)

// ValidateFunc runs backend specific validation after the field checks pass
type ValidateFunc func(ctx context.Context, env *Env, data Data) error

// BackendInfo describes a registered backend
type BackendInfo struct {
	Label       string
	Schema      Schema
	Interactive bool
	Periodic    bool
	Compressed  bool
	New         Constructor
	Validate    ValidateFunc

	// Initialize runs once after every backend is registered
	Initialize func(env *Env) error
}

// BackendChoice is a (path, label) pair
type BackendChoice struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// Registry maps dotted class paths to backends
type Registry struct {
	mu       sync.RWMutex
	backends map[string]*BackendInfo
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]*BackendInfo)}
}

// Register adds a backend under a path
func (r *Registry) Register(path string, info *BackendInfo) error {
	if path == "" {
		return errors.New("backend path is required")
	}
	if info == nil || info.New == nil {
		return fmt.Errorf("backend %s has no constructor", path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[path]; exists {
		return fmt.Errorf("backend already registered: %s", path)
	}
	r.backends[path] = info
	return nil
}

// Get returns the backend registered under path
func (r *Registry) Get(path string) (*BackendInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.backends[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, path)
	}
	return info, nil
}

// GetAll returns every registered backend keyed by path
func (r *Registry) GetAll() map[string]*BackendInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*BackendInfo, len(r.backends))
	for path, info := range r.backends {
		out[path] = info
	}
	return out
}

// GetChoices returns the backends sorted by label
func (r *Registry) GetChoices() []BackendChoice {
	r.mu.RLock()
	defer r.mu.RUnlock()

	choices := make([]BackendChoice, 0, len(r.backends))
	for path, info := range r.backends {
		choices = append(choices, BackendChoice{Path: path, Label: info.Label})
	}
	sort.SliceStable(choices, func(i, j int) bool {
		if choices[i].Label == choices[j].Label {
			return choices[i].Path < choices[j].Path
		}
		return choices[i].Label < choices[j].Label
	})
	return choices
}

// GetClassPath returns the path a backend was registered under
func (r *Registry) GetClassPath(info *BackendInfo) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for path, registered := range r.backends {
		if registered == info {
			return path, true
		}
	}
	return "", false
}

// GetSetupFormSchema returns the setup form description of a backend
func (r *Registry) GetSetupFormSchema(path string) (Schema, error) {
	info, err := r.Get(path)
	if err != nil {
		return Schema{}, err
	}

	schema := info.Schema
	if schema.Fields == nil {
		schema.Fields = map[string]Field{}
	}
	if schema.Widgets == nil {
		schema.Widgets = map[string]string{}
	}
	if schema.FieldOrder == nil {
		schema.FieldOrder = []string{}
	}
	return schema, nil
}

// Initialize runs the initialization hook of every backend
func (r *Registry) Initialize(env *Env) error {
	all := r.GetAll()
	paths := make([]string, 0, len(all))
	for path := range all {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		info := all[path]
		if info.Initialize == nil {
			continue
		}
		if err := info.Initialize(env); err != nil {
			return fmt.Errorf("failed to initialize backend %s: %w", path, err)
		}
		logger.Debugf("Initialized source backend %s", path)
	}
	return nil
}

// Validate checks backend data against the backend fields and its own
// validator. It returns the data with defaults applied.
func (r *Registry) Validate(ctx context.Context, env *Env, path string, raw json.RawMessage) (json.RawMessage, error) {
	info, err := r.Get(path)
	if err != nil {
		return nil, err
	}

	values := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, NewValidationError("", "backend data must be a JSON object")
		}
	}
	values = info.Schema.ApplyDefaults(values)

	if err := info.Schema.validateData(values); err != nil {
		return nil, err
	}

	data, err := DataFromMap(values, info.Schema)
	if err != nil {
		return nil, err
	}

	if info.Validate != nil {
		if err := info.Validate(ctx, env, data); err != nil {
			return nil, err
		}
	}
	return data.Raw(), nil
}

// Backend creates the backend bound to a source
func (r *Registry) Backend(src *Source, env *Env) (Backend, *BackendInfo, error) {
	info, err := r.Get(src.BackendPath)
	if err != nil {
		return nil, nil, err
	}
	backend, err := info.New(src, env)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create backend for source %d: %w", src.ID, err)
	}
	return backend, info, nil
}

// NewDefaultRegistry returns a registry holding every built-in backend
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for path, info := range map[string]*BackendInfo{
		PathNull:          NullBackendInfo(),
		PathWebForm:       WebFormBackendInfo(),
		PathStagingFolder: StagingFolderBackendInfo(),
		PathSANEScanner:   SANEScannerBackendInfo(),
		PathWatchFolder:   WatchFolderBackendInfo(),
		PathIMAPEmail:     IMAPEmailBackendInfo(),
		PathPOP3Email:     POP3EmailBackendInfo(),
	} {
		if err := r.Register(path, info); err != nil {
			panic(err)
		}
	}
	return r
}

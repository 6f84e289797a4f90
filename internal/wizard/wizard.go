// Package wizard implements the document creation wizard steps that run
// after a document has been uploaded.
package wizard

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"

	"github.com/stacklok/docsource-server/internal/documents"
)

// Step is a document creation wizard step
type Step interface {
	Name() string
	Number() int
	Label() string
	// PostUploadProcess runs once the document exists, with the query
	// string captured when the upload was requested
	PostUploadProcess(ctx context.Context, doc *documents.Document, query url.Values) error
}

// Choice is a (name, value) pair describing a step
type Choice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Registry holds the registered wizard steps
type Registry struct {
	mu         sync.RWMutex
	registry   map[string]Step
	deregistry map[string]struct{}
}

// NewRegistry creates an empty step registry
func NewRegistry() *Registry {
	return &Registry{
		registry:   make(map[string]Step),
		deregistry: make(map[string]struct{}),
	}
}

// Register adds a step. Names must be unique and numbers must be unique
// among the active steps.
func (r *Registry) Register(step Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.registry[step.Name()]; ok {
		//nolint:staticcheck // message is part of the API contract
		return fmt.Errorf("A step with this name already exists: %s", step.Name())
	}

	for _, registered := range r.activeLocked() {
		if registered.Number() == step.Number() {
			//nolint:staticcheck // message is part of the API contract
			return fmt.Errorf("A step with this number already exists: %s", step.Name())
		}
	}

	r.registry[step.Name()] = step
	return nil
}

// Deregister hides a step without forgetting it
func (r *Registry) Deregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deregistry[name] = struct{}{}
}

// DeregisterAll hides every active step
func (r *Registry) DeregisterAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, step := range r.activeLocked() {
		r.deregistry[step.Name()] = struct{}{}
	}
}

// Reregister makes a deregistered step active again
func (r *Registry) Reregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deregistry[name]; !ok {
		return fmt.Errorf("step is not deregistered: %s", name)
	}
	delete(r.deregistry, name)
	return nil
}

// ReregisterAll makes every deregistered step active again
func (r *Registry) ReregisterAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deregistry = make(map[string]struct{})
}

// Get returns an active step by name
func (r *Registry) Get(name string) (Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, step := range r.activeLocked() {
		if step.Name() == name {
			return step, true
		}
	}
	return nil, false
}

// GetAll returns the active steps ordered by number
func (r *Registry) GetAll() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeLocked()
}

// GetChoices returns (name, attribute) pairs of the active steps.
// attribute is one of name, label or number.
func (r *Registry) GetChoices(attribute string) ([]Choice, error) {
	steps := r.GetAll()
	choices := make([]Choice, 0, len(steps))
	for _, step := range steps {
		var value string
		switch attribute {
		case "name":
			value = step.Name()
		case "label":
			value = step.Label()
		case "number":
			value = strconv.Itoa(step.Number())
		default:
			return nil, fmt.Errorf("unknown step attribute: %s", attribute)
		}
		choices = append(choices, Choice{Name: step.Name(), Value: value})
	}
	return choices, nil
}

// PostUploadProcess runs every active step in order
func (r *Registry) PostUploadProcess(ctx context.Context, doc *documents.Document, query url.Values) error {
	for _, step := range r.GetAll() {
		if err := step.PostUploadProcess(ctx, doc, query); err != nil {
			return fmt.Errorf("wizard step %s: %w", step.Name(), err)
		}
	}
	return nil
}

func (r *Registry) activeLocked() []Step {
	steps := make([]Step, 0, len(r.registry))
	for name, step := range r.registry {
		if _, hidden := r.deregistry[name]; hidden {
			continue
		}
		steps = append(steps, step)
	}
	sort.Slice(steps, func(i, j int) bool {
		return steps[i].Number() < steps[j].Number()
	})
	return steps
}

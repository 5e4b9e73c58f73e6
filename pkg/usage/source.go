// Package usage provides CPU utilization readings for compute instances.
package usage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// Source yields a utilization reading for an instance.
type Source interface {
	// Name returns the source identifier used in configuration.
	Name() string

	// Sample returns the current utilization for instanceID.
	// Implementations must be safe for concurrent use.
	Sample(ctx context.Context, instanceID string) (model.UtilizationSample, error)
}

// Registry manages utilization sources by name.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
	}
}

// Register adds a source to the registry.
func (r *Registry) Register(s Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("utilization source %q already registered", name)
	}
	r.sources[name] = s
	return nil
}

// Get returns a source by name.
func (r *Registry) Get(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("utilization source %q not found", name)
	}
	return s, nil
}

// List returns all registered source names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

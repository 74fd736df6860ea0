package scm

import (
	"sort"
	"sync"
)

// Registry holds the source-control integrations known to the process.
type Registry struct {
	mu           sync.RWMutex
	integrations map[string]Integration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		integrations: make(map[string]Integration),
	}
}

// Register adds an integration, replacing any with the same ID.
func (r *Registry) Register(integration Integration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integrations[integration.ID()] = integration
}

// Get retrieves an integration by identifier.
func (r *Registry) Get(id string) (Integration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	integration, ok := r.integrations[id]
	return integration, ok
}

// List returns all registered identifiers, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.integrations))
	for id := range r.integrations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package medial

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps entity type names to their built descriptors. Descriptors
// are built when registered, never on first use.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[string]*Descriptor)}
}

// Register builds and stores the descriptor for name. Registering the same
// name twice is an error.
func (r *Registry) Register(name string, spec EntitySpec) (*Descriptor, error) {
	d, err := NewDescriptor(spec)
	if err != nil {
		return nil, fmt.Errorf("registering entity '%s': %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.descriptors[name]; ok {
		return nil, fmt.Errorf("entity '%s' is already registered", name)
	}
	r.descriptors[name] = d

	return d, nil
}

// RegisterModel registers the spec a Model declares.
func (r *Registry) RegisterModel(name string, m Model) (*Descriptor, error) {
	return r.Register(name, m.EntitySpec())
}

// MustRegister is like Register but panics on error. It is meant for
// package-level registration of fixed specs.
func (r *Registry) MustRegister(name string, spec EntitySpec) *Descriptor {
	d, err := r.Register(name, spec)
	if err != nil {
		panic(err)
	}
	return d
}

func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[name]
	return d, ok
}

// Names returns the registered entity names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

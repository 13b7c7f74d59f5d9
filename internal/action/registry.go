package action

import (
	"fmt"
	"sync"
)

// Registry maps action kinds to their executors.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	executors map[Kind]Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[Kind]Executor)}
}

// DefaultRegistry holds the nop, update and run executors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Nop{})
	r.Register(Update{})
	r.Register(NewCommand())
	return r
}

// Register adds an executor. Panics on duplicate kind to surface misconfiguration early.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.executors[e.Kind()]; exists {
		panic(fmt.Sprintf("action registry: duplicate kind %q", e.Kind()))
	}
	r.executors[e.Kind()] = e
}

// Get returns the executor for the given kind.
func (r *Registry) Get(kind Kind) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[kind]
	if !ok {
		return nil, fmt.Errorf("no executor registered for action kind %q", kind)
	}
	return e, nil
}

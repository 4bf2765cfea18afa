package registry

import (
	"fmt"
	"sync"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/ports"
)

// Constructor builds a fresh stage instance for one run.
type Constructor func() ports.Stage

// Registry maps each pipeline position to the stage implementation that fills it.
type Registry struct {
	mu     sync.RWMutex
	stages map[domain.StageKind]Constructor
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stages: make(map[domain.StageKind]Constructor),
	}
}

// Register sets the constructor for kind.
// If one is already registered, it is overwritten.
func (r *Registry) Register(kind domain.StageKind, fn Constructor) error {
	if !kind.Valid() {
		return fmt.Errorf("register %s: %w", kind, domain.ErrUnknownStage)
	}
	if fn == nil {
		return fmt.Errorf("register %s: nil constructor", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[kind] = fn
	return nil
}

// Lookup returns the constructor registered for kind.
func (r *Registry) Lookup(kind domain.StageKind) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.stages[kind]
	return fn, ok
}

// Missing lists the pipeline positions with no registered stage, in order.
func (r *Registry) Missing() []domain.StageKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.StageKind
	for _, kind := range domain.StageKinds() {
		if _, ok := r.stages[kind]; !ok {
			out = append(out, kind)
		}
	}
	return out
}

// Clone returns an independent copy, so overrides do not leak into r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for k, fn := range r.stages {
		c.stages[k] = fn
	}
	return c
}

// Factory exposes the registry as a ports.StageFactory.
// Unregistered kinds yield nil.
func (r *Registry) Factory() ports.StageFactory {
	return func(kind domain.StageKind) ports.Stage {
		fn, ok := r.Lookup(kind)
		if !ok {
			return nil
		}
		return fn()
	}
}

package mediaprovider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/uniedit/reelgen/internal/model"
	"github.com/uniedit/reelgen/internal/port/outbound"
)

// Registry manages media generators by provider name.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]outbound.MediaGeneratorPort
	defaults   map[model.MediaKind]string
}

// NewRegistry creates a new generator registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]outbound.MediaGeneratorPort),
		defaults:   make(map[model.MediaKind]string),
	}
}

// Register registers a generator. The first generator registered for a
// kind becomes that kind's default.
func (r *Registry) Register(kind model.MediaKind, generator outbound.MediaGeneratorPort) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generators[generator.Name()] = generator
	if _, ok := r.defaults[kind]; !ok {
		r.defaults[kind] = generator.Name()
	}
}

// SetDefault makes name the default generator for kind.
func (r *Registry) SetDefault(kind model.MediaKind, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.generators[name]; !ok {
		return fmt.Errorf("no media generator named %q", name)
	}
	r.defaults[kind] = name
	return nil
}

// Get returns a generator by provider name.
func (r *Registry) Get(name string) (outbound.MediaGeneratorPort, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("no media generator named %q", name)
	}
	return g, nil
}

// Default returns the default generator for kind.
func (r *Registry) Default(kind model.MediaKind) (outbound.MediaGeneratorPort, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.defaults[kind]
	if !ok {
		return nil, fmt.Errorf("no media generator for kind %q", kind)
	}
	return r.generators[name], nil
}

// Names returns all registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compile-time interface check
var _ outbound.MediaGeneratorRegistryPort = (*Registry)(nil)

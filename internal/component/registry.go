package component

import (
	"sync"
)

// Factory constructs a concrete component type. Restoring a document
// resolves each owned entry's classname to a factory and calls it with
// the entry's data, the owning component, and the inherited design
// flag.
type Factory func(opts Options) (*Component, error)

// Classname of the base component type.
const BaseClassname = "oak.Component"

// Global factory registry for auto-registration via init().
// Component types register themselves here at package initialization.
var globalFactories = struct {
	factories map[string]Factory
	mu        sync.RWMutex
}{
	factories: make(map[string]Factory),
}

// RegisterType registers a factory globally. Called from init()
// functions so a type is constructible by name anywhere in the
// process.
func RegisterType(classname string, factory Factory) {
	globalFactories.mu.Lock()
	defer globalFactories.mu.Unlock()
	globalFactories.factories[classname] = factory
}

func init() {
	RegisterType(BaseClassname, New)
}

// Registry resolves classnames to factories. Instance registrations
// shadow the global auto-registered table, so an application can scope
// or override types without touching process state.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty instance registry backed by the global
// table.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds an instance-specific factory for a classname.
func (r *Registry) Register(classname string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[classname] = factory
}

// Lookup resolves a classname, checking instance registrations first,
// then the global table.
func (r *Registry) Lookup(classname string) (Factory, bool) {
	r.mu.RLock()
	factory, ok := r.factories[classname]
	r.mu.RUnlock()
	if ok {
		return factory, true
	}

	globalFactories.mu.RLock()
	defer globalFactories.mu.RUnlock()
	factory, ok = globalFactories.factories[classname]
	return factory, ok
}

// defaultRegistry is shared by components constructed without an
// explicit registry; it resolves through the global table only.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry used when Options.Classes is
// nil.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Package registry tracks live top-level components by name so
// applications can look components up across trees. The registry is
// application-owned and passed explicitly to whatever needs cross-tree
// lookup: components register on construction and deregister on
// teardown, with no process-global state.
package registry

import (
	"sync"

	"github.com/zot/oak/internal/component"
	"github.com/zot/oak/internal/oakerr"
)

// RegisteredCallback is called after a top level is registered.
type RegisteredCallback func(name string, c *component.Component)

// DeregisteredCallback is called after a top level is deregistered.
type DeregisteredCallback func(name string, c *component.Component)

// Registry tracks top-level components by name.
type Registry struct {
	components     map[string]*component.Component
	onRegistered   RegisteredCallback
	onDeregistered DeregisteredCallback
	mu             sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{components: make(map[string]*component.Component)}
}

// SetOnRegistered sets a callback called after registration.
func (r *Registry) SetOnRegistered(callback RegisteredCallback) {
	r.onRegistered = callback
}

// SetOnDeregistered sets a callback called after deregistration.
func (r *Registry) SetOnDeregistered(callback DeregisteredCallback) {
	r.onDeregistered = callback
}

// Register tracks a top-level component under its name. Registering a
// second component under a taken name fails; the first stays intact.
func (r *Registry) Register(c *component.Component) error {
	name := c.Name()
	if name == "" {
		return oakerr.MissingComponentName()
	}

	r.mu.Lock()
	if _, exists := r.components[name]; exists {
		r.mu.Unlock()
		return oakerr.AlreadyRegistered(name)
	}
	r.components[name] = c
	r.mu.Unlock()

	if r.onRegistered != nil {
		r.onRegistered(name, c)
	}
	return nil
}

// Deregister stops tracking the named component.
func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	c, ok := r.components[name]
	if !ok {
		r.mu.Unlock()
		return oakerr.NotRegistered(name)
	}
	delete(r.components, name)
	r.mu.Unlock()

	if r.onDeregistered != nil {
		r.onDeregistered(name, c)
	}
	return nil
}

// Lookup returns the component registered under name.
func (r *Registry) Lookup(name string) (*component.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	return c, ok
}

// Names returns the registered names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered components.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}

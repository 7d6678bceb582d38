// Package filer implements the storage backends a persistent object
// routes its properties through. A filer is a strategy object bound to
// one backend location (a file path, a table row); it has no ownership
// over the objects it serves. Load is side-effect-free on the backing
// store; Store is the only mutating operation.
package filer

import (
	"sync"

	"github.com/zot/oak/internal/property"
)

// Props is the value set filers load and store.
type Props = property.Props

// Filer is the capability contract every storage backend implements.
type Filer interface {
	// Load retrieves the named properties. Names absent from the backend
	// are simply absent from the result, never an error.
	Load(names ...string) (Props, error)

	// Store persists the given properties.
	Store(props Props) error
}

// Null is the no-op filer: loads nothing, stores nowhere. It is the
// safe default so every property always has some filer and unset
// properties never crash a lookup.
type Null struct{}

// NewNull creates a null filer.
func NewNull() *Null {
	return &Null{}
}

// Load returns an empty result for any request.
func (*Null) Load(names ...string) (Props, error) {
	return Props{}, nil
}

// Store discards the given properties.
func (*Null) Store(props Props) error {
	return nil
}

// Memory is a map-backed filer. Useful as a real backend for transient
// objects and as the reference backend in tests.
type Memory struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewMemory creates an empty in-memory filer.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Load returns the requested properties that are present. With no
// names it returns everything.
func (m *Memory) Load(names ...string) (Props, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(Props)
	if len(names) == 0 {
		for name, value := range m.values {
			result[name] = value
		}
		return result, nil
	}
	for _, name := range names {
		if value, ok := m.values[name]; ok {
			result[name] = value
		}
	}
	return result, nil
}

// Store merges the given properties into the backing map.
func (m *Memory) Store(props Props) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, value := range props {
		m.values[name] = value
	}
	return nil
}

// Len returns the number of stored properties.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

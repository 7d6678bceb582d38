// Package property implements the in-memory property bag backing every
// persistent object: a flat name→value store with no storage knowledge.
// Values are opaque strings; a name that was never set is distinct from
// a name set to the empty string.
package property

import (
	"sort"
	"sync"
)

// Props is a set of named property values, the unit both filers and
// bags exchange.
type Props map[string]string

// Copy returns an independent copy of the props.
func (p Props) Copy() Props {
	if p == nil {
		return nil
	}
	cp := make(Props, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// Bag is a flat key/value store with get/set primitives.
type Bag struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewBag creates an empty property bag.
func NewBag() *Bag {
	return &Bag{values: make(map[string]string)}
}

// Get returns the value for name. ok is false if the name was never set.
func (b *Bag) Get(name string) (value string, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok = b.values[name]
	return value, ok
}

// GetAll returns values aligned to the requested names. Missing names
// resolve to the empty string.
func (b *Bag) GetAll(names ...string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = b.values[name]
	}
	return values
}

// Has reports whether name has a cached value.
func (b *Bag) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.values[name]
	return ok
}

// Set overwrites the given properties unconditionally.
func (b *Bag) Set(props Props) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, value := range props {
		b.values[name] = value
	}
}

// SetOne overwrites a single property.
func (b *Bag) SetOne(name, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[name] = value
}

// Delete drops cached values so a later Get falls through to storage.
func (b *Bag) Delete(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, name := range names {
		delete(b.values, name)
	}
}

// Names returns all property names in sorted order.
func (b *Bag) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.values))
	for name := range b.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the bag's current contents.
func (b *Bag) Snapshot() Props {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Props(b.values).Copy()
}

// Len returns the number of cached properties.
func (b *Bag) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}

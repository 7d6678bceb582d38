// Package object implements the persistence layer of the framework:
// a property bag whose entries are transparently backed by filers,
// chosen per property name by an overridable routing policy.
package object

import (
	"fmt"
	"sort"

	"github.com/zot/oak/internal/filer"
	"github.com/zot/oak/internal/property"
)

// ID names a filer within one persistent object.
type ID string

// Default is the filer id the routing policy returns when no override
// is in place. It is pre-bound to the null filer.
const Default ID = "default"

// Persistent wraps a property bag and routes each property name to a
// filer. Reads load lazily on a cache miss; writes go through the
// filer and mirror into the bag (write-through). The cache is never
// invalidated except by an explicit Refresh.
type Persistent struct {
	bag    *property.Bag
	filers map[ID]filer.Filer

	// ChooseFiler resolves a property name to a filer id. The default
	// policy routes everything to Default.
	ChooseFiler func(name string) ID

	// MakeFiler lazily constructs the filer for an id the first time a
	// property routes to it. The result is memoized.
	MakeFiler func(id ID) (filer.Filer, error)
}

// New creates a persistent object with an empty bag and the null filer
// bound to the default id.
func New() *Persistent {
	return &Persistent{
		bag: property.NewBag(),
		filers: map[ID]filer.Filer{
			Default: filer.NewNull(),
		},
	}
}

// Bag exposes the in-memory property cache.
func (p *Persistent) Bag() *property.Bag {
	return p.bag
}

// SetFiler binds a filer to an id, replacing any existing binding.
func (p *Persistent) SetFiler(id ID, f filer.Filer) {
	p.filers[id] = f
}

// filerFor resolves an id to a live filer, constructing and memoizing
// it through MakeFiler on first use.
func (p *Persistent) filerFor(id ID) (filer.Filer, error) {
	if f, ok := p.filers[id]; ok {
		return f, nil
	}
	if p.MakeFiler == nil {
		return nil, fmt.Errorf("no filer bound to id %q", id)
	}
	f, err := p.MakeFiler(id)
	if err != nil {
		return nil, err
	}
	p.filers[id] = f
	return f, nil
}

// route resolves a property name to its filer id.
func (p *Persistent) route(name string) ID {
	if p.ChooseFiler != nil {
		return p.ChooseFiler(name)
	}
	return Default
}

// Get returns values aligned to the requested names. Cache misses are
// grouped by filer id so that N missing properties spread across K
// filers cost K load calls. Loaded values merge into the bag; names
// the backend does not know are cached as empty, so a later get of the
// same name never re-issues a load.
func (p *Persistent) Get(names ...string) ([]string, error) {
	missing := make(map[ID][]string)
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] || p.bag.Has(name) {
			continue
		}
		seen[name] = true
		id := p.route(name)
		missing[id] = append(missing[id], name)
	}

	for _, id := range sortedIDs(missing) {
		f, err := p.filerFor(id)
		if err != nil {
			return nil, err
		}
		loaded, err := f.Load(missing[id]...)
		if err != nil {
			return nil, err
		}
		for _, name := range missing[id] {
			if _, ok := loaded[name]; !ok {
				loaded[name] = ""
			}
		}
		p.bag.Set(loaded)
	}

	return p.bag.GetAll(names...), nil
}

// GetOne returns a single property value.
func (p *Persistent) GetOne(name string) (string, error) {
	values, err := p.Get(name)
	if err != nil {
		return "", err
	}
	return values[0], nil
}

// Set mirrors every assignment into the bag unconditionally, then
// groups the assignments by filer id and issues one store per filer
// with only that filer's subset. A backend error stops the remaining
// stores and propagates unchanged; the cache always reflects what the
// caller asked for.
func (p *Persistent) Set(props filer.Props) error {
	grouped := make(map[ID]filer.Props)
	for name, value := range props {
		id := p.route(name)
		if grouped[id] == nil {
			grouped[id] = make(filer.Props)
		}
		grouped[id][name] = value
	}
	p.bag.Set(props)

	for _, id := range sortedIDs(grouped) {
		f, err := p.filerFor(id)
		if err != nil {
			return err
		}
		if err := f.Store(grouped[id]); err != nil {
			return err
		}
	}
	return nil
}

// Feed seeds the bag directly, bypassing all filers. Used for values
// that are already materialized, such as data parsed out of an owning
// component's document.
func (p *Persistent) Feed(props filer.Props) {
	p.bag.Set(props)
}

// Refresh drops the cached values for the given names and reloads them
// from their filers.
func (p *Persistent) Refresh(names ...string) ([]string, error) {
	p.bag.Delete(names...)
	return p.Get(names...)
}

func sortedIDs[V any](m map[ID]V) []ID {
	ids := make([]ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

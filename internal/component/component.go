// Package component implements the ownership tree of the framework.
// A component is a persistent object with a name, an optional owner,
// and named children. A component with no owner is a top level: the
// unit of independent persistence, serialized as one XML document that
// embeds every owned component's properties. Owned components keep
// their data in memory, fed from the owning document, until the top
// level's StoreAll rewrites the document.
//
// Execution is synchronous and single-threaded: restoring a top level
// is one depth-first walk, and a failure anywhere discards the
// partially built tree.
package component

import (
	"errors"
	"sort"

	"github.com/zot/oak/internal/filer"
	"github.com/zot/oak/internal/oakerr"
	"github.com/zot/oak/internal/object"
	"github.com/zot/oak/internal/property"
)

// FilerComponent is the filer id a top level routes its properties to:
// the XML document filer at the component's backing path.
const FilerComponent object.ID = "COMPONENT"

// Well-known property names.
const (
	PropName      = "name"
	PropClassname = "classname"
)

// Handler is an event callback bound to a component at configuration
// time. Dispatch invokes it; its error propagates to the dispatcher.
type Handler func(c *Component) error

// ChildUpdateFunc is the hook an owner runs after a child's Set, so
// ancestors can react to subtree changes. The default is a no-op.
type ChildUpdateFunc func(owner, child *Component, props filer.Props)

// Options configures a component. Exactly one creation mode applies:
// File restores a top level from its document, Restore seeds from an
// already-loaded property set, otherwise the component starts fresh
// from Props.
type Options struct {
	// Name names a fresh component. Ignored when restoring; restored
	// data carries its own name.
	Name string

	// Props are initial in-memory values for a fresh component.
	Props filer.Props

	// Restore is a pre-loaded property set, typically one owned entry
	// of a parent's document. It must include a name.
	Restore filer.Props

	// File is the document path of a top level to restore.
	File string

	// Owner registers the new component as a child of an existing one.
	Owner *Component

	// Designing suppresses event dispatch while the tree is edited
	// rather than run. Owned components inherit it.
	Designing bool

	// Classes resolves classnames of owned entries during restore.
	// Defaults to the process-global registry.
	Classes *Registry

	// Handlers binds event callbacks before the creation event fires.
	Handlers map[string]Handler

	// ChildUpdate is called after a child's Set.
	ChildUpdate ChildUpdateFunc

	// AfterConstruction runs once the component is bound, before the
	// creation event. Its error aborts construction.
	AfterConstruction func(c *Component) error
}

// Component is a node in a strict ownership tree.
type Component struct {
	*object.Persistent

	owner       *Component // weak back-reference; lifetime runs parent→child
	children    map[string]*Component
	ownedBags   map[string]*property.Bag // children's live bags, snapshotted by StoreAll
	designing   bool
	handlers    map[string]Handler
	classes     *Registry
	childUpdate ChildUpdateFunc
	docFiler    *filer.Component
}

// EventCreated is dispatched once a component goes live.
const EventCreated = "created"

// New creates a component: restores it from a document or a property
// set, binds it to its owner, runs the post-construction hook, and
// dispatches the creation event. On any failure the partial tree is
// simply discarded by the caller; no cleanup pass is needed.
func New(opts Options) (*Component, error) {
	c := &Component{
		Persistent:  object.New(),
		children:    make(map[string]*Component),
		ownedBags:   make(map[string]*property.Bag),
		designing:   opts.Designing,
		handlers:    make(map[string]Handler),
		classes:     opts.Classes,
		childUpdate: opts.ChildUpdate,
	}
	if c.classes == nil {
		c.classes = DefaultRegistry()
	}
	for event, h := range opts.Handlers {
		c.handlers[event] = h
	}
	c.wireFilers()

	switch {
	case opts.File != "":
		if err := c.restoreTopLevel(opts.File); err != nil {
			return nil, err
		}
	case opts.Restore != nil:
		if err := c.restore(opts.Restore); err != nil {
			return nil, err
		}
	default:
		props := opts.Props.Copy()
		if props == nil {
			props = make(filer.Props)
		}
		if opts.Name != "" {
			props[PropName] = opts.Name
		}
		if props[PropName] == "" {
			return nil, oakerr.MissingComponentName()
		}
		c.Feed(props)
	}

	if opts.Owner != nil {
		if err := opts.Owner.RegisterChild(c); err != nil {
			return nil, err
		}
	}

	if opts.AfterConstruction != nil {
		if err := opts.AfterConstruction(c); err != nil {
			return nil, err
		}
	}
	if err := c.Dispatch(EventCreated); err != nil {
		return nil, err
	}
	return c, nil
}

// wireFilers installs the routing policy: a top level bound to a
// document routes every property except the reserved markers through
// the component filer; everything else stays on the default (null)
// filer, living only in memory.
func (c *Component) wireFilers() {
	c.Persistent.ChooseFiler = func(name string) object.ID {
		if c.owner != nil {
			return object.Default
		}
		if name == filer.KeyFile || name == filer.KeyType {
			return object.Default
		}
		if path, _ := c.Bag().Get(filer.KeyFile); path != "" {
			return FilerComponent
		}
		return object.Default
	}
	c.Persistent.MakeFiler = func(id object.ID) (filer.Filer, error) {
		if id == FilerComponent {
			if c.docFiler != nil {
				return c.docFiler, nil
			}
			path, _ := c.Bag().Get(filer.KeyFile)
			f, err := filer.NewComponent(path)
			if err != nil {
				return nil, err
			}
			c.docFiler = f
			return f, nil
		}
		return filer.NewNull(), nil
	}
}

// restoreTopLevel binds the component to the document at path, loads
// the whole document, restores its own properties, and constructs the
// owned components in sorted-name order.
func (c *Component) restoreTopLevel(path string) error {
	f, err := filer.NewComponent(path)
	if err != nil {
		return err
	}
	doc, err := f.LoadDocument()
	if err != nil {
		return err
	}
	c.docFiler = f
	c.SetFiler(FilerComponent, f)

	if err := c.restore(doc.Mine); err != nil {
		return err
	}
	c.Feed(filer.Props{filer.KeyFile: path})

	names := make([]string, 0, len(doc.Owned))
	for name := range doc.Owned {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.createOwned(name, doc.Owned[name]); err != nil {
			return err
		}
	}
	return nil
}

// restore feeds an already-materialized property set into the bag,
// bypassing all filers.
func (c *Component) restore(data filer.Props) error {
	if _, ok := data[PropName]; !ok {
		return oakerr.MissingComponentName()
	}
	c.Feed(data)
	return nil
}

// createOwned resolves the entry's classname against the class
// registry and constructs the child with this component as owner.
func (c *Component) createOwned(name string, data filer.Props) error {
	classname := data[PropClassname]
	if classname == "" {
		return oakerr.MissingOwnedClassname(name)
	}
	factory, ok := c.classes.Lookup(classname)
	if !ok {
		return oakerr.MissingOwnedFile(classname)
	}
	child, err := factory(Options{
		Restore:   data,
		Owner:     c,
		Designing: c.designing,
		Classes:   c.classes,
	})
	if err != nil {
		return oakerr.CreatingOwned(name, classname, err)
	}
	child.Feed(filer.Props{filer.KeyType: classname})
	return nil
}

// Name returns the component's name from the bag.
func (c *Component) Name() string {
	name, _ := c.Bag().Get(PropName)
	return name
}

// Owner returns the owning component, nil for a top level.
func (c *Component) Owner() *Component {
	return c.owner
}

// IsTopLevel reports whether the component has no owner.
func (c *Component) IsTopLevel() bool {
	return c.owner == nil
}

// Designing reports whether event dispatch is suppressed.
func (c *Component) Designing() bool {
	return c.designing
}

// SetDesigning toggles design mode.
func (c *Component) SetDesigning(designing bool) {
	c.designing = designing
}

// RegisterChild inserts child into the child set under its name,
// snapshots a reference to its bag for StoreAll, and sets its owner
// back-reference. Ownership is set at most once; re-parenting requires
// FreeChild first.
func (c *Component) RegisterChild(child *Component) error {
	name := child.Name()
	if name == "" {
		return oakerr.MissingComponentName()
	}
	if child.owner != nil {
		return oakerr.AlreadyOwned(name)
	}
	// A component may not own itself or any of its ancestors.
	for a := c; a != nil; a = a.owner {
		if a == child {
			return oakerr.AlreadyOwned(name)
		}
	}
	if _, exists := c.children[name]; exists {
		return oakerr.AlreadyRegistered(name)
	}
	c.children[name] = child
	c.ownedBags[name] = child.Bag()
	child.owner = c
	return nil
}

// GetChild returns the child registered under name.
func (c *Component) GetChild(name string) (*Component, error) {
	child, ok := c.children[name]
	if !ok {
		return nil, oakerr.NotRegistered(name)
	}
	return child, nil
}

// HasChild reports whether a child is registered under name.
func (c *Component) HasChild(name string) bool {
	_, ok := c.children[name]
	return ok
}

// ChildNames returns the registered child names in sorted order.
func (c *Component) ChildNames() []string {
	names := make([]string, 0, len(c.children))
	for name := range c.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FreeChild releases the child registered under name, removing it from
// the child set and the serialization snapshot and clearing its owner
// back-reference.
func (c *Component) FreeChild(name string) error {
	child, ok := c.children[name]
	if !ok {
		return oakerr.NotRegistered(name)
	}
	delete(c.children, name)
	delete(c.ownedBags, name)
	child.owner = nil
	return nil
}

// ChangeName renames the component. An owned component is re-registered
// under the new name with its existing owner; the old entry is removed
// first so the rename never collides with itself.
func (c *Component) ChangeName(newName string) error {
	if newName == "" {
		return oakerr.MissingComponentName()
	}
	oldName := c.Name()
	if newName == oldName {
		return nil
	}
	if c.owner != nil {
		if _, exists := c.owner.children[newName]; exists {
			return oakerr.AlreadyRegistered(newName)
		}
		delete(c.owner.children, oldName)
		delete(c.owner.ownedBags, oldName)
		c.owner.children[newName] = c
		c.owner.ownedBags[newName] = c.Bag()
	}
	c.Feed(filer.Props{PropName: newName})
	return nil
}

// Root returns the top-level ancestor.
func (c *Component) Root() *Component {
	root := c
	for root.owner != nil {
		root = root.owner
	}
	return root
}

// StoreAll rewrites the top-level ancestor's entire document from the
// current in-memory snapshot: the root's own properties plus every
// owned component's properties, in one shot. This is how design-mode
// edits are committed.
func (c *Component) StoreAll() error {
	root := c.Root()
	if root.docFiler == nil {
		path, _ := root.Bag().Get(filer.KeyFile)
		if path == "" {
			return oakerr.WritingXML(root.Name(), errors.New("component has no backing document"))
		}
		f, err := filer.NewComponent(path)
		if err != nil {
			return err
		}
		root.docFiler = f
		root.SetFiler(FilerComponent, f)
	}

	doc := filer.Document{
		Mine:  root.Bag().Snapshot(),
		Owned: make(map[string]filer.Props, len(root.ownedBags)),
	}
	for name, bag := range root.ownedBags {
		doc.Owned[name] = bag.Snapshot()
	}
	return root.docFiler.StoreDocument(doc)
}

// Set updates properties in memory. A name key routes through
// ChangeName; everything else is fed into the bag, not stored —
// components persist only through an explicit StoreAll. If the
// component is owned, the owner's ChildUpdate hook runs afterward.
func (c *Component) Set(props filer.Props) error {
	rest := props
	if newName, ok := props[PropName]; ok {
		if err := c.ChangeName(newName); err != nil {
			return err
		}
		rest = props.Copy()
		delete(rest, PropName)
	}
	c.Feed(rest)
	if c.owner != nil && c.owner.childUpdate != nil {
		c.owner.childUpdate(c.owner, c, props)
	}
	return nil
}

// On binds a handler to an event name, replacing any existing binding.
func (c *Component) On(event string, h Handler) {
	c.handlers[event] = h
}

// Off removes the handler bound to an event name.
func (c *Component) Off(event string) {
	delete(c.handlers, event)
}

// Dispatch invokes the handler bound to the event. It is a no-op in
// design mode and for unbound events; a handler's error propagates to
// the caller unchanged.
func (c *Component) Dispatch(event string) error {
	if c.designing {
		return nil
	}
	h, ok := c.handlers[event]
	if !ok {
		return nil
	}
	return h(c)
}

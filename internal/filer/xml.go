package filer

import (
	"encoding/xml"
	"errors"
	"os"
	"sort"

	"github.com/zot/oak/internal/oakerr"
)

// Reserved bag keys. They exist only in memory and are never written
// to a component document.
const (
	// KeyFile holds the backing document path of a top-level component.
	KeyFile = "oak:file"
	// KeyType holds the concrete type marker recorded during restore.
	KeyType = "oak:type"
)

// Document is the parsed form of a component document: the top-level
// component's own properties plus one property set per immediate child,
// keyed by child name.
type Document struct {
	Mine  Props
	Owned map[string]Props
}

// Component is the XML-file filer backing a top-level component. It is
// bound to one path at construction and reads or rewrites the whole
// document on every call; no handle is held between calls, so
// concurrent writers to the same path are last-write-wins.
type Component struct {
	path string
}

// NewComponent creates a component filer bound to path. The document
// must already exist.
func NewComponent(path string) (*Component, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, oakerr.MissingFile(path)
	}
	return &Component{path: path}, nil
}

// Path returns the bound document path.
func (c *Component) Path() string {
	return c.path
}

// xmlProp is one <prop name="..." value="..."/> element.
type xmlProp struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// xmlOwned is one <owned name="..."> child block.
type xmlOwned struct {
	Name  string    `xml:"name,attr"`
	Props []xmlProp `xml:"prop"`
}

// xmlDocument is the root <oak-component> element.
type xmlDocument struct {
	XMLName xml.Name   `xml:"oak-component"`
	Props   []xmlProp  `xml:"prop"`
	Owned   []xmlOwned `xml:"owned"`
}

// LoadDocument parses the whole document. Each owned entry gets its
// name synthesized back into its property set; on disk the name lives
// only in the tag attribute.
func (c *Component) LoadDocument() (Document, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return Document{}, oakerr.ReadingXML(c.path, err)
	}

	var parsed xmlDocument
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return Document{}, oakerr.ReadingXML(c.path, err)
	}

	doc := Document{
		Mine:  make(Props, len(parsed.Props)),
		Owned: make(map[string]Props, len(parsed.Owned)),
	}
	for _, p := range parsed.Props {
		doc.Mine[p.Name] = p.Value
	}
	for _, o := range parsed.Owned {
		child := make(Props, len(o.Props)+1)
		for _, p := range o.Props {
			child[p.Name] = p.Value
		}
		child["name"] = o.Name
		doc.Owned[o.Name] = child
	}
	return doc, nil
}

// StoreDocument fully overwrites the document. Callers must pass
// complete snapshots of both partitions; partial writes are not
// supported. Output is deterministic: properties and owned entries are
// written in sorted-name order, reserved keys and empty values are
// omitted, and an owned entry's name appears only as its tag attribute.
func (c *Component) StoreDocument(doc Document) error {
	return WriteDocument(c.path, doc)
}

// WriteDocument serializes doc to path with StoreDocument's contract.
// It also serves to create a document for a component that has never
// been stored before.
func WriteDocument(path string, doc Document) error {
	out := xmlDocument{
		Props: encodeProps(doc.Mine, false),
		Owned: make([]xmlOwned, 0, len(doc.Owned)),
	}

	names := make([]string, 0, len(doc.Owned))
	for name := range doc.Owned {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out.Owned = append(out.Owned, xmlOwned{
			Name:  name,
			Props: encodeProps(doc.Owned[name], true),
		})
	}

	data, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return oakerr.WritingXML(path, err)
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return oakerr.WritingXML(path, err)
	}
	return nil
}

// encodeProps flattens props into sorted prop elements, skipping
// reserved keys and empty values. Owned entries also skip the name key,
// which is carried by the enclosing tag.
func encodeProps(props Props, owned bool) []xmlProp {
	names := make([]string, 0, len(props))
	for name := range props {
		if name == KeyFile || name == KeyType {
			continue
		}
		if owned && name == "name" {
			continue
		}
		if props[name] == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]xmlProp, 0, len(names))
	for _, name := range names {
		out = append(out, xmlProp{Name: name, Value: props[name]})
	}
	return out
}

// Load reads the document and returns the requested subset of the
// top-level component's own properties. With no names it returns all
// of them. This is the lazy-read path for a top level's property gets.
func (c *Component) Load(names ...string) (Props, error) {
	doc, err := c.LoadDocument()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return doc.Mine, nil
	}
	result := make(Props)
	for _, name := range names {
		if value, ok := doc.Mine[name]; ok {
			result[name] = value
		}
	}
	return result, nil
}

// Store rejects partial writes: a component document can only be
// rewritten from a complete snapshot via StoreDocument.
func (c *Component) Store(props Props) error {
	return oakerr.WritingXML(c.path, errors.New("component documents require a full-document store"))
}

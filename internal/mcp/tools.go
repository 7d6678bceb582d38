package mcp

import (
	"fmt"
	"strings"

	"github.com/zot/oak/internal/component"
	"github.com/zot/oak/internal/filer"
	"github.com/zot/oak/internal/registry"
)

// Schema helper for building JSON schemas.
type Schema map[string]interface{}

// objectSchema creates an object schema.
func objectSchema(properties Schema, required []string) Schema {
	return Schema{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// stringProp creates a string property.
func stringProp(description string) Schema {
	return Schema{
		"type":        "string",
		"description": description,
	}
}

// objectProp creates an object property.
func objectProp(description string) Schema {
	return Schema{
		"type":        "object",
		"description": description,
	}
}

// RegisterComponentTools wires the component inspection surface over
// the given registry of live top levels.
func RegisterComponentTools(s *Server, reg *registry.Registry) {
	s.RegisterResource(&Resource{
		URI:         "oak://components",
		Name:        "Components",
		Description: "Names of the registered top-level components",
		Handler: func() (interface{}, error) {
			return reg.Names(), nil
		},
	})

	s.RegisterTool(&Tool{
		Name:        "tree",
		Description: "Describe a component tree: names, classnames, children",
		InputSchema: objectSchema(Schema{
			"component": stringProp("Registered top-level name"),
		}, []string{"component"}),
		Handler: func(args map[string]interface{}) (interface{}, error) {
			c, err := resolve(reg, args)
			if err != nil {
				return nil, err
			}
			return describe(c), nil
		},
	})

	s.RegisterTool(&Tool{
		Name:        "get",
		Description: "Read a property from a component or one of its descendants",
		InputSchema: objectSchema(Schema{
			"component": stringProp("Registered top-level name"),
			"child":     stringProp("Slash-separated child path (optional)"),
			"property":  stringProp("Property name"),
		}, []string{"component", "property"}),
		Handler: func(args map[string]interface{}) (interface{}, error) {
			c, err := resolve(reg, args)
			if err != nil {
				return nil, err
			}
			name, _ := args["property"].(string)
			return c.GetOne(name)
		},
	})

	s.RegisterTool(&Tool{
		Name:        "set",
		Description: "Set properties on a component or one of its descendants (memory-only until store_all)",
		InputSchema: objectSchema(Schema{
			"component":  stringProp("Registered top-level name"),
			"child":      stringProp("Slash-separated child path (optional)"),
			"properties": objectProp("Property name/value pairs"),
		}, []string{"component", "properties"}),
		Handler: func(args map[string]interface{}) (interface{}, error) {
			c, err := resolve(reg, args)
			if err != nil {
				return nil, err
			}
			raw, _ := args["properties"].(map[string]interface{})
			props := make(filer.Props, len(raw))
			for name, value := range raw {
				props[name] = fmt.Sprintf("%v", value)
			}
			if err := c.Set(props); err != nil {
				return nil, err
			}
			return "ok", nil
		},
	})

	s.RegisterTool(&Tool{
		Name:        "store_all",
		Description: "Commit a component tree to its backing document",
		InputSchema: objectSchema(Schema{
			"component": stringProp("Registered top-level name"),
		}, []string{"component"}),
		Handler: func(args map[string]interface{}) (interface{}, error) {
			c, err := resolve(reg, args)
			if err != nil {
				return nil, err
			}
			if err := c.StoreAll(); err != nil {
				return nil, err
			}
			return "ok", nil
		},
	})
}

// resolve finds the component the args address: the registered top
// level, optionally descended through a slash-separated child path.
func resolve(reg *registry.Registry, args map[string]interface{}) (*component.Component, error) {
	name, _ := args["component"].(string)
	c, ok := reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("no component registered as %q", name)
	}
	path, _ := args["child"].(string)
	if path == "" {
		return c, nil
	}
	for _, step := range strings.Split(path, "/") {
		child, err := c.GetChild(step)
		if err != nil {
			return nil, err
		}
		c = child
	}
	return c, nil
}

// describe renders a component subtree as plain data.
func describe(c *component.Component) map[string]interface{} {
	children := make(map[string]interface{})
	for _, name := range c.ChildNames() {
		child, err := c.GetChild(name)
		if err != nil {
			continue
		}
		children[name] = describe(child)
	}
	info := map[string]interface{}{
		"name":       c.Name(),
		"properties": c.Bag().Snapshot(),
	}
	if len(children) > 0 {
		info["children"] = children
	}
	return info
}

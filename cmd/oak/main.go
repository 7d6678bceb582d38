// Package main is the entry point for the oak component tool.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/zot/oak/internal/component"
	"github.com/zot/oak/internal/config"
	"github.com/zot/oak/internal/filer"
	"github.com/zot/oak/internal/mcp"
	"github.com/zot/oak/internal/registry"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "init":
		runInit(args)
	case "tree":
		runTree(args)
	case "get":
		runGet(args)
	case "set":
		runSet(args)
	case "store":
		runStore(args)
	case "db-get":
		runDBGet(args)
	case "db-set":
		runDBSet(args)
	case "serve-mcp":
		runServeMCP(args)
	case "help", "-h", "--help":
		printHelp()
	case "version", "-v", "--version":
		printVersion()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printHelp()
		os.Exit(1)
	}
}

// splitArgs separates flag-style args from positionals so commands can
// be written as "oak get -dir site doc.xml title" in any order.
func splitArgs(args []string) (flags, positional []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			if needsValue(arg) && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positional = append(positional, arg)
	}
	return flags, positional
}

func needsValue(flag string) bool {
	switch strings.TrimLeft(flag, "-") {
	case "dir", "storage", "storage-path", "storage-url", "storage-table", "storage-key", "log-level":
		return true
	}
	return false
}

// load restores a top-level component from a document path resolved
// against the configured documents directory.
func load(cfg *config.Config, doc string) (*component.Component, error) {
	if !filepath.IsAbs(doc) {
		doc = filepath.Join(cfg.Documents.Dir, doc)
	}
	return component.New(component.Options{
		File:      doc,
		Designing: cfg.Design.Enabled,
	})
}

func setup(flags []string) *config.Config {
	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runInit(args []string) {
	flags, positional := splitArgs(args)
	if len(positional) < 2 {
		log.Fatal("Usage: oak init <document> <name>")
	}
	cfg := setup(flags)

	doc := positional[0]
	if !filepath.IsAbs(doc) {
		doc = filepath.Join(cfg.Documents.Dir, doc)
	}
	err := filer.WriteDocument(doc, filer.Document{
		Mine: filer.Props{
			component.PropName:      positional[1],
			component.PropClassname: component.BaseClassname,
		},
	})
	if err != nil {
		log.Fatalf("Failed to create document: %v", err)
	}
	fmt.Printf("Created %s\n", doc)
}

func runTree(args []string) {
	flags, positional := splitArgs(args)
	if len(positional) < 1 {
		log.Fatal("Usage: oak tree <document>")
	}
	cfg := setup(flags)

	c, err := load(cfg, positional[0])
	if err != nil {
		log.Fatalf("Failed to restore component: %v", err)
	}
	printTree(c, 0)
}

func printTree(c *component.Component, depth int) {
	indent := strings.Repeat("  ", depth)
	classname, _ := c.Bag().Get(component.PropClassname)
	if classname == "" {
		classname = component.BaseClassname
	}
	fmt.Printf("%s%s (%s)\n", indent, c.Name(), classname)
	for _, name := range c.ChildNames() {
		if child, err := c.GetChild(name); err == nil {
			printTree(child, depth+1)
		}
	}
}

func runGet(args []string) {
	flags, positional := splitArgs(args)
	if len(positional) < 2 {
		log.Fatal("Usage: oak get <document> <property>...")
	}
	cfg := setup(flags)

	c, err := load(cfg, positional[0])
	if err != nil {
		log.Fatalf("Failed to restore component: %v", err)
	}
	values, err := c.Get(positional[1:]...)
	if err != nil {
		log.Fatalf("Failed to read properties: %v", err)
	}
	for i, name := range positional[1:] {
		fmt.Printf("%s=%s\n", name, values[i])
	}
}

func runSet(args []string) {
	flags, positional := splitArgs(args)
	if len(positional) < 2 {
		log.Fatal("Usage: oak set <document> <name>=<value>...")
	}
	cfg := setup(flags)

	c, err := load(cfg, positional[0])
	if err != nil {
		log.Fatalf("Failed to restore component: %v", err)
	}

	props := make(filer.Props)
	for _, assignment := range positional[1:] {
		name, value, ok := strings.Cut(assignment, "=")
		if !ok {
			log.Fatalf("Not a name=value assignment: %s", assignment)
		}
		props[name] = value
	}
	if err := c.Set(props); err != nil {
		log.Fatalf("Failed to set properties: %v", err)
	}
	if err := c.StoreAll(); err != nil {
		log.Fatalf("Failed to store document: %v", err)
	}
	if cfg.Verbosity() >= 1 {
		log.Printf("[v1] stored %d properties to %s", len(props), positional[0])
	}
}

func runStore(args []string) {
	flags, positional := splitArgs(args)
	if len(positional) < 1 {
		log.Fatal("Usage: oak store <document>")
	}
	cfg := setup(flags)

	c, err := load(cfg, positional[0])
	if err != nil {
		log.Fatalf("Failed to restore component: %v", err)
	}
	if err := c.StoreAll(); err != nil {
		log.Fatalf("Failed to store document: %v", err)
	}
}

// openRowFiler opens the configured database and binds a row filer to
// the row matching the key value.
func openRowFiler(cfg *config.Config, keyValue string) (*filer.Row, func(), error) {
	var db *sql.DB
	var placeholder filer.Placeholder
	var err error
	switch cfg.Storage.Type {
	case "sqlite":
		db, err = filer.OpenSQLite(cfg.Storage.Path)
		placeholder = filer.PlaceholderQuestion
	case "postgresql":
		db, err = filer.OpenPostgres(cfg.Storage.URL)
		placeholder = filer.PlaceholderDollar
	default:
		return nil, nil, fmt.Errorf("no relational storage configured (-storage sqlite|postgresql)")
	}
	if err != nil {
		return nil, nil, err
	}
	where := []filer.Cond{{Column: cfg.Storage.Key, Value: keyValue}}
	return filer.NewRow(db, cfg.Storage.Table, where, placeholder), func() { db.Close() }, nil
}

func runDBGet(args []string) {
	flags, positional := splitArgs(args)
	if len(positional) < 2 {
		log.Fatal("Usage: oak db-get <key> <field>...")
	}
	cfg := setup(flags)

	f, closeDB, err := openRowFiler(cfg, positional[0])
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeDB()

	props, err := f.Load(positional[1:]...)
	if err != nil {
		log.Fatalf("Failed to read row: %v", err)
	}
	for _, name := range positional[1:] {
		fmt.Printf("%s=%s\n", name, props[name])
	}
}

func runDBSet(args []string) {
	flags, positional := splitArgs(args)
	if len(positional) < 2 {
		log.Fatal("Usage: oak db-set <key> <name>=<value>...")
	}
	cfg := setup(flags)

	f, closeDB, err := openRowFiler(cfg, positional[0])
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeDB()

	props := make(filer.Props)
	for _, assignment := range positional[1:] {
		name, value, ok := strings.Cut(assignment, "=")
		if !ok {
			log.Fatalf("Not a name=value assignment: %s", assignment)
		}
		props[name] = value
	}
	if err := f.Store(props); err != nil {
		log.Fatalf("Failed to update row: %v", err)
	}
	if cfg.Verbosity() >= 1 {
		log.Printf("[v1] updated %d fields in %s", len(props), cfg.Storage.Table)
	}
}

func runServeMCP(args []string) {
	flags, positional := splitArgs(args)
	cfg := setup(flags)

	reg := registry.New()
	for _, doc := range positional {
		c, err := load(cfg, doc)
		if err != nil {
			log.Fatalf("Failed to restore component %s: %v", doc, err)
		}
		if err := reg.Register(c); err != nil {
			log.Fatalf("Failed to register component %s: %v", doc, err)
		}
	}

	server := mcp.NewServer(os.Stdin, os.Stdout)
	server.SetVerbosity(cfg.Verbosity())
	mcp.RegisterComponentTools(server, reg)
	if err := server.Serve(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}

func printHelp() {
	fmt.Println(`oak - component tree tool

Usage:
  oak init <document> <name>          Create a fresh component document
  oak tree <document>                 Print the component tree
  oak get <document> <property>...    Read properties of the top level
  oak set <document> <n>=<v>...       Set properties and store the document
  oak store <document>                Rewrite the document from its own contents
  oak db-get <key> <field>...         Read fields from the configured table row
  oak db-set <key> <n>=<v>...         Update fields of the configured table row
  oak serve-mcp <document>...         Serve the inspection protocol on stdio
  oak version                         Print the version
  oak help                            Show this help

Flags (any command):
  -dir <path>            Component document directory
  -design                Design mode: suppress event dispatch
  -storage <type>        Relational storage: none, sqlite, postgresql
  -storage-path <path>   SQLite database path
  -storage-url <url>     PostgreSQL connection URL
  -storage-table <name>  Table for db-get/db-set
  -storage-key <column>  Key column for db-get/db-set
  -v, -vv, -vvv          Verbosity`)
}

func printVersion() {
	fmt.Printf("oak %s\n", version)
}

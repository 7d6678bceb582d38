// Package config handles configuration loading from CLI flags,
// environment variables, and TOML files.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration settings for the oak tool.
type Config struct {
	Documents DocumentsConfig `toml:"documents"`
	Storage   StorageConfig   `toml:"storage"`
	Design    DesignConfig    `toml:"design"`
	Logging   LoggingConfig   `toml:"logging"`
}

// DocumentsConfig holds component-document settings.
type DocumentsConfig struct {
	Dir string `toml:"dir"` // Directory resolved against for relative document paths
}

// StorageConfig holds relational-filer settings.
type StorageConfig struct {
	Type  string `toml:"type"`  // "none", "sqlite", "postgresql"
	Path  string `toml:"path"`  // SQLite file path
	URL   string `toml:"url"`   // PostgreSQL connection URL
	Table string `toml:"table"` // Table row filers bind to
	Key   string `toml:"key"`   // Key column of the row predicate
}

// DesignConfig holds design-mode settings.
type DesignConfig struct {
	Enabled bool `toml:"enabled"` // Suppress event dispatch while editing trees
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level     string `toml:"level"`     // "debug", "info", "warn", "error"
	Verbosity int    `toml:"verbosity"` // 0=none, 1=operations, 2=properties, 3=values
}

// verbosityCounter implements flag.Value for counting -v flags.
type verbosityCounter int

func (v *verbosityCounter) String() string {
	return fmt.Sprintf("%d", *v)
}

func (v *verbosityCounter) Set(string) error {
	*v++
	return nil
}

func (v *verbosityCounter) IsBoolFlag() bool {
	return true
}

// expandVerbosityFlags preprocesses args to expand -vvv into -v -v -v.
// This allows both "-v -v -v" and "-vvv" styles to work.
func expandVerbosityFlags(args []string) []string {
	result := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' && arg[1] == 'v' {
			allV := true
			for _, c := range arg[1:] {
				if c != 'v' {
					allV = false
					break
				}
			}
			if allV {
				for range arg[1:] {
					result = append(result, "-v")
				}
				continue
			}
		}
		result = append(result, arg)
	}
	return result
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Documents: DocumentsConfig{
			Dir: ".",
		},
		Storage: StorageConfig{
			Type: "none",
			Path: "oak.db",
			Key:  "id",
		},
		Design: DesignConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Verbosity: 0,
		},
	}
}

// Load loads configuration from CLI flags, environment variables, and TOML file.
// Priority: CLI flags > env vars > TOML file > defaults
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	args = expandVerbosityFlags(args)

	fs := flag.NewFlagSet("oak", flag.ContinueOnError)
	dir := fs.String("dir", "", "Component document directory")

	storage := fs.String("storage", "", "Relational storage type: none, sqlite, postgresql")
	storagePath := fs.String("storage-path", "", "SQLite database path")
	storageURL := fs.String("storage-url", "", "PostgreSQL connection URL")
	storageTable := fs.String("storage-table", "", "Table for row filers")
	storageKey := fs.String("storage-key", "", "Key column for row filers")

	design := fs.Bool("design", false, "Design mode: suppress event dispatch")

	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	var verbosity verbosityCounter
	fs.Var(&verbosity, "v", "Verbosity level (use -v, -vv, or -vvv)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load TOML config if exists (from config/ subdirectory)
	configPath := "config/oak.toml"
	if *dir != "" {
		configPath = *dir + "/config/oak.toml"
	}
	if err := cfg.loadTOML(configPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()

	// Apply CLI flags (highest priority)
	if *dir != "" {
		cfg.Documents.Dir = *dir
	}
	if *storage != "" {
		cfg.Storage.Type = *storage
	}
	if *storagePath != "" {
		cfg.Storage.Path = *storagePath
	}
	if *storageURL != "" {
		cfg.Storage.URL = *storageURL
	}
	if *storageTable != "" {
		cfg.Storage.Table = *storageTable
	}
	if *storageKey != "" {
		cfg.Storage.Key = *storageKey
	}
	if *design {
		cfg.Design.Enabled = true
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if verbosity > 0 {
		cfg.Logging.Verbosity = int(verbosity)
	}

	return cfg, nil
}

// loadTOML loads configuration from a TOML file.
func (c *Config) loadTOML(path string) error {
	_, err := toml.DecodeFile(path, c)
	return err
}

// applyEnv applies environment variable overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("OAK_DIR"); v != "" {
		c.Documents.Dir = v
	}
	if v := os.Getenv("OAK_STORAGE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("OAK_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("OAK_STORAGE_URL"); v != "" {
		c.Storage.URL = v
	}
	if v := os.Getenv("OAK_STORAGE_TABLE"); v != "" {
		c.Storage.Table = v
	}
	if v := os.Getenv("OAK_STORAGE_KEY"); v != "" {
		c.Storage.Key = v
	}
	if v := os.Getenv("OAK_DESIGN"); v != "" {
		c.Design.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("OAK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("OAK_VERBOSITY"); v != "" {
		if verbosity, err := strconv.Atoi(v); err == nil {
			c.Logging.Verbosity = verbosity
		}
	}
}

// Verbosity returns the configured verbosity level (0-3).
func (c *Config) Verbosity() int {
	return c.Logging.Verbosity
}

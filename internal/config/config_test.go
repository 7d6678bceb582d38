package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaults verifies the zero-argument configuration.
func TestDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Documents.Dir != "." {
		t.Errorf("Expected default dir '.', got %q", cfg.Documents.Dir)
	}
	if cfg.Storage.Type != "none" {
		t.Errorf("Expected default storage 'none', got %q", cfg.Storage.Type)
	}
	if cfg.Storage.Key != "id" {
		t.Errorf("Expected default key 'id', got %q", cfg.Storage.Key)
	}
	if cfg.Design.Enabled {
		t.Error("Design mode must default off")
	}
	if cfg.Logging.Level != "info" || cfg.Verbosity() != 0 {
		t.Errorf("Unexpected logging defaults: %q / %d", cfg.Logging.Level, cfg.Verbosity())
	}
}

// TestFlags verifies CLI flags override the defaults.
func TestFlags(t *testing.T) {
	cfg, err := Load([]string{
		"-storage", "sqlite",
		"-storage-path", "/tmp/test.db",
		"-storage-table", "users",
		"-storage-key", "user_id",
		"-design",
		"-log-level", "debug",
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.Path != "/tmp/test.db" {
		t.Errorf("Storage flags not applied: %+v", cfg.Storage)
	}
	if cfg.Storage.Table != "users" || cfg.Storage.Key != "user_id" {
		t.Errorf("Row-filer flags not applied: %+v", cfg.Storage)
	}
	if !cfg.Design.Enabled {
		t.Error("Design flag not applied")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Log level flag not applied: %q", cfg.Logging.Level)
	}
}

// TestVerbosityCounting verifies -v accumulates in both spellings.
func TestVerbosityCounting(t *testing.T) {
	cfg, err := Load([]string{"-v", "-v"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Verbosity() != 2 {
		t.Errorf("Expected verbosity 2, got %d", cfg.Verbosity())
	}

	cfg, err = Load([]string{"-vvv"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Verbosity() != 3 {
		t.Errorf("Expected verbosity 3, got %d", cfg.Verbosity())
	}
}

// TestEnvOverrides verifies environment variables override defaults.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("OAK_STORAGE", "postgresql")
	t.Setenv("OAK_STORAGE_URL", "postgres://localhost/oak")
	t.Setenv("OAK_DESIGN", "1")
	t.Setenv("OAK_VERBOSITY", "2")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Type != "postgresql" || cfg.Storage.URL != "postgres://localhost/oak" {
		t.Errorf("Storage env not applied: %+v", cfg.Storage)
	}
	if !cfg.Design.Enabled {
		t.Error("Design env not applied")
	}
	if cfg.Verbosity() != 2 {
		t.Errorf("Verbosity env not applied: %d", cfg.Verbosity())
	}
}

// TestFlagsBeatEnv verifies CLI flags take priority over environment
// variables.
func TestFlagsBeatEnv(t *testing.T) {
	t.Setenv("OAK_STORAGE", "postgresql")

	cfg, err := Load([]string{"-storage", "sqlite"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("Expected flag to win, got %q", cfg.Storage.Type)
	}
}

// TestTOMLFile verifies values load from the config file under the
// document directory and flags still win.
func TestTOMLFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0755); err != nil {
		t.Fatal(err)
	}
	content := `
[storage]
type = "sqlite"
path = "from-toml.db"

[logging]
level = "warn"
verbosity = 1
`
	if err := os.WriteFile(filepath.Join(dir, "config", "oak.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load([]string{"-dir", dir})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Type != "sqlite" || cfg.Storage.Path != "from-toml.db" {
		t.Errorf("TOML values not applied: %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "warn" || cfg.Verbosity() != 1 {
		t.Errorf("TOML logging not applied: %q / %d", cfg.Logging.Level, cfg.Verbosity())
	}

	cfg, err = Load([]string{"-dir", dir, "-storage-path", "from-flag.db"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Path != "from-flag.db" {
		t.Errorf("Expected flag to beat TOML, got %q", cfg.Storage.Path)
	}
}

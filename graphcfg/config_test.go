package graphcfg

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadValidConfigDefaultsPoolSizeToMaxPassCount(t *testing.T) {
	path := writeConfigFile(t, `
version = "1"
name = "main-graph"
max_pass_count = 3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if cfg.Name != "main-graph" {
		t.Errorf("Name: got %q, want %q", cfg.Name, "main-graph")
	}
	if cfg.MaxPassCount != 3 {
		t.Errorf("MaxPassCount: got %d, want 3", cfg.MaxPassCount)
	}
	if cfg.DescriptorPoolSize != 3 {
		t.Errorf("DescriptorPoolSize: got %d, want it to default to max_pass_count (3)", cfg.DescriptorPoolSize)
	}
}

func TestLoadExplicitDescriptorPoolSizeOverridesDefault(t *testing.T) {
	path := writeConfigFile(t, `
name = "main-graph"
max_pass_count = 2
descriptor_pool_size = 16
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: unexpected error: %v", err)
	}
	if cfg.DescriptorPoolSize != 16 {
		t.Errorf("DescriptorPoolSize: got %d, want 16", cfg.DescriptorPoolSize)
	}
}

func TestLoadMissingNameFails(t *testing.T) {
	path := writeConfigFile(t, `
max_pass_count = 2
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected an error for a config missing the required name field")
	}
}

func TestLoadZeroMaxPassCountFails(t *testing.T) {
	path := writeConfigFile(t, `
name = "main-graph"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected an error for a config with max_pass_count = 0")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml")); err == nil {
		t.Fatal("Load: expected an error for a nonexistent file")
	}
}

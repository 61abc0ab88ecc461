package graphcfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchLoadsInitialConfigSynchronously(t *testing.T) {
	path := writeConfigFile(t, `
name = "watched-graph"
max_pass_count = 1
`)

	var got *Config
	w, err := Watch(path, func(cfg *Config) { got = cfg })
	if err != nil {
		t.Fatalf("Watch: unexpected error: %v", err)
	}
	defer w.Close()

	if got == nil {
		t.Fatal("Watch: expected onLoad to run synchronously before Watch returns")
	}
	if got.Name != "watched-graph" {
		t.Errorf("Name: got %q, want %q", got.Name, "watched-graph")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := writeConfigFile(t, `
name = "v1"
max_pass_count = 1
`)

	loads := make(chan *Config, 4)
	w, err := Watch(path, func(cfg *Config) { loads <- cfg })
	if err != nil {
		t.Fatalf("Watch: unexpected error: %v", err)
	}
	defer w.Close()

	<-loads // initial synchronous load

	if err := os.WriteFile(path, []byte("name = \"v2\"\nmax_pass_count = 1\n"), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	select {
	case cfg := <-loads:
		if cfg.Name != "v2" {
			t.Errorf("Name after reload: got %q, want %q", cfg.Name, "v2")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch: expected a reload after the watched file was rewritten")
	}
}

func TestWatchNonexistentFileFails(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "missing.toml")
	if _, err := Watch(bad, func(*Config) {}); err == nil {
		t.Fatal("Watch: expected an error for a nonexistent initial config file")
	}
}

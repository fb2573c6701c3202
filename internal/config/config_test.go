package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFrom(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil {
			t.Fatalf("LoadFrom() = %v, want nil", err)
		}
		if cfg.IntegrationBranch != "integration" {
			t.Errorf("IntegrationBranch = %q, want %q", cfg.IntegrationBranch, "integration")
		}
		if cfg.Color != "auto" {
			t.Errorf("Color = %q, want %q", cfg.Color, "auto")
		}
	})

	t.Run("full config", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "integration_branch = \"loom\"\nremote_type = \"gerrit\"\ncolor = \"never\"\n")
		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() = %v, want nil", err)
		}
		if cfg.IntegrationBranch != "loom" {
			t.Errorf("IntegrationBranch = %q, want %q", cfg.IntegrationBranch, "loom")
		}
		if cfg.RemoteType != "gerrit" {
			t.Errorf("RemoteType = %q, want %q", cfg.RemoteType, "gerrit")
		}
		if cfg.Color != "never" {
			t.Errorf("Color = %q, want %q", cfg.Color, "never")
		}
	})

	t.Run("invalid remote type", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "remote_type = \"svn\"\n")
		if _, err := LoadFrom(path); err == nil {
			t.Error("LoadFrom() = nil, want error for invalid remote_type")
		}
	})

	t.Run("invalid toml", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "integration_branch = [\n")
		if _, err := LoadFrom(path); err == nil {
			t.Error("LoadFrom() = nil, want error for invalid toml")
		}
	})

	t.Run("empty branch name falls back to default", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "integration_branch = \"\"\n")
		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() = %v, want nil", err)
		}
		if cfg.IntegrationBranch != "integration" {
			t.Errorf("IntegrationBranch = %q, want %q", cfg.IntegrationBranch, "integration")
		}
	})
}

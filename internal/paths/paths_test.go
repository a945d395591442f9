// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigPathsRespectsEnvOverride(t *testing.T) {
	t.Setenv(configEnvVar, "/custom/path.toml")
	got := DefaultConfigPaths()
	if len(got) != 1 || got[0] != "/custom/path.toml" {
		t.Errorf("DefaultConfigPaths() = %v, want [/custom/path.toml]", got)
	}
}

func TestDefaultConfigPathsFallsBackToHome(t *testing.T) {
	t.Setenv(configEnvVar, "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	got := DefaultConfigPaths()
	want := []string{
		filepath.Join(home, ".h2sr", "config.toml"),
		filepath.Join(home, ".h2sr.toml"),
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("DefaultConfigPaths() = %v, want %v", got, want)
	}
}

func TestResolveConfigPathPrefersExisting(t *testing.T) {
	t.Setenv(configEnvVar, "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	flat := filepath.Join(home, ".h2sr.toml")
	if err := os.WriteFile(flat, []byte(""), 0o600); err != nil {
		t.Fatal(err)
	}

	path, found := ResolveConfigPath()
	if !found {
		t.Fatal("expected ResolveConfigPath to find the flat file")
	}
	if path != flat {
		t.Errorf("path = %q, want %q", path, flat)
	}
}

// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package paths resolves h2sr's default configuration file location,
// adapted from the teacher's install-path resolution (env var override,
// then a user-scoped default) but scoped down to the single file this
// proxy needs instead of a whole directory tree.
package paths

import (
	"os"
	"path/filepath"
)

const configEnvVar = "H2SR_CONFIG"

// DefaultConfigPaths returns the candidate configuration file paths, in
// the order h2sr should try them: an explicit H2SR_CONFIG override
// first, then $HOME/.h2sr/config.toml, then the flatter
// $HOME/.h2sr.toml.
func DefaultConfigPaths() []string {
	if override := os.Getenv(configEnvVar); override != "" {
		return []string{override}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".h2sr", "config.toml"),
		filepath.Join(home, ".h2sr.toml"),
	}
}

// ResolveConfigPath returns the first candidate from DefaultConfigPaths
// that exists on disk, or the first candidate if none do (so callers
// get a sensible path in their "file not found" error).
func ResolveConfigPath() (string, bool) {
	candidates := DefaultConfigPaths()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	if len(candidates) > 0 {
		return candidates[0], false
	}
	return "", false
}

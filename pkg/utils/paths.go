package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appDir = "daybook"

// DefaultDBPath returns the per-OS location of the journal database.
func DefaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "daybook.db"
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", appDir, "daybook.db")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDir, "daybook.db")
	default: // Linux and other UNIX-like systems.
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, appDir, "daybook.db")
		}
		return filepath.Join(homeDir, ".local", "share", appDir, "daybook.db")
	}
}

// DefaultConfigDir is where config.yaml is looked up when no --config is given.
func DefaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, appDir)
}

// IsMemoryPath reports whether path names an in-memory SQLite database.
func IsMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return filepath.Join(home, rest), nil
}

// ResolveAndEnsureDBPath turns path (DefaultDBPath when empty) into an
// absolute location and creates its directory. In-memory paths are returned
// unchanged.
func ResolveAndEnsureDBPath(path string) (string, error) {
	if path == "" {
		path = DefaultDBPath()
	}
	if IsMemoryPath(path) {
		return path, nil
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve database path %q: %w", expanded, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("create database directory: %w", err)
	}
	return abs, nil
}

// Package paths resolves the configuration and data directories for the
// tapestry CLI, following platform conventions.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDirName is the per-application directory created under the
// platform config and data roots.
const appDirName = "tapestry"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "TAPESTRY_CONFIG_DIR"
	EnvDataDir   = "TAPESTRY_DATA_DIR"
)

// DefaultConfigDir returns the platform default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/tapestry (fallback ~/.config/tapestry)
// macOS:   ~/Library/Application Support/tapestry
// Windows: %APPDATA%/tapestry
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}

// DefaultDataDir returns the platform default data directory. The local
// backend keeps its database here when nothing overrides it; instances
// are durable state, not project files, so no CWD-relative mode exists.
//
// Linux:   $XDG_DATA_HOME/tapestry (fallback ~/.local/share/tapestry)
// macOS:   ~/Library/Application Support/tapestry
// Windows: %APPDATA%/tapestry
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	// macOS and Windows keep config and data together under
	// os.UserConfigDir.
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}

// xdgDir resolves an XDG base directory, falling back to the
// conventional location under the home directory when the variable is
// unset.
func xdgDir(envVar, homeRelative string) (string, error) {
	if xdg := os.Getenv(envVar); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRelative, appDirName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > TAPESTRY_CONFIG_DIR env > DefaultConfigDir.
// Relative overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence
// chain: flag > config.yaml value > TAPESTRY_DATA_DIR env >
// DefaultDataDir. Relative overrides are made absolute.
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

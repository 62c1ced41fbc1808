// Package xdg provides XDG Base Directory paths for esplugin.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "esplugin"

// ConfigDir returns the XDG config directory for esplugin.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default configuration file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ManifestFile returns the default desired-state manifest path.
func ManifestFile() string {
	return filepath.Join(ConfigDir(), "plugins.yaml")
}

// Package xdg resolves the per-application directories bookr reads and
// writes. Each directory honours the matching XDG_* variable and falls back
// to the conventional location under the user's home directory.
package xdg

import (
	"os"
	"path/filepath"
)

// App is the directory name used under every base directory.
const App = "bookr"

// ConfigDir returns $XDG_CONFIG_HOME/bookr or ~/.config/bookr.
func ConfigDir() (string, error) {
	return appDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns $XDG_DATA_HOME/bookr or ~/.local/share/bookr.
func DataDir() (string, error) {
	return appDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// CacheDir returns $XDG_CACHE_HOME/bookr or ~/.cache/bookr.
func CacheDir() (string, error) {
	return appDir("XDG_CACHE_HOME", ".cache")
}

// ConfigFile returns the path of config.json inside ConfigDir.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func appDir(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, App), nil
}

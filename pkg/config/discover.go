package config

import (
	"os"
	"path/filepath"
)

const configRelPath = ".arbor/config.yaml"

// Discover walks up from the current directory looking for
// .arbor/config.yaml, stopping at the home directory. A missing file is
// not an error (defaults apply); a malformed one is.
func Discover() (Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return Default(), "", nil
	}
	path, ok := FindConfig(dir)
	if !ok {
		return Default(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return Default(), path, err
	}
	return cfg, path, nil
}

// FindConfig walks up from dir looking for the config file.
func FindConfig(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		path := filepath.Join(dir, configRelPath)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

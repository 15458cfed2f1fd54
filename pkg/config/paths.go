package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFile is the config file name looked up when none is given.
const DefaultFile = "hermes.yaml"

// ConfigDir returns the path to the hermes config directory (~/.hermes).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".hermes"), nil
}

// DefaultPath returns the path of name inside the config directory.
// If name is already an absolute path, it returns it as-is.
func DefaultPath(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// Resolve loads the config for a binary. An explicit path must exist.
// Without one, ~/.hermes/hermes.yaml is used when present, otherwise the
// defaults. Environment overrides are applied last.
func Resolve(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch {
	case path != "":
		cfg, err = Load(path)
	default:
		cfg = DefaultConfig()
		if p, perr := DefaultPath(DefaultFile); perr == nil {
			if _, serr := os.Stat(p); serr == nil {
				cfg, err = Load(p)
			}
		}
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

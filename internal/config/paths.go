package config

import (
	"os"
	"path/filepath"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// DefaultDataDir returns ~/.neuroscope, or ./data when the home directory is unknown.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "data"
	}
	return filepath.Join(homeDir, ".neuroscope")
}

// ValuesDBPath returns the path to the sealed values database.
func ValuesDBPath(cfg domain.StorageConfig) string {
	return filepath.Join(cfg.DataDir, "values.db")
}

// KeysDBPath returns the path to the master key database.
func KeysDBPath(cfg domain.StorageConfig) string {
	return filepath.Join(cfg.DataDir, "keys.db")
}

// EnsureDataDir creates the data directory if it doesn't exist. Only the owner may
// read it.
func EnsureDataDir(cfg domain.StorageConfig) error {
	return os.MkdirAll(cfg.DataDir, 0700)
}

package config

import (
	"os"
	"path/filepath"
)

// Paths contains the on-disk layout for a fleet installation.
type Paths struct {
	Home         string // Fleet home directory (~/.fleet)
	ConfigFile   string // Optional YAML configuration file
	RegistryFile string // JSON registry document (file backend)
	RegistryDB   string // SQLite registry database (sqlite backend)
	LogsDir      string // Extracted log bundles
}

// GetPaths returns the default path layout under the fleet home directory.
func GetPaths() Paths {
	home := GetFleetHome()
	return Paths{
		Home:         home,
		ConfigFile:   filepath.Join(home, "config.yaml"),
		RegistryFile: filepath.Join(home, "servers.json"),
		RegistryDB:   filepath.Join(home, "registry.db"),
		LogsDir:      filepath.Join(home, "logs"),
	}
}

// GetFleetHome returns the fleet home directory (~/.fleet).
func GetFleetHome() string {
	if custom := os.Getenv("FLEET_HOME"); custom != "" {
		return ExpandPath(custom)
	}
	userHome, _ := os.UserHomeDir()
	return filepath.Join(userHome, ".fleet")
}

// ExpandPath expands ~ to the user home directory.
func ExpandPath(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) == 1 {
			return home
		}
		if path[1] == '/' || path[1] == os.PathSeparator {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// EnsureDirs creates the fleet directory structure if it does not exist.
func EnsureDirs() (Paths, error) {
	paths := GetPaths()
	for _, dir := range []string{paths.Home, paths.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, err
		}
	}
	return paths, nil
}

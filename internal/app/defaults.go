package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - MB_CONFIG_PATH: config file location (default: ~/.config/mb.toml)
//   - MB_HOME: base directory for mb data (default: ~/.local/share/mb)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"state_dir":   filepath.Join(baseDir, "state"),
	}, nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv("MB_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "mb.toml"), nil
}

// getBaseDir returns the base directory for mb data, checking MB_HOME first,
// then falling back to the XDG default ~/.local/share/mb.
func getBaseDir() (string, error) {
	if path := os.Getenv("MB_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "mb"), nil
}

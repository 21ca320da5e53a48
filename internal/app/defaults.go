package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - IDE_CONFIG_PATH: config file location (default: ~/.config/ide.toml)
//   - IDE_HOME: base directory for ide data (default: ~/.local/share/ide)
//
// Everything the server writes lives under IDE_HOME: repo_path holds one
// directory per team with its master and per-user working copies, log_dir
// holds ide.log, and the sqlite audit database sits in base_dir/db.
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
		"repo_path":   filepath.Join(baseDir, "repos"),
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking IDE_CONFIG_PATH env var first,
// then falling back to the default ~/.config/ide.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("IDE_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "ide.toml"), nil
}

// getBaseDir returns the base directory for ide data, checking IDE_HOME env var first,
// then falling back to the XDG default ~/.local/share/ide.
func getBaseDir() (string, error) {
	if path := os.Getenv("IDE_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "ide"), nil
}

package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("IDE_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("IDE_HOME", "/custom/ide")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/config.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/config.toml")
		}
		if defaults["base_dir"] != "/custom/ide" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/ide")
		}
		if defaults["log_dir"] != "/custom/ide/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/ide/log")
		}
		if defaults["repo_path"] != "/custom/ide/repos" {
			t.Errorf("repo_path = %q, want %q", defaults["repo_path"], "/custom/ide/repos")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("IDE_CONFIG_PATH", "")
		t.Setenv("IDE_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "ide.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "ide")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}

		wantLog := filepath.Join(wantBase, "log")
		if defaults["log_dir"] != wantLog {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], wantLog)
		}
	})
}

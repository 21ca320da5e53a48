package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testConfig(baseDir string) *Config {
	cfg := NewConfig(baseDir)
	cfg.Workspace.Hide = []string{"*.pyc", "__pycache__"}
	cfg.Lint = LintConfig{Type: "pylint", PylintPath: "/usr/bin/pylint", Timeout: NewDuration(5 * time.Second)}
	cfg.Users = []UserConfig{
		{
			Name:         "alice",
			DisplayName:  "Alice Liddell",
			Email:        "alice@example.com",
			PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
			Teams:        []string{"alpha", "beta"},
			WriteTeams:   []string{"alpha"},
		},
	}
	return cfg
}

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := testConfig("/srv/ide")
	m := &Manager{}

	check := func(t *testing.T, got *Config) {
		t.Helper()
		if got.RepoPath != "/srv/ide/repos" {
			t.Errorf("RepoPath = %q, want %q", got.RepoPath, "/srv/ide/repos")
		}
		if got.Server.ReadTimeout.Duration != DefaultHTTPTimeout {
			t.Errorf("Server.ReadTimeout = %v, want %v", got.Server.ReadTimeout, DefaultHTTPTimeout)
		}
		if got.VCS.DefaultBranch != "master" {
			t.Errorf("VCS.DefaultBranch = %q, want %q", got.VCS.DefaultBranch, "master")
		}
		if got.Lint.Timeout.Duration != 5*time.Second {
			t.Errorf("Lint.Timeout = %v, want 5s", got.Lint.Timeout)
		}
		if len(got.Workspace.Hide) != 2 {
			t.Errorf("len(Workspace.Hide) = %d, want 2", len(got.Workspace.Hide))
		}
		if len(got.Users) != 1 {
			t.Fatalf("len(Users) = %d, want 1", len(got.Users))
		}
		u := got.Users[0]
		if u.Name != "alice" || u.Email != "alice@example.com" {
			t.Errorf("Users[0] = %+v", u)
		}
		if len(u.WriteTeams) != 1 || u.WriteTeams[0] != "alpha" {
			t.Errorf("Users[0].WriteTeams = %v, want [alpha]", u.WriteTeams)
		}
	}

	t.Run("toml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := m.Write(&buf, original); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(buf.String(), `timeout = "30s"`) {
			t.Errorf("durations should be written as strings, got:\n%s", buf.String())
		}
		got, err := m.Read(&buf)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		check(t, got)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := m.WriteYAML(&buf, original); err != nil {
			t.Fatalf("WriteYAML() error = %v", err)
		}
		got, err := m.ReadYAML(&buf)
		if err != nil {
			t.Fatalf("ReadYAML() error = %v", err)
		}
		check(t, got)
	})
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/ide")

	if cfg.RepoPath != "/data/ide/repos" {
		t.Errorf("RepoPath = %q, want %q", cfg.RepoPath, "/data/ide/repos")
	}
	if cfg.LogDir != "/data/ide/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/ide/log")
	}
	if cfg.Database.DataDir != "/data/ide/db" {
		t.Errorf("Database.DataDir = %q, want %q", cfg.Database.DataDir, "/data/ide/db")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"missing repo_path", func(c *Config) { c.RepoPath = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad lint type", func(c *Config) { c.Lint.Type = "eslint" }},
		{"user without name", func(c *Config) { c.Users = append(c.Users, UserConfig{PasswordHash: "x"}) }},
		{"user without hash", func(c *Config) { c.Users = append(c.Users, UserConfig{Name: "bob"}) }},
		{"control character in display name", func(c *Config) {
			c.Users = append(c.Users, UserConfig{Name: "bob", PasswordHash: "x", DisplayName: "Bob\x1fBuilder"})
		}},
		{"newline in email", func(c *Config) {
			c.Users = append(c.Users, UserConfig{Name: "bob", PasswordHash: "x", Email: "bob@example.com\n"})
		}},
		{"duplicate user", func(c *Config) {
			c.Users = append(c.Users, UserConfig{Name: "ALICE", PasswordHash: "x"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t.TempDir())
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error")
			}
		})
	}
}

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	t.Setenv("IDE_REPO_PATH", "/override/repos")
	t.Setenv("IDE_LISTEN", ":9999")
	t.Setenv("IDE_LOG_LEVEL", "debug")

	cfg := NewConfig("/data/ide")
	cfg.ApplyEnvOverrides()

	if cfg.RepoPath != "/override/repos" {
		t.Errorf("RepoPath = %q, want %q", cfg.RepoPath, "/override/repos")
	}
	if cfg.Server.Listen != ":9999" {
		t.Errorf("Server.Listen = %q, want %q", cfg.Server.Listen, ":9999")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestConfig_FindUser(t *testing.T) {
	cfg := testConfig("/data/ide")

	if u := cfg.FindUser("Alice"); u == nil || u.Name != "alice" {
		t.Errorf("FindUser(Alice) = %v, want alice", u)
	}
	if u := cfg.FindUser("bob"); u != nil {
		t.Errorf("FindUser(bob) = %v, want nil", u)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ide.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ide.toml")

		if err := Init(path, NewConfig(dir)); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, NewConfig(dir)); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	for _, name := range []string{"ide.toml", "ide.yaml"} {
		t.Run("reads "+name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, name)
			cfg := testConfig(dir)
			cfg.Database = DatabaseConfig{Type: "memory"}

			if err := Init(path, cfg); err != nil {
				t.Fatalf("Init() error = %v", err)
			}
			got, err := ReadFromFile(path)
			if err != nil {
				t.Fatalf("ReadFromFile() error = %v", err)
			}
			if got.Database.Type != "memory" {
				t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
			}
			if got.FindUser("alice") == nil {
				t.Error("user alice missing after round trip")
			}
		})
	}

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/ide.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ide.toml")
	cfg := testConfig(dir)
	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan *Config, 4)
	if err := Watch(ctx, path, func(c *Config) { changed <- c }, nil); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	cfg.Users = append(cfg.Users, UserConfig{Name: "bob", PasswordHash: "x", Teams: []string{"alpha"}})
	if err := WriteToFile(path, cfg); err != nil {
		t.Fatalf("WriteToFile() error = %v", err)
	}

	select {
	case got := <-changed:
		if got.FindUser("bob") == nil {
			t.Error("reloaded config is missing user bob")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

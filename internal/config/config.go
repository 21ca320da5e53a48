package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration for the ide server.
type Config struct {
	BaseDir   string          `toml:"base_dir" yaml:"base_dir"`
	RepoPath  string          `toml:"repo_path" yaml:"repo_path"`
	LogDir    string          `toml:"log_dir" yaml:"log_dir"`
	LogLevel  string          `toml:"log_level" yaml:"log_level"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
	VCS       VCSConfig       `toml:"vcs" yaml:"vcs"`
	Workspace WorkspaceConfig `toml:"workspace" yaml:"workspace"`
	Lint      LintConfig      `toml:"lint" yaml:"lint"`
	Database  DatabaseConfig  `toml:"database" yaml:"database"`
	Users     []UserConfig    `toml:"users" yaml:"users"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Listen       string   `toml:"listen" yaml:"listen"`
	ReadTimeout  Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout" yaml:"write_timeout"`
}

// VCSConfig controls how the git binary is invoked and who authors the root
// commit of new projects.
type VCSConfig struct {
	Binary        string   `toml:"binary" yaml:"binary"`
	Timeout       Duration `toml:"timeout" yaml:"timeout"`
	DefaultBranch string   `toml:"default_branch" yaml:"default_branch"`
	SystemName    string   `toml:"system_name" yaml:"system_name"`
	SystemEmail   string   `toml:"system_email" yaml:"system_email"`
}

// WorkspaceConfig holds workspace-wide settings.
type WorkspaceConfig struct {
	// Hide lists extra glob patterns excluded from listings and trees.
	Hide []string `toml:"hide" yaml:"hide"`
}

// LintConfig selects the lint backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type LintConfig struct {
	Type       string   `toml:"type" yaml:"type"`                                   // "none" or "pylint"
	PylintPath string   `toml:"pylint_path,omitempty" yaml:"pylint_path,omitempty"` // only used for type=pylint
	PylintDir  string   `toml:"pylint_dir,omitempty" yaml:"pylint_dir,omitempty"`   // PYLINTHOME; only used for type=pylint
	Timeout    Duration `toml:"timeout" yaml:"timeout"`
}

// DatabaseConfig represents configuration for the audit database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type" yaml:"type"`                             // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty" yaml:"data_dir,omitempty"` // only used for type=sqlite
}

// UserConfig is one entry of the static user table.
type UserConfig struct {
	Name         string   `toml:"name" yaml:"name"`
	DisplayName  string   `toml:"display_name,omitempty" yaml:"display_name,omitempty"`
	Email        string   `toml:"email,omitempty" yaml:"email,omitempty"`
	PasswordHash string   `toml:"password_hash" yaml:"password_hash"`
	Teams        []string `toml:"teams" yaml:"teams"`
	WriteTeams   []string `toml:"write_teams" yaml:"write_teams"`
}

// NewConfig creates a Config rooted at baseDir with default settings.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		RepoPath: filepath.Join(baseDir, "repos"),
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Server: ServerConfig{
			Listen:       "127.0.0.1:8080",
			ReadTimeout:  NewDuration(DefaultHTTPTimeout),
			WriteTimeout: NewDuration(DefaultHTTPTimeout),
		},
		VCS: VCSConfig{
			Binary:        "git",
			Timeout:       NewDuration(DefaultVCSTimeout),
			DefaultBranch: "master",
			SystemName:    "IDE",
			SystemEmail:   "ide@localhost",
		},
		Workspace: WorkspaceConfig{Hide: []string{}},
		Lint: LintConfig{
			Type:    "none",
			Timeout: NewDuration(DefaultLintTimeout),
		},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.RepoPath == "" {
		return fmt.Errorf("repo_path is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level: %s", c.LogLevel)
	}
	switch c.Lint.Type {
	case "", "none", "pylint":
	default:
		return fmt.Errorf("unknown lint type: %s", c.Lint.Type)
	}

	seen := make(map[string]struct{}, len(c.Users))
	for i, u := range c.Users {
		name := strings.ToLower(u.Name)
		if name == "" {
			return fmt.Errorf("users[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("users[%d]: duplicate user %s", i, name)
		}
		seen[name] = struct{}{}
		if u.PasswordHash == "" {
			return fmt.Errorf("users[%d] %s: password_hash is required", i, name)
		}
		for field, v := range map[string]string{"name": u.Name, "display_name": u.DisplayName, "email": u.Email} {
			if strings.ContainsFunc(v, unicode.IsControl) {
				return fmt.Errorf("users[%d] %s: %s contains control characters", i, name, field)
			}
		}
	}
	return nil
}

// ApplyEnvOverrides applies IDE_* environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("IDE_REPO_PATH"); v != "" {
		c.RepoPath = v
	}
	if v := os.Getenv("IDE_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("IDE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a TOML Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// ReadYAML decodes a YAML Config from the provided reader.
func (m *Manager) ReadYAML(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config as TOML to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// WriteYAML encodes a Config as YAML to the provided writer.
func (m *Manager) WriteYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// isYAML reports whether path should be treated as a YAML config file.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ReadFromFile reads a Config from path, choosing TOML or YAML by extension.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	var cfg *Config
	if isYAML(path) {
		cfg, err = m.ReadYAML(f)
	} else {
		cfg, err = m.Read(f)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := ReadFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteToFile replaces the config file at path.
func WriteToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if isYAML(path) {
		err = m.WriteYAML(f, cfg)
	} else {
		err = m.Write(f, cfg)
	}
	if err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes a new config file, refusing to overwrite an existing one.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := WriteToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}

// FindUser returns the user entry with the given (case-insensitive) name.
func (c *Config) FindUser(name string) *UserConfig {
	for i := range c.Users {
		if strings.EqualFold(c.Users[i].Name, name) {
			return &c.Users[i]
		}
	}
	return nil
}

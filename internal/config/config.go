// Package config handles loading and validating jira-issue-editor configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/containeroo/resolver"
	"gopkg.in/yaml.v3"
)

// Defaults applied to unset editor and log settings.
const (
	DefaultDebounce       = "100ms"
	DefaultRequestTimeout = "30s"
	DefaultLogFile        = "jira-issue-editor.log"
	DefaultLogFormat      = "text"
)

// Config holds the application configuration.
type Config struct {
	Jira   JiraConfig   `yaml:"jira"`
	Editor EditorConfig `yaml:"editor"`
	Log    LogConfig    `yaml:"log"`
}

// JiraConfig holds Jira-specific configuration.
// Connection details live in config.yaml; credentials live in a separate
// secrets.yaml file that is gitignored.
type JiraConfig struct {
	BaseURL        string `yaml:"base_url"`
	Email          string `yaml:"email"`
	APIToken       string `yaml:"api_token"` // loaded from secrets file, not config
	DefaultProject string `yaml:"default_project,omitempty"`
}

// EditorConfig tunes the issue form.
type EditorConfig struct {
	Debounce       string   `yaml:"debounce"`
	RequestTimeout string   `yaml:"request_timeout"`
	RichText       bool     `yaml:"rich_text"`
	EpicIssueTypes []string `yaml:"epic_issue_types"`
	// Display overrides read-only field templates, keyed by format
	// (text, relativeDate, icon, lozenge, avatar).
	Display map[string]string `yaml:"display,omitempty"`
}

// LogConfig controls the log file. The terminal belongs to the UI, so logs
// never go to stdout.
type LogConfig struct {
	File   string `yaml:"file"`
	Format string `yaml:"format"`
	Debug  bool   `yaml:"debug"`
}

// SecretsConfig holds sensitive credentials loaded from a separate file.
type SecretsConfig struct {
	Jira JiraSecrets `yaml:"jira"`
}

// JiraSecrets holds the Jira credentials. Values may be references such as
// "env:JIRA_TOKEN" or "file:/run/secrets/jira".
type JiraSecrets struct {
	Email    string `yaml:"email"`
	APIToken string `yaml:"api_token"`
}

// DebounceDuration returns the parsed debounce window.
func (e EditorConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(e.Debounce)
	return d
}

// RequestTimeoutDuration returns the parsed request timeout.
func (e EditorConfig) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(e.RequestTimeout)
	return d
}

// DefaultConfigDir returns the .jira-issue-editor directory next to the executable.
func DefaultConfigDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("finding executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving executable symlinks: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), ".jira-issue-editor"), nil
}

// ConfigPath returns the config file path inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, "config.yaml")
}

// SecretsPath returns the secrets file path inside dir.
func SecretsPath(dir string) string {
	return filepath.Join(dir, "secrets.yaml")
}

// LoadDir loads config.yaml and secrets.yaml from dir. A relative log file
// is placed in dir.
func LoadDir(dir string) (*Config, error) {
	cfg, err := Load(ConfigPath(dir), SecretsPath(dir))
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.Log.File) {
		cfg.Log.File = filepath.Join(dir, cfg.Log.File)
	}
	return cfg, nil
}

// Load reads and parses the config and secrets files.
// configPath is the path to config.yaml, secretsPath is the path to secrets.yaml.
func Load(configPath, secretsPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	secretsData, err := os.ReadFile(secretsPath)
	if err != nil {
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(secretsData, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}

	if cfg.Jira.Email, err = resolveSecret("jira.email", secrets.Jira.Email); err != nil {
		return nil, err
	}
	if cfg.Jira.APIToken, err = resolveSecret("jira.api_token", secrets.Jira.APIToken); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func resolveSecret(path, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	resolved, err := resolver.ResolveVariable(value)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return resolved, nil
}

func (c *Config) applyDefaults() {
	if c.Editor.Debounce == "" {
		c.Editor.Debounce = DefaultDebounce
	}
	if c.Editor.RequestTimeout == "" {
		c.Editor.RequestTimeout = DefaultRequestTimeout
	}
	if c.Editor.EpicIssueTypes == nil {
		c.Editor.EpicIssueTypes = []string{"Epic"}
	}
	if c.Log.File == "" {
		c.Log.File = DefaultLogFile
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// Validate checks that all required config fields are set.
func (c *Config) Validate() error {
	if c.Jira.BaseURL == "" {
		return fmt.Errorf("jira.base_url is required")
	}
	if c.Jira.Email == "" {
		return fmt.Errorf("jira.email is required")
	}
	if c.Jira.APIToken == "" {
		return fmt.Errorf("jira.api_token is required")
	}
	if err := positiveDuration("editor.debounce", c.Editor.Debounce); err != nil {
		return err
	}
	if err := positiveDuration("editor.request_timeout", c.Editor.RequestTimeout); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func positiveDuration(path, s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", path)
	}
	return nil
}

// Package config handles the configuration directory, config file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "followup"

	// ConfigFile is the optional YAML settings filename.
	ConfigFile = "config.yaml"

	// TokenFile is the stored API token filename.
	TokenFile = "token"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "FOLLOWUP_"
)

// Defaults.
const (
	DefaultBaseURL     = "https://api.todoist.com/sync/v9"
	DefaultListenAddr  = ":8080"
	DefaultWebhookPath = "/webhookEvent"
	DefaultLabel       = "follow-up"
	DefaultAPITimeout  = 5 * time.Second
	DefaultLogLevel    = "info"
)

// ErrNoToken is returned by Validate when no API token is configured.
var ErrNoToken = errors.New("no API token configured")

// Config holds configuration paths and settings.
// Values are layered: defaults, then config.yaml, then the stored token file,
// then FOLLOWUP_* environment variables.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `yaml:"-"`

	// APIToken is the bearer credential for the to-do service.
	APIToken string `yaml:"api_token" env:"API_TOKEN"`

	// BaseURL is the root of the sync API.
	BaseURL string `yaml:"base_url" env:"BASE_URL"`

	// ListenAddr is the webhook server address.
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR"`

	// WebhookPath is the route that receives events.
	WebhookPath string `yaml:"webhook_path" env:"WEBHOOK_PATH"`

	// Label marks follow-up tasks.
	Label string `yaml:"label" env:"LABEL"`

	// APITimeout bounds each outbound API call.
	APITimeout time.Duration `yaml:"api_timeout" env:"API_TIMEOUT"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFile  string `yaml:"log_file" env:"LOG_FILE"`

	// Debug enables debug logging.
	Debug bool `yaml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `yaml:"-"`
}

// New creates a Config with defaults and the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/followup or $HOME/.config/followup.
func New(configDir string) *Config {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:         dir,
		BaseURL:     DefaultBaseURL,
		ListenAddr:  DefaultListenAddr,
		WebhookPath: DefaultWebhookPath,
		Label:       DefaultLabel,
		APITimeout:  DefaultAPITimeout,
		LogLevel:    DefaultLogLevel,
	}
}

// Load builds a Config from defaults, the config file, the token file and the environment.
// Missing files are not an error.
func Load(configDir string) (*Config, error) {
	cfg := New(configDir)

	data, err := os.ReadFile(cfg.ConfigPath())
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}

	token, err := os.ReadFile(cfg.TokenPath())
	switch {
	case err == nil:
		if t := strings.TrimSpace(string(token)); t != "" {
			cfg.APIToken = t
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings needed to talk to the API.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return ErrNoToken
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive, got %s", c.APITimeout)
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the path to the YAML settings file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// TokenPath returns the path to the stored API token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// SaveToken writes the token file with mode 0600.
func (c *Config) SaveToken(token string) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath(), []byte(strings.TrimSpace(token)+"\n"), 0600)
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

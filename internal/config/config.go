package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ajramos/giznotion/internal/accounts"
	"gopkg.in/yaml.v3"
)

const appName = "giznotion"

// OAuthConfig holds the public integration credentials used for the consent flow
type OAuthConfig struct {
	ClientID     string `json:"client_id,omitempty" yaml:"client_id,omitempty" env:"GIZNOTION_CLIENT_ID"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty" env:"GIZNOTION_CLIENT_SECRET"`
	// TokenDir stores one token file per account (empty = default)
	TokenDir string `json:"token_dir,omitempty" yaml:"token_dir,omitempty" env:"GIZNOTION_TOKEN_DIR"`
}

// Config holds all configuration for giznotion
type Config struct {
	// AuthType is "oauth" (one or two accounts) or "internal" (integration secret)
	AuthType string `json:"auth_type" yaml:"auth_type" env:"GIZNOTION_AUTH_TYPE"`
	// Token is the internal integration secret
	Token         string `json:"token,omitempty" yaml:"token,omitempty" env:"GIZNOTION_TOKEN"`
	Account1Label string `json:"account_1_label" yaml:"account_1_label" env:"GIZNOTION_ACCOUNT_1_LABEL"`
	Account2Label string `json:"account_2_label" yaml:"account_2_label" env:"GIZNOTION_ACCOUNT_2_LABEL"`

	OAuth OAuthConfig `json:"oauth" yaml:"oauth"`

	// API settings
	BaseURL        string `json:"base_url,omitempty" yaml:"base_url,omitempty" env:"GIZNOTION_API_URL"`
	Timeout        string `json:"timeout" yaml:"timeout" env:"GIZNOTION_TIMEOUT"`
	SearchPageSize int    `json:"search_page_size" yaml:"search_page_size" env:"GIZNOTION_SEARCH_PAGE_SIZE"`

	// Storage and logging
	DBPath  string `json:"db_path,omitempty" yaml:"db_path,omitempty" env:"GIZNOTION_DB_PATH"`
	LogFile string `json:"log_file,omitempty" yaml:"log_file,omitempty" env:"GIZNOTION_LOG_FILE"`

	Keys   KeyBindings  `json:"keys" yaml:"keys"`
	Colors ColorsConfig `json:"colors" yaml:"colors"`
}

// KeyBindings defines keyboard shortcuts for the search view
type KeyBindings struct {
	Search        string `json:"search" yaml:"search"`
	Remove        string `json:"remove" yaml:"remove"`
	LoadMore      string `json:"load_more" yaml:"load_more"`
	SwitchAccount string `json:"switch_account" yaml:"switch_account"`
	CopyURL       string `json:"copy_url" yaml:"copy_url"`
	Refresh       string `json:"refresh" yaml:"refresh"`
	Quit          string `json:"quit" yaml:"quit"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		AuthType:       string(accounts.AuthOAuth),
		Timeout:        "30s",
		SearchPageSize: 25,
		Keys:           DefaultKeyBindings(),
		Colors:         *DefaultColors(),
	}
}

// DefaultKeyBindings returns default keyboard shortcuts
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Search:        "/",
		Remove:        "d",
		LoadMore:      "n",
		SwitchAccount: "a",
		CopyURL:       "y",
		Refresh:       "R",
		Quit:          "q",
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads configuration from file, then applies environment overrides.
// A missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if isYAML(configPath) {
				err = yaml.Unmarshal(data, cfg)
			} else {
				err = json.Unmarshal(data, cfg)
			}
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", configPath, err)
			}
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills values a partial config file left empty
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.AuthType == "" {
		c.AuthType = def.AuthType
	}
	if c.Timeout == "" {
		c.Timeout = def.Timeout
	}
	if c.SearchPageSize == 0 {
		c.SearchPageSize = def.SearchPageSize
	}
	if c.Keys == (KeyBindings{}) {
		c.Keys = def.Keys
	}
	if c.Colors == (ColorsConfig{}) {
		c.Colors = def.Colors
	}
}

// Validate reports configuration values that cannot work
func (c *Config) Validate() error {
	switch accounts.AuthType(c.AuthType) {
	case accounts.AuthOAuth, accounts.AuthInternal:
	default:
		return fmt.Errorf("invalid auth type %q (want oauth or internal)", c.AuthType)
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid timeout: must be positive")
		}
	}
	if c.SearchPageSize < 1 || c.SearchPageSize > 100 {
		return fmt.Errorf("invalid search page size %d (1-100)", c.SearchPageSize)
	}
	return nil
}

// AccountSettings returns the settings the account registry is built from
func (c *Config) AccountSettings() accounts.Settings {
	return accounts.Settings{
		AuthType:      accounts.AuthType(c.AuthType),
		Account1Label: c.Account1Label,
		Account2Label: c.Account2Label,
	}
}

// GetTimeout returns the parsed API timeout
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
			return d
		}
	}
	return 30 * time.Second
}

// GetDBPath returns the database path, expanded, or the default
func (c *Config) GetDBPath() string {
	if c.DBPath != "" {
		return ExpandPath(c.DBPath)
	}
	return DefaultDBPath()
}

// GetTokenDir returns the OAuth token directory, expanded, or the default
func (c *Config) GetTokenDir() string {
	if c.OAuth.TokenDir != "" {
		return ExpandPath(c.OAuth.TokenDir)
	}
	return DefaultTokenDir()
}

// GetLogFile returns the log file path, expanded, or the default
func (c *Config) GetLogFile() string {
	if c.LogFile != "" {
		return ExpandPath(c.LogFile)
	}
	return filepath.Join(DefaultLogDir(), appName+".log")
}

// ExpandPath expands a leading ~ to the home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DefaultConfigDir returns ~/.config/giznotion
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}

// DefaultDBPath returns the default local storage database path
func DefaultDBPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "storage.db")
}

// DefaultTokenDir returns the default OAuth token directory
func DefaultTokenDir() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "tokens")
}

// DefaultLogDir returns the default log directory path
func DefaultLogDir() string {
	return DefaultConfigDir()
}

// SaveConfig saves the configuration to a file, YAML or JSON by extension
func (c *Config) SaveConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	// the file may hold secrets
	return os.WriteFile(path, data, 0o600)
}

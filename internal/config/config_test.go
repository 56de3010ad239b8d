package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "oauth", cfg.AuthType)
	assert.Equal(t, "30s", cfg.Timeout)
	assert.Equal(t, 25, cfg.SearchPageSize)
	assert.Equal(t, DefaultKeyBindings(), cfg.Keys)
	assert.Equal(t, *DefaultColors(), cfg.Colors)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultKeyBindings(t *testing.T) {
	keys := DefaultKeyBindings()

	assert.Equal(t, "/", keys.Search)
	assert.Equal(t, "d", keys.Remove)
	assert.Equal(t, "n", keys.LoadMore)
	assert.Equal(t, "a", keys.SwitchAccount)
	assert.Equal(t, "q", keys.Quit)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "oauth", cfg.AuthType)
}

func TestLoadConfig_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data, err := json.Marshal(map[string]any{
		"auth_type":       "oauth",
		"account_1_label": "Work",
		"account_2_label": "Personal",
		"oauth":           map[string]string{"client_id": "cid"},
		"timeout":         "10s",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Work", cfg.Account1Label)
	assert.Equal(t, "Personal", cfg.Account2Label)
	assert.Equal(t, "cid", cfg.OAuth.ClientID)
	assert.Equal(t, 10*time.Second, cfg.GetTimeout())
	// untouched values keep their defaults
	assert.Equal(t, 25, cfg.SearchPageSize)
	assert.Equal(t, DefaultKeyBindings(), cfg.Keys)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
auth_type: internal
token: secret_abc
account_1_label: Team
search_page_size: 50
keys:
  search: s
  remove: x
  load_more: m
  switch_account: A
  copy_url: c
  refresh: r
  quit: Q
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "internal", cfg.AuthType)
	assert.Equal(t, "secret_abc", cfg.Token)
	assert.Equal(t, "Team", cfg.Account1Label)
	assert.Equal(t, 50, cfg.SearchPageSize)
	assert.Equal(t, "x", cfg.Keys.Remove)
}

func TestLoadConfig_InvalidContent(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{not json"), 0o600))
	_, err := LoadConfig(jsonPath)
	assert.Error(t, err)

	yamlPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("auth_type: [unterminated"), 0o600))
	_, err = LoadConfig(yamlPath)
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"auth_type":"oauth","account_1_label":"Work","db_path":"/from/file.db"}`), 0o600))

	t.Setenv("GIZNOTION_AUTH_TYPE", "internal")
	t.Setenv("GIZNOTION_TOKEN", "secret_env")
	t.Setenv("GIZNOTION_CLIENT_ID", "env-client")
	t.Setenv("GIZNOTION_SEARCH_PAGE_SIZE", "10")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "internal", cfg.AuthType)
	assert.Equal(t, "secret_env", cfg.Token)
	assert.Equal(t, "env-client", cfg.OAuth.ClientID)
	assert.Equal(t, 10, cfg.SearchPageSize)
	// unset variables leave file values alone
	assert.Equal(t, "Work", cfg.Account1Label)
	assert.Equal(t, "/from/file.db", cfg.GetDBPath())
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	t.Setenv("GIZNOTION_SEARCH_PAGE_SIZE", "lots")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "parse env")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"internal", func(c *Config) { c.AuthType = "internal" }, ""},
		{"unknown_auth", func(c *Config) { c.AuthType = "basic" }, "invalid auth type"},
		{"bad_timeout", func(c *Config) { c.Timeout = "soon" }, "invalid timeout"},
		{"negative_timeout", func(c *Config) { c.Timeout = "-1s" }, "must be positive"},
		{"page_size_zero", func(c *Config) { c.SearchPageSize = 0 }, "invalid search page size"},
		{"page_size_large", func(c *Config) { c.SearchPageSize = 101 }, "invalid search page size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfig_AccountSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Account1Label = "Work"
	cfg.Account2Label = "Personal"

	assert.Equal(t, accounts.Settings{
		AuthType:      accounts.AuthOAuth,
		Account1Label: "Work",
		Account2Label: "Personal",
	}, cfg.AccountSettings())
}

func TestConfig_GetTimeoutFallback(t *testing.T) {
	cfg := &Config{Timeout: "garbage"}
	assert.Equal(t, 30*time.Second, cfg.GetTimeout())
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", name)
			cfg := DefaultConfig()
			cfg.Account1Label = "Work"
			cfg.Token = "secret_x"

			require.NoError(t, cfg.SaveConfig(path))
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "notes.db"), ExpandPath("~/notes.db"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
	assert.Equal(t, "~user/x", ExpandPath("~user/x"))
}

func TestDefaultPaths(t *testing.T) {
	dir := DefaultConfigDir()
	require.NotEmpty(t, dir)

	assert.Equal(t, filepath.Join(dir, "config.json"), DefaultConfigPath())
	assert.Equal(t, filepath.Join(dir, "storage.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join(dir, "tokens"), DefaultTokenDir())
	assert.Equal(t, filepath.Join(dir, "giznotion.log"), DefaultConfig().GetLogFile())
}

func TestColor(t *testing.T) {
	assert.Equal(t, "#50fa7b", NewColor("#50fa7b").String())
	assert.Equal(t, "-", DefaultColor.String())
	assert.Equal(t, "-", TransparentColor.String())
}

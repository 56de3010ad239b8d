package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/notion"
	"github.com/ajramos/giznotion/pkg/auth"
)

func TestGetConfigPath_Priority(t *testing.T) {
	// CLI flag takes precedence
	t.Setenv(configEnv, "/env/config.json")
	assert.Equal(t, "/custom/config.json", getConfigPath("/custom/config.json"))

	// Environment variable when no flag
	assert.Equal(t, "/env/config.json", getConfigPath(""))

	// Default when neither flag nor env
	t.Setenv(configEnv, "")
	assert.Contains(t, getConfigPath(""), "config.json")
}

func TestGetConfigPath_ExpandsHomeInEnv(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv(configEnv, "~/notion/config.yaml")
	assert.Equal(t, "/home/tester/notion/config.yaml", getConfigPath(""))
}

func TestPageIDFromArg(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{"bare id", "p1", "p1", false},
		{"trimmed", "  p1 ", "p1", false},
		{"page url", "https://www.notion.so/Roadmap-0f7c3e1d2b5a4c6d8e9f0a1b2c3d4e5f", "0f7c3e1d2b5a4c6d8e9f0a1b2c3d4e5f", false},
		{"url with query", "https://www.notion.so/team/0f7c3e1d2b5a4c6d8e9f0a1b2c3d4e5f?pvs=4", "0f7c3e1d2b5a4c6d8e9f0a1b2c3d4e5f", false},
		{"dashed uuid", "https://www.notion.so/0f7c3e1d-2b5a-4c6d-8e9f-0a1b2c3d4e5f", "0f7c3e1d2b5a4c6d8e9f0a1b2c3d4e5f", false},
		{"url without id", "https://www.notion.so/Roadmap", "", true},
		{"empty", " ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pageIDFromArg(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefghi…", truncate("abcdefghijklmnop", 10))
	// wide runes take two columns each
	assert.Equal(t, "日本…", truncate("日本語のページ", 5))
	assert.Equal(t, "Untitled", displayTitle("  "))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out strings.Builder
		got, err := confirm(strings.NewReader(tt.input), &out, "Proceed?", field{"Title", "Notes"})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Title: Notes\nProceed? [y/N]: ", out.String())
	}
}

func TestReadContent(t *testing.T) {
	got, err := readContent(strings.NewReader("ignored"), "inline")
	require.NoError(t, err)
	assert.Equal(t, "inline", got)

	got, err = readContent(strings.NewReader("from stdin\n\n"), "-")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)
}

func TestRunSetupWizard_Internal(t *testing.T) {
	var out strings.Builder
	cfg, err := runSetupWizard(strings.NewReader("internal\nsecret_abc\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "internal", cfg.AuthType)
	assert.Equal(t, "secret_abc", cfg.Token)
	assert.NoError(t, cfg.Validate())
}

func TestRunSetupWizard_OAuthTwoAccounts(t *testing.T) {
	var out strings.Builder
	cfg, err := runSetupWizard(strings.NewReader("\nclient-id\nclient-secret\nWork\nPersonal\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "oauth", cfg.AuthType)
	assert.Equal(t, "client-id", cfg.OAuth.ClientID)
	assert.Equal(t, "client-secret", cfg.OAuth.ClientSecret)
	assert.Equal(t, "Work", cfg.Account1Label)
	assert.Equal(t, "Personal", cfg.Account2Label)
}

func TestRunSetupWizard_SecondLabelSkippedWithoutFirst(t *testing.T) {
	var out strings.Builder
	cfg, err := runSetupWizard(strings.NewReader("oauth\nid\nsecret\n\nPersonal\n"), &out)
	require.NoError(t, err)
	assert.Empty(t, cfg.Account1Label)
	assert.Empty(t, cfg.Account2Label)
}

func TestRunSetupWizard_Errors(t *testing.T) {
	var out strings.Builder
	_, err := runSetupWizard(strings.NewReader("basic\n"), &out)
	assert.ErrorContains(t, err, "invalid auth type")

	_, err = runSetupWizard(strings.NewReader("internal\n\n"), &out)
	assert.ErrorContains(t, err, "integration secret is required")
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "account label required when multiple accounts are configured (pass --account)",
		describeError(accounts.ErrAmbiguousAccount))
	assert.Contains(t, describeError(fmt.Errorf("search: %w", auth.ErrAuthenticationRequired)), "accounts login")
	assert.Contains(t, describeError(&notion.APIError{Status: 503}), "try again")
	assert.Equal(t, "boom", describeError(errors.New("boom")))
}

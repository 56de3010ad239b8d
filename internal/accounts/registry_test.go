package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRegistry_SingleAccount(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		label    string
	}{
		{"internal_mode_ignores_second_label", Settings{AuthType: AuthInternal, Account1Label: "Work", Account2Label: "Home"}, "Work"},
		{"oauth_missing_second_label", Settings{AuthType: AuthOAuth, Account1Label: "Work"}, "Work"},
		{"oauth_missing_first_label", Settings{AuthType: AuthOAuth, Account2Label: "Home"}, "Account 1"},
		{"oauth_whitespace_second_label", Settings{AuthType: AuthOAuth, Account1Label: "Work", Account2Label: "   "}, "Work"},
		{"no_labels", Settings{AuthType: AuthInternal}, "Account 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(tt.settings)
			list := r.List()
			assert.Len(t, list, 1)
			assert.Equal(t, Account1, list[0].ID)
			assert.Equal(t, tt.label, list[0].Label)
			assert.False(t, r.IsMultiAccount())
			assert.Equal(t, Account1, r.DefaultID())
		})
	}
}

func TestNewRegistry_TwoAccounts(t *testing.T) {
	r := NewRegistry(Settings{AuthType: AuthOAuth, Account1Label: " Work ", Account2Label: "Home"})

	assert.Equal(t, []Account{
		{ID: Account1, Label: "Work"},
		{ID: Account2, Label: "Home"},
	}, r.List())
	assert.True(t, r.IsMultiAccount())
	assert.True(t, r.Contains(Account2))
	assert.Equal(t, []string{"Work", "Home"}, r.Labels())
}

func TestRegistry_ByID(t *testing.T) {
	r := NewRegistry(Settings{AuthType: AuthInternal, Account1Label: "Work"})

	assert.Equal(t, Account{ID: Account1, Label: "Work"}, r.ByID(Account1))
	assert.Equal(t, Account{ID: Account2, Label: "Account 2"}, r.ByID(Account2))
	assert.Equal(t, Account{ID: "account-9", Label: "account-9"}, r.ByID("account-9"))
	assert.False(t, r.Contains(Account2))
}

func TestRegistry_ListIsACopy(t *testing.T) {
	r := NewRegistry(Settings{Account1Label: "Work"})
	list := r.List()
	list[0].Label = "changed"
	assert.Equal(t, "Work", r.List()[0].Label)
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want ID
		ok   bool
	}{
		{"account-1", Account1, true},
		{" ACCOUNT-2 ", Account2, true},
		{"1", Account1, true},
		{"2", Account2, true},
		{"3", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseID(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

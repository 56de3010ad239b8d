package accounts

import "strings"

// ID identifies an account slot
type ID string

const (
	Account1 ID = "account-1"
	Account2 ID = "account-2"
)

// AuthType selects how credentials are obtained
type AuthType string

const (
	AuthInternal AuthType = "internal"
	AuthOAuth    AuthType = "oauth"
)

// Account is a registered credential slot with its display label
type Account struct {
	ID    ID     `json:"id"`
	Label string `json:"label"`
}

// Settings holds the user preferences the registry is derived from
type Settings struct {
	AuthType      AuthType
	Account1Label string
	Account2Label string
}

// Registry is the ordered list of accounts derived from the current settings.
// It is rebuilt whenever settings change and holds no other state.
type Registry struct {
	accounts []Account
}

// NewRegistry builds the registry for the given settings
func NewRegistry(s Settings) *Registry {
	label1 := strings.TrimSpace(s.Account1Label)
	label2 := strings.TrimSpace(s.Account2Label)

	first := Account{ID: Account1, Label: label1}
	if first.Label == "" {
		first.Label = fallbackLabel(Account1)
	}
	r := &Registry{accounts: []Account{first}}

	// A second slot only exists in OAuth mode with both slots labelled
	if s.AuthType == AuthOAuth && label1 != "" && label2 != "" {
		r.accounts = append(r.accounts, Account{ID: Account2, Label: label2})
	}
	return r
}

// List returns the registered accounts in slot order
func (r *Registry) List() []Account {
	out := make([]Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}

// Len returns the number of registered accounts
func (r *Registry) Len() int { return len(r.accounts) }

// IsMultiAccount reports whether more than one account is registered
func (r *Registry) IsMultiAccount() bool { return len(r.accounts) > 1 }

// DefaultID returns the first registered account
func (r *Registry) DefaultID() ID {
	if len(r.accounts) == 0 {
		return Account1
	}
	return r.accounts[0].ID
}

// Contains reports whether id is a registered account
func (r *Registry) Contains(id ID) bool {
	for _, a := range r.accounts {
		if a.ID == id {
			return true
		}
	}
	return false
}

// ByID returns the registered account for id, or a placeholder with a generic label
func (r *Registry) ByID(id ID) Account {
	for _, a := range r.accounts {
		if a.ID == id {
			return a
		}
	}
	return Account{ID: id, Label: fallbackLabel(id)}
}

// Labels returns the registered labels in slot order
func (r *Registry) Labels() []string {
	labels := make([]string, 0, len(r.accounts))
	for _, a := range r.accounts {
		labels = append(labels, a.Label)
	}
	return labels
}

func fallbackLabel(id ID) string {
	switch id {
	case Account1:
		return "Account 1"
	case Account2:
		return "Account 2"
	default:
		return string(id)
	}
}

// ParseID converts a user supplied slot name into an ID
func ParseID(s string) (ID, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Account1), "1":
		return Account1, true
	case string(Account2), "2":
		return Account2, true
	}
	return "", false
}

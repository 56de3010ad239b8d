package accounts

import (
	"strings"

	"golang.org/x/text/cases"
)

// Resolver maps an automation-supplied account label to an account ID.
// It never consults the active-account state.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over registry
func NewResolver(registry *Registry) *Resolver {
	return &Resolver{registry: registry}
}

var positionalAliases = map[string]ID{
	"account 1": Account1,
	"account1":  Account1,
	"1":         Account1,
	"account 2": Account2,
	"account2":  Account2,
	"2":         Account2,
}

// Resolve returns the account for label. An empty label is only accepted when
// exactly one account is registered.
func (r *Resolver) Resolve(label string) (ID, error) {
	accounts := r.registry.List()
	needle := r.normalize(label)

	if needle == "" {
		if len(accounts) > 1 {
			return "", ErrAmbiguousAccount
		}
		return r.registry.DefaultID(), nil
	}

	for _, a := range accounts {
		if r.normalize(a.Label) == needle {
			return a.ID, nil
		}
	}

	if id, ok := positionalAliases[needle]; ok && r.registry.Contains(id) {
		return id, nil
	}

	return "", &UnknownAccountLabelError{Label: strings.TrimSpace(label), Available: r.registry.Labels()}
}

// Casers are not safe for concurrent use, so one is built per call
func (r *Resolver) normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

package accounts

import (
	"context"
	"log"
)

// ActiveAccountKey is the storage key holding the interactive default account
const ActiveAccountKey = "NOTION_ACTIVE_ACCOUNT"

// Storage is the key-value surface the active account is persisted in
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
}

// ActiveAccount tracks which account interactive commands operate on
type ActiveAccount struct {
	registry *Registry
	storage  Storage
	logger   *log.Logger
}

// NewActiveAccount creates the active-account state over storage
func NewActiveAccount(registry *Registry, storage Storage, logger *log.Logger) *ActiveAccount {
	return &ActiveAccount{registry: registry, storage: storage, logger: logger}
}

// Get returns the stored account when it is still registered, otherwise the
// registry default. The fallback is never written back.
func (a *ActiveAccount) Get(ctx context.Context) (ID, error) {
	if a.storage == nil {
		return a.registry.DefaultID(), nil
	}
	value, found, err := a.storage.GetItem(ctx, ActiveAccountKey)
	if err != nil {
		if a.logger != nil {
			a.logger.Printf("active account: read failed, using default: %v", err)
		}
		return a.registry.DefaultID(), nil
	}
	if found && a.registry.Contains(ID(value)) {
		return ID(value), nil
	}
	return a.registry.DefaultID(), nil
}

// Set persists id as the active account. The value is not validated against
// the registry; Get ignores stale values.
func (a *ActiveAccount) Set(ctx context.Context, id ID) error {
	if a.storage == nil {
		return nil
	}
	return a.storage.SetItem(context.WithoutCancel(ctx), ActiveAccountKey, string(id))
}

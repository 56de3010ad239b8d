package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/db"
	"github.com/ajramos/giznotion/internal/notion"
)

// MockTokenProvider implements auth.TokenProvider for testing
type MockTokenProvider struct {
	mock.Mock
}

func (m *MockTokenProvider) Token(ctx context.Context, accountID, label string) (string, error) {
	args := m.Called(ctx, accountID, label)
	if fn, ok := args.Get(0).(func(context.Context, string, string) string); ok {
		return fn(ctx, accountID, label), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func newTestKV(t *testing.T) *db.KVStore {
	t.Helper()
	store, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return db.NewKVStore(store)
}

func singleRegistry() *accounts.Registry {
	return accounts.NewRegistry(accounts.Settings{AuthType: accounts.AuthInternal, Account1Label: "Work"})
}

func dualRegistry() *accounts.Registry {
	return accounts.NewRegistry(accounts.Settings{AuthType: accounts.AuthOAuth, Account1Label: "Work", Account2Label: "Personal"})
}

// newServerCache returns a cache whose clients talk to an httptest server.
// Tokens are "token-<account id>".
func newServerCache(t *testing.T, registry *accounts.Registry, handler http.HandlerFunc) *ClientCache {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := &MockTokenProvider{}
	tokens.On("Token", mock.Anything, mock.Anything, mock.Anything).Return(func(_ context.Context, id, _ string) string {
		return "token-" + id
	}, nil)

	return NewClientCache(registry, ClientCacheOptions{
		AuthType: accounts.AuthOAuth,
		Tokens:   tokens,
		Factory: func(token string) *notion.Client {
			return notion.NewClient(token, notion.WithBaseURL(srv.URL))
		},
	})
}

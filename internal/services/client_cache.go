package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/notion"
	"github.com/ajramos/giznotion/pkg/auth"
)

// internalCacheKey is used for every account when authenticating with an integration secret
const internalCacheKey = "internal"

// ClientFactory builds an API client for a token
type ClientFactory func(token string) *notion.Client

type cachedClient struct {
	token  string
	client *notion.Client
}

// ClientCacheOptions configures a ClientCache
type ClientCacheOptions struct {
	AuthType       accounts.AuthType
	InternalSecret string
	Tokens         auth.TokenProvider
	Factory        ClientFactory
	Logger         *log.Logger
}

// ClientCache keeps one client per account and rebuilds it when the account's token changes
type ClientCache struct {
	registry       *accounts.Registry
	authType       accounts.AuthType
	internalSecret string
	tokens         auth.TokenProvider
	factory        ClientFactory
	logger         *log.Logger

	mu      sync.Mutex
	entries map[string]cachedClient
}

// NewClientCache creates an empty cache
func NewClientCache(registry *accounts.Registry, opts ClientCacheOptions) *ClientCache {
	factory := opts.Factory
	if factory == nil {
		factory = func(token string) *notion.Client { return notion.NewClient(token) }
	}
	return &ClientCache{
		registry:       registry,
		authType:       opts.AuthType,
		internalSecret: strings.TrimSpace(opts.InternalSecret),
		tokens:         opts.Tokens,
		factory:        factory,
		logger:         opts.Logger,
		entries:        make(map[string]cachedClient),
	}
}

// GetClient returns a client for id, reusing the cached one while its token is current.
// Token acquisition may run the OAuth consent flow and happens without holding the lock.
func (c *ClientCache) GetClient(ctx context.Context, id accounts.ID) (*notion.Client, error) {
	key, token, err := c.currentToken(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.entries[key]; ok && cached.token == token {
		return cached.client, nil
	}
	client := c.factory(token)
	c.entries[key] = cachedClient{token: token, client: client}
	if c.logger != nil {
		c.logger.Printf("client cache: new client for %s", key)
	}
	return client, nil
}

func (c *ClientCache) currentToken(ctx context.Context, id accounts.ID) (string, string, error) {
	if c.authType == accounts.AuthInternal {
		if c.internalSecret == "" {
			return "", "", fmt.Errorf("%w: internal integration secret is not configured", auth.ErrAuthenticationRequired)
		}
		return internalCacheKey, c.internalSecret, nil
	}

	if id == "" {
		return "", "", fmt.Errorf("%w: account id cannot be empty", ErrInvalidInput)
	}
	if c.tokens == nil {
		return "", "", fmt.Errorf("%w: no OAuth token provider", auth.ErrAuthenticationRequired)
	}
	account := c.registry.ByID(id)
	token, err := c.tokens.Token(ctx, string(account.ID), account.Label)
	if err != nil {
		return "", "", err
	}
	return string(account.ID), token, nil
}

// Invalidate drops the cached client for id
func (c *ClientCache) Invalidate(id accounts.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := string(id)
	if c.authType == accounts.AuthInternal {
		key = internalCacheKey
	}
	delete(c.entries, key)
}

// Len returns the number of cached clients
func (c *ClientCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

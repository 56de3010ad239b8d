package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/config"
	"github.com/ajramos/giznotion/internal/db"
	"github.com/ajramos/giznotion/internal/notion"
	"github.com/ajramos/giznotion/internal/services"
	"github.com/ajramos/giznotion/pkg/auth"
)

type runMode int

const (
	modeCommand runMode = iota
	modeInteractive
	modeServer
)

// application holds everything one invocation needs
type application struct {
	cfg    *config.Config
	logger *log.Logger

	logFile *os.File
	store   *db.Store

	registry  *accounts.Registry
	active    *accounts.ActiveAccount
	resolver  *accounts.Resolver
	tokens    *auth.AccountTokenProvider
	clients   *services.ClientCache
	pager     *services.FederatedPager
	recent    *services.RecentPagesStore
	views     *services.DatabaseViewStore
	workspace *services.WorkspaceServiceImpl
	links     *services.LinkServiceImpl
}

func newApplication(ctx context.Context, mode runMode) (*application, error) {
	cfg, err := config.LoadConfig(getConfigPath(configPathFlag))
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &application{cfg: cfg, links: services.NewLinkService()}
	app.logger, app.logFile = openLogger(cfg.GetLogFile())

	app.store, err = db.Open(ctx, cfg.GetDBPath())
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("could not open local storage: %w", err)
	}
	kv := db.NewKVStore(app.store)

	app.registry = accounts.NewRegistry(cfg.AccountSettings())
	app.active = accounts.NewActiveAccount(app.registry, kv, app.logger)
	app.resolver = accounts.NewResolver(app.registry)

	app.tokens = auth.NewAccountTokenProvider(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.GetTokenDir(), true)
	switch mode {
	case modeInteractive:
		// the consent instructions would draw over the screen
		app.tokens.Out = io.Discard
		app.tokens.Notify = func(authURL string) {
			if err := app.links.OpenLink(ctx, authURL); err != nil && app.logger != nil {
				app.logger.Printf("open consent page: %v", err)
			}
		}
	case modeServer:
		// stdout carries the protocol
		app.tokens.Out = os.Stderr
	}

	opts := []notion.Option{notion.WithTimeout(cfg.GetTimeout())}
	if cfg.BaseURL != "" {
		opts = append(opts, notion.WithBaseURL(cfg.BaseURL))
	}
	app.clients = services.NewClientCache(app.registry, services.ClientCacheOptions{
		AuthType:       accounts.AuthType(cfg.AuthType),
		InternalSecret: cfg.Token,
		Tokens:         app.tokens,
		Factory: func(token string) *notion.Client {
			return notion.NewClient(token, opts...)
		},
		Logger: app.logger,
	})

	app.pager = services.NewFederatedPager(app.registry, services.NewNotionSearcher(app.clients), cfg.SearchPageSize, app.logger)
	app.recent = services.NewRecentPagesStore(kv, app.registry, app.active, app.clients, app.logger)
	app.views = services.NewDatabaseViewStore(kv, app.logger)
	app.workspace = services.NewWorkspaceService(app.resolver, app.clients, app.logger)
	return app, nil
}

// Close releases the database and log file
func (a *application) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Printf("close storage: %v", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// accountID returns the account named by --account, or the active account
func (a *application) accountID(ctx context.Context) (accounts.ID, error) {
	if accountFlag != "" {
		return a.resolver.Resolve(accountFlag)
	}
	return a.active.Get(ctx)
}

// accountLabel is accountID expressed as the label the workspace service resolves
func (a *application) accountLabel(ctx context.Context) (string, error) {
	if accountFlag != "" {
		return accountFlag, nil
	}
	id, err := a.active.Get(ctx)
	if err != nil {
		return "", err
	}
	label := a.registry.ByID(id).Label
	if resolved, err := a.resolver.Resolve(label); err == nil && resolved == id {
		return label, nil
	}
	// both slots share a label; address the slot by position
	if id == accounts.Account2 {
		return "2", nil
	}
	return "1", nil
}

// openLogger opens the log file in append mode; logging is disabled when it cannot be created
func openLogger(path string) (*log.Logger, *os.File) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil
	}
	return log.New(f, "[giznotion] ", log.LstdFlags|log.Lmicroseconds), f
}

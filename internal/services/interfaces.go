package services

import (
	"context"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/db"
	"github.com/ajramos/giznotion/internal/notion"
)

// ClientProvider hands out a live API client for an account
type ClientProvider interface {
	GetClient(ctx context.Context, id accounts.ID) (*notion.Client, error)
}

// Searcher runs one page of search against a single account
type Searcher interface {
	SearchPages(ctx context.Context, id accounts.ID, query, cursor string, pageSize int) (*notion.SearchResult, error)
}

// ActiveAccountState reads and writes the interactive default account
type ActiveAccountState interface {
	Get(ctx context.Context) (accounts.ID, error)
	Set(ctx context.Context, id accounts.ID) error
}

// Storage is the persisted key-value store, with atomic multi-key updates
type Storage interface {
	db.KV
	Update(ctx context.Context, fn func(tx db.KV) error) error
}

// PageSearcher is the federated search surface used by the interactive views
type PageSearcher interface {
	Page(ctx context.Context, query, cursor string) (*FederatedPage, error)
}

// RecentPages is the recent-pages surface used by the interactive views
type RecentPages interface {
	List(ctx context.Context) ([]RecentPage, error)
	RecordVisit(ctx context.Context, page notion.Page) error
	Remove(ctx context.Context, id string, accountID accounts.ID) error
	Hydrate(ctx context.Context, entries []RecentPage) []notion.Page
}

// WorkspaceService exposes the account-addressed operations used by automation clients
type WorkspaceService interface {
	SearchPages(ctx context.Context, text, label string) ([]PageSummary, error)
	SearchDatabase(ctx context.Context, databaseID, query, label string) ([]notion.Page, error)
	GetDatabases(ctx context.Context, label string) ([]notion.Database, error)
	GetPage(ctx context.Context, pageID, label string) (*PageContent, error)
	CreatePage(ctx context.Context, databaseID, title, content, label string) (*notion.Page, error)
	DatabaseName(ctx context.Context, databaseID, label string) (string, error)
	AddToPage(ctx context.Context, pageID, content, label string) error
	ListUsers(ctx context.Context, label string) ([]notion.User, error)
}

// LinkService opens and copies page URLs
type LinkService interface {
	OpenLink(ctx context.Context, link string) error
	CopyToClipboard(ctx context.Context, text string) error
}

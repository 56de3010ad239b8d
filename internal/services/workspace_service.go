package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/notion"
)

const (
	toolSearchPageSize  = 100
	toolSearchMaxResult = 250
	pagePreviewBlocks   = 100
)

// PageSummary is the compact page shape returned to automation clients
type PageSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	URL              string `json:"url"`
	ParentDatabaseID string `json:"parent_database_id,omitempty"`
	ParentPageID     string `json:"parent_page_id,omitempty"`
}

// PageContent is the raw child block listing of a page
type PageContent struct {
	Status  string `json:"status"`
	Content string `json:"content"`
}

const (
	PageStatusEmpty   = "empty"
	PageStatusSuccess = "success"
)

// AccountResolver maps an automation-supplied label to an account
type AccountResolver interface {
	Resolve(label string) (accounts.ID, error)
}

// WorkspaceServiceImpl implements the account-addressed workspace operations
type WorkspaceServiceImpl struct {
	resolver AccountResolver
	clients  ClientProvider
	logger   *log.Logger
}

// NewWorkspaceService creates a new WorkspaceService instance
func NewWorkspaceService(resolver AccountResolver, clients ClientProvider, logger *log.Logger) *WorkspaceServiceImpl {
	return &WorkspaceServiceImpl{resolver: resolver, clients: clients, logger: logger}
}

func (s *WorkspaceServiceImpl) client(ctx context.Context, label string) (*notion.Client, accounts.ID, error) {
	id, err := s.resolver.Resolve(label)
	if err != nil {
		return nil, "", err
	}
	client, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return client, id, nil
}

// SearchPages searches page titles, following cursors until the result set is large enough
func (s *WorkspaceServiceImpl) SearchPages(ctx context.Context, text, label string) ([]PageSummary, error) {
	client, _, err := s.client(ctx, label)
	if err != nil {
		return nil, err
	}

	pages := make([]PageSummary, 0)
	cursor := ""
	for len(pages) < toolSearchMaxResult {
		result, err := client.Search(ctx, notion.SearchRequest{Query: text, StartCursor: cursor, PageSize: toolSearchPageSize})
		if err != nil {
			return nil, err
		}
		for _, p := range result.Pages {
			pages = append(pages, PageSummary{
				ID:               p.ID,
				Title:            p.Title,
				URL:              p.URL,
				ParentDatabaseID: p.ParentDatabaseID,
				ParentPageID:     p.ParentPageID,
			})
		}
		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	return pages, nil
}

// SearchDatabase queries a database by title, most recently edited first
func (s *WorkspaceServiceImpl) SearchDatabase(ctx context.Context, databaseID, query, label string) ([]notion.Page, error) {
	if strings.TrimSpace(databaseID) == "" {
		return nil, fmt.Errorf("%w: database id cannot be empty", ErrInvalidInput)
	}
	client, id, err := s.client(ctx, label)
	if err != nil {
		return nil, err
	}
	pages, err := client.QueryDatabase(ctx, databaseID, query, "last_edited_time")
	if err != nil {
		return nil, err
	}
	for i := range pages {
		pages[i].AccountID = id
	}
	return pages, nil
}

// GetDatabases lists the databases shared with the account
func (s *WorkspaceServiceImpl) GetDatabases(ctx context.Context, label string) ([]notion.Database, error) {
	client, _, err := s.client(ctx, label)
	if err != nil {
		return nil, err
	}
	return client.ListDatabases(ctx)
}

// GetPage returns the first child blocks of a page as JSON
func (s *WorkspaceServiceImpl) GetPage(ctx context.Context, pageID, label string) (*PageContent, error) {
	if strings.TrimSpace(pageID) == "" {
		return nil, fmt.Errorf("%w: page id cannot be empty", ErrInvalidInput)
	}
	client, _, err := s.client(ctx, label)
	if err != nil {
		return nil, err
	}
	blocks, err := client.ListBlockChildren(ctx, pageID, pagePreviewBlocks)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return &PageContent{Status: PageStatusEmpty, Content: "Page is empty"}, nil
	}

	raw := make([]json.RawMessage, 0, len(blocks))
	for _, b := range blocks {
		raw = append(raw, b.Raw)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return &PageContent{Status: PageStatusSuccess, Content: string(data)}, nil
}

// CreatePage creates a titled page in a database
func (s *WorkspaceServiceImpl) CreatePage(ctx context.Context, databaseID, title, content, label string) (*notion.Page, error) {
	if strings.TrimSpace(databaseID) == "" {
		return nil, fmt.Errorf("%w: database id cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	client, id, err := s.client(ctx, label)
	if err != nil {
		return nil, err
	}
	page, err := client.CreateDatabasePage(ctx, databaseID, title, notion.PlainText(content))
	if err != nil {
		return nil, err
	}
	page.AccountID = id
	if s.logger != nil {
		s.logger.Printf("workspace: created page %s in %s (%s)", page.ID, databaseID, id)
	}
	return page, nil
}

// DatabaseName returns the database title, or its id when the title is unavailable
func (s *WorkspaceServiceImpl) DatabaseName(ctx context.Context, databaseID, label string) (string, error) {
	client, _, err := s.client(ctx, label)
	if err != nil {
		return "", err
	}
	db, err := client.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return "", err
	}
	if db.Title == "" || db.Title == "Untitled" {
		return databaseID, nil
	}
	return db.Title, nil
}

// AddToPage appends content to the end of a page
func (s *WorkspaceServiceImpl) AddToPage(ctx context.Context, pageID, content, label string) error {
	if strings.TrimSpace(pageID) == "" {
		return fmt.Errorf("%w: page id cannot be empty", ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content cannot be empty", ErrInvalidInput)
	}
	client, id, err := s.client(ctx, label)
	if err != nil {
		return err
	}
	if err := client.AppendBlocks(ctx, pageID, notion.PlainText(content)); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Printf("workspace: appended to %s (%s)", pageID, id)
	}
	return nil
}

// ListUsers returns the people of the account's workspace
func (s *WorkspaceServiceImpl) ListUsers(ctx context.Context, label string) ([]notion.User, error) {
	client, _, err := s.client(ctx, label)
	if err != nil {
		return nil, err
	}
	return client.ListUsers(ctx)
}

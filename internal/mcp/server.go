// Package mcp exposes the workspace operations as tools for automation clients.
package mcp

import (
	"context"
	"errors"
	"log"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ajramos/giznotion/internal/notion"
	"github.com/ajramos/giznotion/internal/services"
)

const (
	serverName = "giznotion"

	pageStatusError = "error"
)

// Server wraps the MCP server and the workspace it serves
type Server struct {
	workspace services.WorkspaceService
	logger    *log.Logger
	server    *sdk.Server
}

// NewServer creates a server with every workspace tool registered
func NewServer(workspace services.WorkspaceService, version string, logger *log.Logger) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{
		workspace: workspace,
		logger:    logger,
		server:    sdk.NewServer(&sdk.Implementation{Name: serverName, Version: version}, nil),
	}
	s.registerTools()
	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, &sdk.StdioTransport{})
}

// Serve runs the server over an arbitrary transport
func (s *Server) Serve(ctx context.Context, transport sdk.Transport) error {
	if s.logger != nil {
		s.logger.Printf("mcp: serving %d tools", len(toolNames))
	}
	err := s.server.Run(ctx, transport)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var toolNames = []string{
	"search-pages",
	"search-database",
	"get-databases",
	"get-page",
	"create-page",
	"add-to-page",
}

func (s *Server) registerTools() {
	readOnly := &sdk.ToolAnnotations{ReadOnlyHint: true}
	destructive := true

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "search-pages",
		Description: "Search Notion pages by title. Returns up to a few hundred matches with their id, title, url and parent.",
		Annotations: readOnly,
	}, s.searchPages)
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "search-database",
		Description: "Search the pages of a Notion database by title, most recently edited first.",
		Annotations: readOnly,
	}, s.searchDatabase)
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get-databases",
		Description: "List the Notion databases shared with the account, with their properties.",
		Annotations: readOnly,
	}, s.getDatabases)
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get-page",
		Description: "Fetch the first blocks of a Notion page as JSON.",
		Annotations: readOnly,
	}, s.getPage)
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "create-page",
		Description: "Create a page in a Notion database. Content is added as plain paragraphs.",
		Annotations: &sdk.ToolAnnotations{DestructiveHint: &destructive},
	}, s.createPage)
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "add-to-page",
		Description: "Append content to the end of a Notion page as plain paragraphs.",
		Annotations: &sdk.ToolAnnotations{DestructiveHint: &destructive},
	}, s.addToPage)
}

type SearchPagesInput struct {
	SearchText   string `json:"searchText" jsonschema:"The title of the page to search for. Only use plain text: it doesn't support any operators"`
	AccountLabel string `json:"accountLabel,omitempty" jsonschema:"Optional account label (for example: Work or Personal)"`
}

type SearchPagesResult struct {
	Pages []services.PageSummary `json:"pages"`
}

func (s *Server) searchPages(ctx context.Context, _ *sdk.CallToolRequest, in SearchPagesInput) (*sdk.CallToolResult, SearchPagesResult, error) {
	pages, err := s.workspace.SearchPages(ctx, in.SearchText, in.AccountLabel)
	if err != nil {
		return nil, SearchPagesResult{}, s.toolError("search-pages", err)
	}
	if pages == nil {
		pages = []services.PageSummary{}
	}
	return nil, SearchPagesResult{Pages: pages}, nil
}

type SearchDatabaseInput struct {
	DatabaseID   string `json:"databaseId" jsonschema:"The ID of the database to search"`
	Query        string `json:"query" jsonschema:"The query to search for. Only use plain text: it doesn't support any operators"`
	AccountLabel string `json:"accountLabel,omitempty" jsonschema:"Optional account label (for example: Work or Personal)"`
}

// DatabasePage is a database entry as returned to automation clients
type DatabasePage struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	LastEditedTime string `json:"last_edited_time,omitempty"`
}

type SearchDatabaseResult struct {
	Pages []DatabasePage `json:"pages"`
}

func (s *Server) searchDatabase(ctx context.Context, _ *sdk.CallToolRequest, in SearchDatabaseInput) (*sdk.CallToolResult, SearchDatabaseResult, error) {
	pages, err := s.workspace.SearchDatabase(ctx, in.DatabaseID, in.Query, in.AccountLabel)
	if err != nil {
		return nil, SearchDatabaseResult{}, s.toolError("search-database", err)
	}
	out := SearchDatabaseResult{Pages: make([]DatabasePage, 0, len(pages))}
	for _, p := range pages {
		entry := DatabasePage{ID: p.ID, Title: p.Title, URL: p.URL}
		if !p.LastEditedTime.IsZero() {
			entry.LastEditedTime = p.LastEditedTime.Format(time.RFC3339)
		}
		out.Pages = append(out.Pages, entry)
	}
	return nil, out, nil
}

type GetDatabasesInput struct {
	AccountLabel string `json:"accountLabel,omitempty" jsonschema:"Optional account label (for example: Work or Personal)"`
}

// DatabaseSummary is a database and its schema
type DatabaseSummary struct {
	ID         string                    `json:"id"`
	Title      string                    `json:"title"`
	URL        string                    `json:"url"`
	Properties []notion.DatabaseProperty `json:"properties"`
}

type GetDatabasesResult struct {
	Databases []DatabaseSummary `json:"databases"`
}

func (s *Server) getDatabases(ctx context.Context, _ *sdk.CallToolRequest, in GetDatabasesInput) (*sdk.CallToolResult, GetDatabasesResult, error) {
	databases, err := s.workspace.GetDatabases(ctx, in.AccountLabel)
	if err != nil {
		return nil, GetDatabasesResult{}, s.toolError("get-databases", err)
	}
	out := GetDatabasesResult{Databases: make([]DatabaseSummary, 0, len(databases))}
	for _, db := range databases {
		props := db.Properties
		if props == nil {
			props = []notion.DatabaseProperty{}
		}
		out.Databases = append(out.Databases, DatabaseSummary{ID: db.ID, Title: db.Title, URL: db.URL, Properties: props})
	}
	return nil, out, nil
}

type GetPageInput struct {
	PageID       string `json:"pageId" jsonschema:"The ID of the Notion page to fetch"`
	AccountLabel string `json:"accountLabel,omitempty" jsonschema:"Optional account label (for example: Work or Personal)"`
}

// getPage reports failures in the result status instead of failing the call
func (s *Server) getPage(ctx context.Context, _ *sdk.CallToolRequest, in GetPageInput) (*sdk.CallToolResult, services.PageContent, error) {
	content, err := s.workspace.GetPage(ctx, in.PageID, in.AccountLabel)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("mcp: get-page %s: %v", in.PageID, err)
		}
		return nil, services.PageContent{Status: pageStatusError, Content: err.Error()}, nil
	}
	if content == nil {
		return nil, services.PageContent{Status: services.PageStatusEmpty, Content: "Page is empty"}, nil
	}
	return nil, *content, nil
}

type CreatePageInput struct {
	DatabaseID   string `json:"databaseId" jsonschema:"The database id to create the page in"`
	Title        string `json:"title" jsonschema:"The title of the page to create"`
	Content      string `json:"content,omitempty" jsonschema:"The page body. Paragraphs are separated by blank lines"`
	AccountLabel string `json:"accountLabel,omitempty" jsonschema:"Optional account label (for example: Work or Personal)"`
}

type CreatePageResult struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Database string `json:"database"`
}

func (s *Server) createPage(ctx context.Context, _ *sdk.CallToolRequest, in CreatePageInput) (*sdk.CallToolResult, CreatePageResult, error) {
	page, err := s.workspace.CreatePage(ctx, in.DatabaseID, in.Title, in.Content, in.AccountLabel)
	if err != nil {
		return nil, CreatePageResult{}, s.toolError("create-page", err)
	}
	name, err := s.workspace.DatabaseName(ctx, in.DatabaseID, in.AccountLabel)
	if err != nil {
		name = in.DatabaseID
	}
	return nil, CreatePageResult{ID: page.ID, Title: page.Title, URL: page.URL, Database: name}, nil
}

type AddToPageInput struct {
	PageID       string `json:"pageId" jsonschema:"The ID of the page to append the content to"`
	Content      string `json:"content" jsonschema:"The content to append. Paragraphs are separated by blank lines"`
	AccountLabel string `json:"accountLabel,omitempty" jsonschema:"Optional account label (for example: Work or Personal)"`
}

type AddToPageResult struct {
	PageID string `json:"pageId"`
	Status string `json:"status"`
}

func (s *Server) addToPage(ctx context.Context, _ *sdk.CallToolRequest, in AddToPageInput) (*sdk.CallToolResult, AddToPageResult, error) {
	if err := s.workspace.AddToPage(ctx, in.PageID, in.Content, in.AccountLabel); err != nil {
		return nil, AddToPageResult{}, s.toolError("add-to-page", err)
	}
	return nil, AddToPageResult{PageID: in.PageID, Status: services.PageStatusSuccess}, nil
}

func (s *Server) toolError(tool string, err error) error {
	if s.logger != nil {
		s.logger.Printf("mcp: %s failed: %v", tool, err)
	}
	return err
}

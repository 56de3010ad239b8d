package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	APIVersion     = "2022-06-28"

	// maxPageSize is the largest page size the API accepts
	maxPageSize = 100
	// maxChildren is the most blocks a single append request may carry
	maxChildren = 100
)

// Client talks to the Notion REST API with a single bearer token
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// Option customises a Client
type Option func(*Client)

// WithBaseURL points the client at another API root (tests use httptest servers)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a client authenticated with token
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the credential this client was built with
func (c *Client) Token() string { return c.token }

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		// the body's status field may be absent
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func clampPageSize(n int) int {
	if n <= 0 || n > maxPageSize {
		return maxPageSize
	}
	return n
}

// Search returns pages and databases matching query, most recently edited first
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	body := map[string]any{
		"sort": map[string]string{
			"direction": "descending",
			"timestamp": "last_edited_time",
		},
		"page_size": clampPageSize(req.PageSize),
	}
	if req.Query != "" {
		body["query"] = req.Query
	}
	if req.StartCursor != "" {
		body["start_cursor"] = req.StartCursor
	}
	if req.Filter != nil {
		body["filter"] = req.Filter
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodPost, "/search", nil, body, &resp); err != nil {
		return nil, err
	}

	result := &SearchResult{HasMore: resp.HasMore, NextCursor: resp.nextCursor()}
	for _, raw := range resp.Results {
		var obj rawObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("decode search result: %w", err)
		}
		result.Pages = append(result.Pages, obj.toPage())
	}
	return result, nil
}

// RetrievePage fetches a single page
func (c *Client) RetrievePage(ctx context.Context, pageID string) (*Page, error) {
	var obj rawObject
	if err := c.do(ctx, http.MethodGet, "/pages/"+url.PathEscape(pageID), nil, nil, &obj); err != nil {
		return nil, err
	}
	page := obj.toPage()
	return &page, nil
}

// RetrieveDatabase fetches a database and its schema
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error) {
	var obj rawObject
	if err := c.do(ctx, http.MethodGet, "/databases/"+url.PathEscape(databaseID), nil, nil, &obj); err != nil {
		return nil, err
	}
	db := obj.toDatabase()
	return &db, nil
}

// RetrieveDatabaseAsPage fetches a database in the shape used by search results
func (c *Client) RetrieveDatabaseAsPage(ctx context.Context, databaseID string) (*Page, error) {
	var obj rawObject
	if err := c.do(ctx, http.MethodGet, "/databases/"+url.PathEscape(databaseID), nil, nil, &obj); err != nil {
		return nil, err
	}
	page := obj.toPage()
	return &page, nil
}

// QueryDatabase returns the database's pages whose title contains query,
// sorted by the given timestamp descending
func (c *Client) QueryDatabase(ctx context.Context, databaseID, query, sortBy string) ([]Page, error) {
	db, err := c.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	if sortBy == "" {
		sortBy = "last_edited_time"
	}

	body := map[string]any{
		"sorts": []map[string]string{{
			"timestamp": sortBy,
			"direction": "descending",
		}},
		"page_size": maxPageSize,
	}
	if query != "" {
		body["filter"] = map[string]any{
			"property": db.TitleProperty(),
			"title":    map[string]string{"contains": query},
		}
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodPost, "/databases/"+url.PathEscape(databaseID)+"/query", nil, body, &resp); err != nil {
		return nil, err
	}
	pages := make([]Page, 0, len(resp.Results))
	for _, raw := range resp.Results {
		var obj rawObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("decode query result: %w", err)
		}
		pages = append(pages, obj.toPage())
	}
	return pages, nil
}

// ListDatabases returns every database shared with the integration
func (c *Client) ListDatabases(ctx context.Context) ([]Database, error) {
	var databases []Database
	cursor := ""
	for {
		body := map[string]any{
			"filter":    SearchFilter{Property: "object", Value: "database"},
			"page_size": maxPageSize,
			"sort": map[string]string{
				"direction": "descending",
				"timestamp": "last_edited_time",
			},
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}
		var resp listResponse
		if err := c.do(ctx, http.MethodPost, "/search", nil, body, &resp); err != nil {
			return nil, err
		}
		for _, raw := range resp.Results {
			var obj rawObject
			if err := json.Unmarshal(raw, &obj); err != nil {
				return nil, fmt.Errorf("decode database: %w", err)
			}
			databases = append(databases, obj.toDatabase())
		}
		if !resp.HasMore || resp.nextCursor() == "" {
			return databases, nil
		}
		cursor = resp.nextCursor()
	}
}

// CreateDatabasePage creates a page titled title in the database, with content
// appended as paragraph blocks
func (c *Client) CreateDatabasePage(ctx context.Context, databaseID, title, content string) (*Page, error) {
	db, err := c.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return nil, err
	}

	blocks := ParagraphBlocks(content)
	first := blocks
	if len(first) > maxChildren {
		first = blocks[:maxChildren]
	}
	body := map[string]any{
		"parent": map[string]string{"database_id": databaseID},
		"properties": map[string]any{
			db.TitleProperty(): map[string]any{
				"title": []map[string]any{{"text": map[string]string{"content": title}}},
			},
		},
	}
	if len(first) > 0 {
		body["children"] = first
	}

	var obj rawObject
	if err := c.do(ctx, http.MethodPost, "/pages", nil, body, &obj); err != nil {
		return nil, err
	}
	if len(blocks) > len(first) {
		if err := c.appendBlocks(ctx, obj.ID, blocks[len(first):]); err != nil {
			return nil, err
		}
	}
	page := obj.toPage()
	return &page, nil
}

// AppendBlocks appends content to the end of a page or block
func (c *Client) AppendBlocks(ctx context.Context, blockID, content string) error {
	blocks := ParagraphBlocks(content)
	if len(blocks) == 0 {
		return fmt.Errorf("nothing to append")
	}
	return c.appendBlocks(ctx, blockID, blocks)
}

func (c *Client) appendBlocks(ctx context.Context, blockID string, blocks []map[string]any) error {
	path := "/blocks/" + url.PathEscape(blockID) + "/children"
	for start := 0; start < len(blocks); start += maxChildren {
		end := min(start+maxChildren, len(blocks))
		body := map[string]any{"children": blocks[start:end]}
		if err := c.do(ctx, http.MethodPatch, path, nil, body, nil); err != nil {
			return err
		}
	}
	return nil
}

// ListBlockChildren returns the first pageSize child blocks of blockID
func (c *Client) ListBlockChildren(ctx context.Context, blockID string, pageSize int) ([]Block, error) {
	query := url.Values{"page_size": []string{strconv.Itoa(clampPageSize(pageSize))}}
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/blocks/"+url.PathEscape(blockID)+"/children", query, nil, &resp); err != nil {
		return nil, err
	}
	blocks := make([]Block, 0, len(resp.Results))
	for _, raw := range resp.Results {
		block, err := decodeBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("decode block: %w", err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// ListUsers returns every person in the workspace; bots are skipped
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	cursor := ""
	for {
		query := url.Values{"page_size": []string{strconv.Itoa(maxPageSize)}}
		if cursor != "" {
			query.Set("start_cursor", cursor)
		}
		var resp listResponse
		if err := c.do(ctx, http.MethodGet, "/users", query, nil, &resp); err != nil {
			return nil, err
		}
		for _, raw := range resp.Results {
			var u struct {
				Object    string  `json:"object"`
				ID        string  `json:"id"`
				Type      string  `json:"type"`
				Name      *string `json:"name"`
				AvatarURL *string `json:"avatar_url"`
			}
			if err := json.Unmarshal(raw, &u); err != nil {
				return nil, fmt.Errorf("decode user: %w", err)
			}
			if u.Object != "user" || u.Type != "person" {
				continue
			}
			user := User{ID: u.ID, Type: u.Type}
			if u.Name != nil {
				user.Name = *u.Name
			}
			if u.AvatarURL != nil {
				user.AvatarURL = *u.AvatarURL
			}
			users = append(users, user)
		}
		if !resp.HasMore || resp.nextCursor() == "" {
			return users, nil
		}
		cursor = resp.nextCursor()
	}
}

func sortProperties(props []DatabaseProperty) {
	slices.SortFunc(props, func(a, b DatabaseProperty) int {
		return strings.Compare(a.Name, b.Name)
	})
}

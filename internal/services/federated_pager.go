package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/notion"
)

// DefaultSearchPageSize is the per-account page size of interactive search
const DefaultSearchPageSize = 25

// FederatedPage is one merged page of results across every registered account
type FederatedPage struct {
	Items      []notion.Page
	NextCursor string
}

// HasMore reports whether another page can be requested with NextCursor
func (p *FederatedPage) HasMore() bool { return p.NextCursor != "" }

// NotionSearcher searches one account through the client cache
type NotionSearcher struct {
	clients ClientProvider
}

// NewNotionSearcher creates a searcher backed by clients
func NewNotionSearcher(clients ClientProvider) *NotionSearcher {
	return &NotionSearcher{clients: clients}
}

// SearchPages implements Searcher. Every returned page is tagged with id.
func (s *NotionSearcher) SearchPages(ctx context.Context, id accounts.ID, query, cursor string, pageSize int) (*notion.SearchResult, error) {
	client, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	result, err := client.Search(ctx, notion.SearchRequest{Query: query, StartCursor: cursor, PageSize: pageSize})
	if err != nil {
		return nil, err
	}
	for i := range result.Pages {
		result.Pages[i].AccountID = id
	}
	return result, nil
}

// FederatedPager merges concurrent paginated searches of every account into one stream
type FederatedPager struct {
	registry *accounts.Registry
	searcher Searcher
	pageSize int
	logger   *log.Logger
}

// NewFederatedPager creates a pager; pageSize <= 0 uses DefaultSearchPageSize
func NewFederatedPager(registry *accounts.Registry, searcher Searcher, pageSize int, logger *log.Logger) *FederatedPager {
	if pageSize <= 0 {
		pageSize = DefaultSearchPageSize
	}
	return &FederatedPager{registry: registry, searcher: searcher, pageSize: pageSize, logger: logger}
}

type branchResult struct {
	id     accounts.ID
	ran    bool
	result *notion.SearchResult
}

// Page fetches the next merged page. An empty cursor starts from the beginning.
// Accounts whose cursor entry is null are exhausted and not queried again.
// Any account failing fails the whole page with a *SearchFailedError.
func (p *FederatedPager) Page(ctx context.Context, query, cursor string) (*FederatedPage, error) {
	list := p.registry.List()
	if len(list) == 0 {
		return &FederatedPage{}, nil
	}

	var cursors map[accounts.ID]*string
	if cursor != "" {
		decoded, err := DecodeCursor(cursor)
		if err != nil {
			if p.logger != nil {
				p.logger.Printf("federated search: ignoring malformed cursor: %v", err)
			}
		} else {
			cursors = decoded
		}
	}

	branches := make([]branchResult, len(list))
	g, gctx := errgroup.WithContext(ctx)
	for i, account := range list {
		branches[i].id = account.ID

		start := ""
		if c, present := cursors[account.ID]; present {
			if c == nil {
				continue
			}
			start = *c
		}

		g.Go(func() error {
			result, err := p.searcher.SearchPages(gctx, account.ID, query, start, p.pageSize)
			if err != nil {
				return &SearchFailedError{AccountID: account.ID, Err: err}
			}
			branches[i].ran = true
			branches[i].result = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page := &FederatedPage{}
	next := make(map[accounts.ID]*string, len(list))
	hasMore := false
	for _, b := range branches {
		next[b.id] = nil
		if !b.ran || b.result == nil {
			continue
		}
		page.Items = append(page.Items, b.result.Pages...)
		if b.result.HasMore && b.result.NextCursor != "" {
			c := b.result.NextCursor
			next[b.id] = &c
			hasMore = true
		}
	}

	sort.SliceStable(page.Items, func(i, j int) bool {
		return page.Items[i].LastEditedTime.After(page.Items[j].LastEditedTime)
	})

	if hasMore {
		encoded, err := EncodeCursor(next)
		if err != nil {
			return nil, err
		}
		page.NextCursor = encoded
	}
	return page, nil
}

// EncodeCursor serialises per-account cursors; nil marks an exhausted account
func EncodeCursor(cursors map[accounts.ID]*string) (string, error) {
	data, err := json.Marshal(cursors)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor parses a cursor produced by EncodeCursor
func DecodeCursor(cursor string) (map[accounts.ID]*string, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(cursor, "="))
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	var cursors map[accounts.ID]*string
	if err := json.Unmarshal(data, &cursors); err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	if cursors == nil {
		return nil, fmt.Errorf("decode cursor: not an object")
	}
	return cursors, nil
}

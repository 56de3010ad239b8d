package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/db"
	"github.com/ajramos/giznotion/internal/notion"
)

const (
	RecentPagesKey        = "RECENT_PAGES"
	LegacyRecentPagesKey  = "RECENTLY_OPENED_PAGES"
	RecentPagesVersionKey = "RECENT_PAGES_VERSION"

	recentPagesVersion = "2"

	// MaxRecentPages is the number of visits kept
	MaxRecentPages = 20
)

// RecentPage is one visited page or database
type RecentPage struct {
	ID              string      `json:"id"`
	AccountID       accounts.ID `json:"accountId"`
	Type            string      `json:"type"`
	LastVisitedTime int64       `json:"last_visited_time"`
}

// LastVisited returns the visit time
func (r RecentPage) LastVisited() time.Time {
	return time.UnixMilli(r.LastVisitedTime)
}

// storedEntry accepts both the current shape and legacy page objects
type storedEntry struct {
	ID              string      `json:"id"`
	AccountID       accounts.ID `json:"accountId"`
	Type            string      `json:"type"`
	Object          string      `json:"object"`
	LastVisitedTime int64       `json:"last_visited_time"`
}

func (e storedEntry) toRecent(fallback accounts.ID, now int64) RecentPage {
	r := RecentPage{ID: e.ID, AccountID: e.AccountID, Type: e.Type, LastVisitedTime: e.LastVisitedTime}
	if r.AccountID == "" {
		r.AccountID = fallback
	}
	if r.Type == "" {
		r.Type = e.Object
	}
	if r.Type == "" {
		r.Type = "page"
	}
	if r.LastVisitedTime == 0 {
		r.LastVisitedTime = now
	}
	return r
}

// RecentPagesStore persists the capped list of recently visited pages across accounts
type RecentPagesStore struct {
	storage  Storage
	registry *accounts.Registry
	active   ActiveAccountState
	clients  ClientProvider
	logger   *log.Logger
	now      func() time.Time

	mu sync.Mutex
}

// NewRecentPagesStore creates a store. clients is only needed by Hydrate.
func NewRecentPagesStore(storage Storage, registry *accounts.Registry, active ActiveAccountState, clients ClientProvider, logger *log.Logger) *RecentPagesStore {
	return &RecentPagesStore{
		storage:  storage,
		registry: registry,
		active:   active,
		clients:  clients,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns the recent pages, most recently visited first
func (s *RecentPagesStore) List(ctx context.Context) ([]RecentPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	pages, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].LastVisitedTime > pages[j].LastVisitedTime
	})
	return pages, nil
}

// RecordVisit marks page as visited now. A page already present for the same
// account has its timestamp refreshed; otherwise it is added and the oldest
// entries beyond MaxRecentPages are dropped.
func (s *RecentPagesStore) RecordVisit(ctx context.Context, page notion.Page) error {
	if page.ID == "" {
		return fmt.Errorf("%w: page id cannot be empty", ErrInvalidInput)
	}
	accountID := page.AccountID
	if accountID == "" && s.active != nil {
		id, err := s.active.Get(ctx)
		if err != nil {
			return err
		}
		accountID = id
	}
	if accountID == "" {
		accountID = s.registry.DefaultID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.migrate(ctx); err != nil {
		return err
	}
	pages, err := s.read(ctx)
	if err != nil {
		return err
	}

	now := s.now().UnixMilli()
	found := false
	for i := range pages {
		if pages[i].ID == page.ID && pages[i].AccountID == accountID {
			pages[i].LastVisitedTime = now
			found = true
			break
		}
	}
	if !found {
		kind := page.Object
		if kind == "" {
			kind = "page"
		}
		pages = append(pages, RecentPage{ID: page.ID, AccountID: accountID, Type: kind, LastVisitedTime: now})
	}

	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].LastVisitedTime < pages[j].LastVisitedTime
	})
	if len(pages) > MaxRecentPages {
		pages = pages[len(pages)-MaxRecentPages:]
	}
	return s.write(ctx, s.storage, pages)
}

// Remove deletes an entry. An empty accountID removes the page from every account.
func (s *RecentPagesStore) Remove(ctx context.Context, id string, accountID accounts.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.migrate(ctx); err != nil {
		return err
	}
	pages, err := s.read(ctx)
	if err != nil {
		return err
	}

	kept := pages[:0]
	for _, p := range pages {
		if p.ID == id && (accountID == "" || p.AccountID == accountID) {
			continue
		}
		kept = append(kept, p)
	}
	return s.write(ctx, s.storage, kept)
}

// Hydrate fetches the current page or database for each entry from its own
// account. Entries that cannot be fetched are left out. Order is preserved.
func (s *RecentPagesStore) Hydrate(ctx context.Context, entries []RecentPage) []notion.Page {
	if s.clients == nil || len(entries) == 0 {
		return nil
	}

	results := make([]*notion.Page, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, entry := range entries {
		if entry.AccountID == "" {
			entry.AccountID = s.registry.DefaultID()
		}
		g.Go(func() error {
			page, err := s.fetch(gctx, entry)
			if err != nil {
				if s.logger != nil {
					s.logger.Printf("recent pages: skipping %s (%s): %v", entry.ID, entry.AccountID, err)
				}
				return nil
			}
			page.AccountID = entry.AccountID
			results[i] = page
			return nil
		})
	}
	_ = g.Wait()

	pages := make([]notion.Page, 0, len(entries))
	for _, p := range results {
		if p != nil {
			pages = append(pages, *p)
		}
	}
	return pages
}

func (s *RecentPagesStore) fetch(ctx context.Context, entry RecentPage) (*notion.Page, error) {
	client, err := s.clients.GetClient(ctx, entry.AccountID)
	if err != nil {
		return nil, err
	}
	if entry.Type == "database" {
		return client.RetrieveDatabaseAsPage(ctx, entry.ID)
	}
	return client.RetrievePage(ctx, entry.ID)
}

// read returns the persisted entries in stored order. Corrupt data reads as empty.
func (s *RecentPagesStore) read(ctx context.Context) ([]RecentPage, error) {
	raw, found, err := s.storage.GetItem(ctx, RecentPagesKey)
	if err != nil {
		return nil, err
	}
	if !found || raw == "" {
		return nil, nil
	}
	entries, err := decodeEntries(raw)
	if err != nil {
		if s.logger != nil {
			s.logger.Printf("recent pages: discarding unreadable data: %v", err)
		}
		return nil, nil
	}
	return s.normalize(entries), nil
}

func (s *RecentPagesStore) normalize(entries []storedEntry) []RecentPage {
	fallback := s.registry.DefaultID()
	now := s.now().UnixMilli()
	pages := make([]RecentPage, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		pages = append(pages, e.toRecent(fallback, now))
	}
	return pages
}

func (s *RecentPagesStore) write(ctx context.Context, kv db.KV, pages []RecentPage) error {
	if pages == nil {
		pages = []RecentPage{}
	}
	data, err := json.Marshal(pages)
	if err != nil {
		return err
	}
	return kv.SetItem(context.WithoutCancel(ctx), RecentPagesKey, string(data))
}

func decodeEntries(raw string) ([]storedEntry, error) {
	var entries []storedEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// migrate upgrades the legacy single-account list once. It runs in a single
// transaction and is a no-op once the version marker is written.
func (s *RecentPagesStore) migrate(ctx context.Context) error {
	version, _, err := s.storage.GetItem(ctx, RecentPagesVersionKey)
	if err != nil {
		return err
	}
	if version == recentPagesVersion {
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	return s.storage.Update(ctx, func(tx db.KV) error {
		// re-check inside the transaction
		version, _, err := tx.GetItem(ctx, RecentPagesVersionKey)
		if err != nil {
			return err
		}
		if version == recentPagesVersion {
			return nil
		}

		current, hasCurrent, err := tx.GetItem(ctx, RecentPagesKey)
		if err != nil {
			return err
		}
		legacy, hasLegacy, err := tx.GetItem(ctx, LegacyRecentPagesKey)
		if err != nil {
			return err
		}

		// an empty current value counts as absent
		if (!hasCurrent || current == "") && hasLegacy {
			entries, err := decodeEntries(legacy)
			if err != nil {
				if s.logger != nil {
					s.logger.Printf("recent pages: legacy data unreadable, dropping: %v", err)
				}
				entries = nil
			}
			pages := s.normalize(entries)
			if len(pages) > MaxRecentPages {
				pages = pages[len(pages)-MaxRecentPages:]
			}
			if err := s.write(ctx, tx, pages); err != nil {
				return err
			}
			if s.logger != nil {
				s.logger.Printf("recent pages: migrated %d legacy entries", len(pages))
			}
		}
		if hasLegacy {
			if err := tx.RemoveItem(ctx, LegacyRecentPagesKey); err != nil {
				return err
			}
		}
		return tx.SetItem(ctx, RecentPagesVersionKey, recentPagesVersion)
	})
}

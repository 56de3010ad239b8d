package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ajramos/giznotion/internal/db"
)

// DatabaseViewsKey holds the per-database view settings
const DatabaseViewsKey = "DATABASES_VIEWS"

// DatabaseView is the saved view configuration of one database
type DatabaseView struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	// CreateProperties lists the property ids shown when creating a page
	CreateProperties []string `json:"create_properties,omitempty"`
}

// DatabaseViewStore reads and writes DatabaseView settings
type DatabaseViewStore struct {
	storage db.KV
	logger  *log.Logger
	mu      sync.Mutex
}

// NewDatabaseViewStore creates a store over storage
func NewDatabaseViewStore(storage db.KV, logger *log.Logger) *DatabaseViewStore {
	return &DatabaseViewStore{storage: storage, logger: logger}
}

// All returns every saved view keyed by database id
func (s *DatabaseViewStore) All(ctx context.Context) (map[string]DatabaseView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the view for databaseID, or the zero view
func (s *DatabaseViewStore) Get(ctx context.Context, databaseID string) (DatabaseView, error) {
	views, err := s.All(ctx)
	if err != nil {
		return DatabaseView{}, err
	}
	return views[databaseID], nil
}

// Set replaces the view for databaseID
func (s *DatabaseViewStore) Set(ctx context.Context, databaseID string, view DatabaseView) error {
	if strings.TrimSpace(databaseID) == "" {
		return fmt.Errorf("%w: database id cannot be empty", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	views, err := s.load(ctx)
	if err != nil {
		return err
	}
	views[databaseID] = view

	data, err := json.Marshal(views)
	if err != nil {
		return err
	}
	return s.storage.SetItem(context.WithoutCancel(ctx), DatabaseViewsKey, string(data))
}

func (s *DatabaseViewStore) load(ctx context.Context) (map[string]DatabaseView, error) {
	views := map[string]DatabaseView{}
	raw, found, err := s.storage.GetItem(ctx, DatabaseViewsKey)
	if err != nil {
		return nil, err
	}
	if !found || raw == "" {
		return views, nil
	}
	if err := json.Unmarshal([]byte(raw), &views); err != nil {
		if s.logger != nil {
			s.logger.Printf("database views: discarding unreadable data: %v", err)
		}
		return map[string]DatabaseView{}, nil
	}
	if views == nil {
		views = map[string]DatabaseView{}
	}
	return views, nil
}

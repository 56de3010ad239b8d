package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// KV is the key-value surface shared by KVStore and its transactions
type KV interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// kvOps implements KV on top of either a *sql.DB or a *sql.Tx
type kvOps struct {
	q   queryer
	now func() time.Time
}

func (o kvOps) GetItem(ctx context.Context, key string) (string, bool, error) {
	if strings.TrimSpace(key) == "" {
		return "", false, fmt.Errorf("empty storage key")
	}
	var value string
	err := o.q.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key=?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (o kvOps) SetItem(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty storage key")
	}
	_, err := o.q.ExecContext(ctx, `INSERT INTO local_storage(key, value, updated_at)
VALUES(?,?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at;
`, key, value, o.now().UnixMilli())
	return err
}

func (o kvOps) RemoveItem(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty storage key")
	}
	_, err := o.q.ExecContext(ctx, `DELETE FROM local_storage WHERE key=?`, key)
	return err
}

// KVStore persists string values by key, mirroring a launcher's LocalStorage
type KVStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewKVStore creates a key-value store from a base store
func NewKVStore(store *Store) *KVStore {
	if store == nil {
		return nil
	}
	return &KVStore{db: store.DB(), now: time.Now}
}

func (s *KVStore) ops() (kvOps, error) {
	if s == nil || s.db == nil {
		return kvOps{}, fmt.Errorf("kv store not initialized")
	}
	return kvOps{q: s.db, now: s.now}, nil
}

// GetItem returns the stored value and whether the key exists
func (s *KVStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	ops, err := s.ops()
	if err != nil {
		return "", false, err
	}
	return ops.GetItem(ctx, key)
}

// SetItem upserts the value for key
func (s *KVStore) SetItem(ctx context.Context, key, value string) error {
	ops, err := s.ops()
	if err != nil {
		return err
	}
	return ops.SetItem(ctx, key, value)
}

// RemoveItem deletes key; removing a missing key is not an error
func (s *KVStore) RemoveItem(ctx context.Context, key string) error {
	ops, err := s.ops()
	if err != nil {
		return err
	}
	return ops.RemoveItem(ctx, key)
}

// Update runs fn inside a single transaction. All writes made through tx are
// committed together, or none are when fn returns an error.
func (s *KVStore) Update(ctx context.Context, fn func(tx KV) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("kv store not initialized")
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin kv transaction: %w", err)
	}
	if err := fn(kvOps{q: sqlTx, now: s.now}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit kv transaction: %w", err)
	}
	return nil
}

// Keys lists all stored keys in lexical order
func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("kv store not initialized")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM local_storage ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

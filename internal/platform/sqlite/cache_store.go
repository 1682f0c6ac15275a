package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// CacheStore implements store.CacheStore on SQLite.
type CacheStore struct {
	db store.DBTX
}

// NewCacheStore creates a durable cache store.
func NewCacheStore(db store.DBTX) *CacheStore {
	return &CacheStore{db: db}
}

var _ store.CacheStore = (*CacheStore)(nil)

// GetEntry implements store.CacheStore.
func (s *CacheStore) GetEntry(ctx context.Context, key string) (*domain.CacheEntry, error) {
	var (
		e       domain.CacheEntry
		payload []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, payload, created_at FROM cache_entries WHERE key = ?`, key).
		Scan(&e.Key, &payload, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCacheEntryNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	e.Payload = payload
	return &e, nil
}

// SaveEntry implements store.CacheStore.
func (s *CacheStore) SaveEntry(ctx context.Context, entry *domain.CacheEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, payload, created_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		entry.Key, string(entry.Payload), entry.CreatedAt)
	return MapError(err)
}

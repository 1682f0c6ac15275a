package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// PostgresCacheStore implements store.CacheStore on PostgreSQL.
type PostgresCacheStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCacheStore creates a durable cache store.
func NewPostgresCacheStore(db store.DBTX, log *slog.Logger) *PostgresCacheStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresCacheStore{db: db, logger: log.With(slog.String("component", "cache_store"))}
}

var _ store.CacheStore = (*PostgresCacheStore)(nil)

// GetEntry implements store.CacheStore.
func (s *PostgresCacheStore) GetEntry(ctx context.Context, key string) (*domain.CacheEntry, error) {
	var (
		e       domain.CacheEntry
		payload []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, payload, created_at FROM cache_entries WHERE key = $1`, key).
		Scan(&e.Key, &payload, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCacheEntryNotFound
		}
		s.logger.Error("failed to read cache entry",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return nil, MapError(err)
	}
	e.Payload = payload
	return &e, nil
}

// SaveEntry implements store.CacheStore.
func (s *PostgresCacheStore) SaveEntry(ctx context.Context, entry *domain.CacheEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (key, payload, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, created_at = EXCLUDED.created_at`,
		entry.Key, string(entry.Payload), entry.CreatedAt)
	if err != nil {
		s.logger.Error("failed to write cache entry",
			slog.String("error", err.Error()),
			slog.String("key", entry.Key))
		return MapError(err)
	}
	return nil
}

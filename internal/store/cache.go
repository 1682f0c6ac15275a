package store

import (
	"context"

	"github.com/phrazzld/lexis/internal/domain"
)

// CacheStore is the durable tier of the cache manager.
type CacheStore interface {
	// GetEntry returns the entry stored under key.
	// Returns ErrCacheEntryNotFound when there is none.
	GetEntry(ctx context.Context, key string) (*domain.CacheEntry, error)

	// SaveEntry inserts or overwrites the entry under entry.Key.
	SaveEntry(ctx context.Context, entry *domain.CacheEntry) error
}

package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheKeyEmpty is returned when a cache entry has no key.
var ErrCacheKeyEmpty = errors.New("cache key cannot be empty")

// CacheEntry is a durable record of generated graph or label data.
type CacheEntry struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate checks if the entry can be stored.
func (e *CacheEntry) Validate() error {
	if e.Key == "" {
		return ErrCacheKeyEmpty
	}
	return nil
}

// Fresh reports whether the entry is younger than ttl at now.
func (e *CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) < ttl
}

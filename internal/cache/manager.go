package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// Default tunables.
const (
	DefaultTTL        = 30 * 24 * time.Hour
	DefaultMemorySize = 1024
)

// ErrGeneratorNil is returned when GetOrGenerate or Refresh get no generator.
var ErrGeneratorNil = errors.New("cache generator cannot be nil")

// ErrClaimEnded is returned when a claim is committed twice.
var ErrClaimEnded = errors.New("cache claim already ended")

// GenerateFunc produces the payload for a key on a miss.
type GenerateFunc func(ctx context.Context) (json.RawMessage, error)

// Options configures a Manager. Zero values fall back to the defaults.
type Options struct {
	TTL        time.Duration
	MemorySize int
	Now        func() time.Time
	Logger     *slog.Logger
}

// inflight is the sentinel placed in the memory tier while a key is being
// generated. done is closed once entry or err is set.
type inflight struct {
	done  chan struct{}
	entry *domain.CacheEntry
	err   error
}

func (f *inflight) resolve(entry *domain.CacheEntry, err error) {
	f.entry, f.err = entry, err
	close(f.done)
}

// Manager is the two-tier cache. It is safe for concurrent use.
type Manager struct {
	durable store.CacheStore
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.Mutex
	memory  *lru.Cache
	pending map[string]*inflight
}

// NewManager creates a Manager backed by durable.
func NewManager(durable store.CacheStore, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MemorySize <= 0 {
		opts.MemorySize = DefaultMemorySize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Manager{
		durable: durable,
		ttl:     opts.TTL,
		now:     opts.Now,
		logger:  opts.Logger.With("component", "cache_manager"),
		memory:  lru.New(opts.MemorySize),
		pending: make(map[string]*inflight),
	}
}

// Get looks the key up in memory, then in the durable tier. A fresh durable
// hit is copied into memory. A key that is currently being generated reports
// a miss. The boolean is false on a miss; err is only set when the durable
// tier failed.
func (m *Manager) Get(ctx context.Context, key string) (*domain.CacheEntry, bool, error) {
	m.mu.Lock()
	if entry, ok := m.memoryGet(key); ok {
		m.mu.Unlock()
		return entry, true, nil
	}
	m.mu.Unlock()

	entry, err := m.loadDurable(ctx, key)
	if err != nil || entry == nil {
		return nil, false, err
	}
	return entry, true, nil
}

// Populate writes payload to the durable tier with the current time, then to
// the memory tier, replacing any sentinel and waking its waiters. The memory
// tier is updated even when the durable write fails; the error is returned.
func (m *Manager) Populate(ctx context.Context, key string, payload json.RawMessage) (*domain.CacheEntry, error) {
	entry := &domain.CacheEntry{
		Key:       key,
		Payload:   payload,
		CreatedAt: m.now().UTC(),
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	var saveErr error
	if err := m.durable.SaveEntry(ctx, entry); err != nil {
		saveErr = fmt.Errorf("saving cache entry %q: %w", key, err)
		m.logger.WarnContext(ctx, "durable cache write failed",
			"key", key,
			"error", err)
	}

	m.mu.Lock()
	m.memory.Add(key, entry)
	f := m.pending[key]
	delete(m.pending, key)
	m.mu.Unlock()

	if f != nil {
		f.resolve(entry, nil)
	}
	return entry, saveErr
}

// GetOrGenerate returns the cached entry for key or generates it. Only one
// generation runs per key at a time: other callers wait on the in-flight
// sentinel and receive its result. A failed generation clears the sentinel
// so a later call may retry.
func (m *Manager) GetOrGenerate(ctx context.Context, key string, gen GenerateFunc) (*domain.CacheEntry, error) {
	if gen == nil {
		return nil, ErrGeneratorNil
	}

	for {
		m.mu.Lock()
		if entry, ok := m.memoryGet(key); ok {
			m.mu.Unlock()
			return entry, nil
		}
		if f, ok := m.pending[key]; ok {
			m.mu.Unlock()
			entry, err := m.wait(ctx, f)
			if entry == nil && err == nil {
				// A claim was released without an entry.
				continue
			}
			return entry, err
		}
		f := &inflight{done: make(chan struct{})}
		m.pending[key] = f
		m.mu.Unlock()

		entry, err := m.loadDurable(ctx, key)
		if err != nil {
			m.logger.WarnContext(ctx, "durable cache read failed, regenerating",
				"key", key,
				"error", err)
		}
		if entry != nil {
			m.settle(key, f, entry, nil)
			return entry, nil
		}

		return m.generate(ctx, key, f, gen)
	}
}

// Refresh regenerates key unconditionally, bypassing both tiers, and
// overwrites the stored entries.
func (m *Manager) Refresh(ctx context.Context, key string, gen GenerateFunc) (*domain.CacheEntry, error) {
	if gen == nil {
		return nil, ErrGeneratorNil
	}

	for {
		m.mu.Lock()
		f, ok := m.pending[key]
		if !ok {
			f = &inflight{done: make(chan struct{})}
			m.pending[key] = f
		}
		m.mu.Unlock()

		if !ok {
			return m.generate(ctx, key, f, gen)
		}
		// Someone else is already generating; their result is as fresh as ours.
		entry, err := m.wait(ctx, f)
		if entry == nil && err == nil {
			continue
		}
		return entry, err
	}
}

// Claim places the in-flight sentinel on key and returns the entry it
// currently holds, so a caller can extend a cached value without racing
// other writers. It waits while someone else holds the sentinel. The claim
// must end with Commit or Release.
func (m *Manager) Claim(ctx context.Context, key string) (*Claim, error) {
	for {
		m.mu.Lock()
		f, busy := m.pending[key]
		if !busy {
			f = &inflight{done: make(chan struct{})}
			m.pending[key] = f
			entry, _ := m.memoryGet(key)
			m.mu.Unlock()

			c := &Claim{m: m, key: key, f: f, entry: entry}
			if entry == nil {
				loaded, err := m.loadDurable(ctx, key)
				if err != nil {
					m.logger.WarnContext(ctx, "durable cache read failed, claiming empty",
						"key", key,
						"error", err)
				}
				c.entry = loaded
			}
			return c, nil
		}
		m.mu.Unlock()

		select {
		case <-f.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Invalidate drops key from the memory tier.
func (m *Manager) Invalidate(key string) {
	m.mu.Lock()
	m.memory.Remove(key)
	m.mu.Unlock()
}

// Len returns the number of entries in the memory tier.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memory.Len()
}

// TTL returns the durable freshness window.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) generate(ctx context.Context, key string, f *inflight, gen GenerateFunc) (*domain.CacheEntry, error) {
	payload, err := gen(ctx)
	if err != nil {
		m.logger.DebugContext(ctx, "cache generation failed",
			"key", key,
			"error", err)
		m.settle(key, f, nil, err)
		return nil, err
	}

	entry, err := m.Populate(ctx, key, payload)
	if entry == nil {
		// Validation failed before the sentinel could be replaced.
		m.settle(key, f, nil, err)
		return nil, err
	}
	// A durable write failure still leaves a usable entry in memory.
	return entry, nil
}

// settle resolves f and removes it from the pending set if it is still the
// sentinel for key. A successful entry is also placed in memory.
func (m *Manager) settle(key string, f *inflight, entry *domain.CacheEntry, err error) {
	m.mu.Lock()
	if m.pending[key] == f {
		delete(m.pending, key)
		if entry != nil {
			m.memory.Add(key, entry)
		}
	} else {
		// Populate already resolved this sentinel.
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	f.resolve(entry, err)
}

func (m *Manager) wait(ctx context.Context, f *inflight) (*domain.CacheEntry, error) {
	select {
	case <-f.done:
		return f.entry, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// memoryGet must be called with mu held.
func (m *Manager) memoryGet(key string) (*domain.CacheEntry, bool) {
	v, ok := m.memory.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*domain.CacheEntry), true
}

// loadDurable returns a fresh durable entry, copying it into memory, or nil.
func (m *Manager) loadDurable(ctx context.Context, key string) (*domain.CacheEntry, error) {
	entry, err := m.durable.GetEntry(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache entry %q: %w", key, err)
	}
	if !entry.Fresh(m.now(), m.ttl) {
		return nil, nil
	}

	m.mu.Lock()
	m.memory.Add(key, entry)
	m.mu.Unlock()
	return entry, nil
}

// Claim is a held in-flight sentinel. It is not safe for concurrent use.
type Claim struct {
	m     *Manager
	key   string
	f     *inflight
	entry *domain.CacheEntry
	ended bool
}

// Key returns the claimed key.
func (c *Claim) Key() string { return c.key }

// Current returns the payload cached when the claim was taken. The boolean is
// false on a miss.
func (c *Claim) Current() (json.RawMessage, bool) {
	if c.entry == nil {
		return nil, false
	}
	return c.entry.Payload, true
}

// Commit stores payload under the claimed key and ends the claim.
func (c *Claim) Commit(ctx context.Context, payload json.RawMessage) (*domain.CacheEntry, error) {
	if c.ended {
		return nil, ErrClaimEnded
	}
	c.ended = true
	entry, err := c.m.Populate(ctx, c.key, payload)
	if entry == nil {
		c.m.settle(c.key, c.f, c.entry, nil)
	}
	return entry, err
}

// Release ends the claim without writing. Waiters receive the entry that was
// current when the claim was taken. Calling Release after Commit is a no-op.
func (c *Claim) Release() {
	if c.ended {
		return
	}
	c.ended = true
	c.m.settle(c.key, c.f, c.entry, nil)
}

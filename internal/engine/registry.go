package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Factory creates and starts a session for a learner.
type Factory func(ctx context.Context, learnerID uuid.UUID) (*Session, error)

// NewFactory returns a Factory that builds sessions from shared deps.
func NewFactory(deps Deps, cfg Config) Factory {
	return func(ctx context.Context, learnerID uuid.UUID) (*Session, error) {
		s, err := NewSession(learnerID, deps, cfg)
		if err != nil {
			return nil, err
		}
		if err := s.Start(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}
}

// Registry keeps one live session per learner.
type Registry struct {
	factory Factory
	logger  *slog.Logger
	group   singleflight.Group

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry(factory Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory:  factory,
		logger:   logger.With("component", "session_registry"),
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Get returns the learner's session, creating it on first use. Concurrent
// first calls for the same learner share one creation.
func (r *Registry) Get(ctx context.Context, learnerID uuid.UUID) (*Session, error) {
	if s, ok := r.Lookup(learnerID); ok {
		return s, nil
	}

	v, err, _ := r.group.Do(learnerID.String(), func() (interface{}, error) {
		if s, ok := r.Lookup(learnerID); ok {
			return s, nil
		}
		s, err := r.factory(ctx, learnerID)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.sessions[learnerID] = s
		r.mu.Unlock()
		r.logger.InfoContext(ctx, "session created", "learner_id", learnerID)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// Lookup returns the learner's session without creating one.
func (r *Registry) Lookup(learnerID uuid.UUID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[learnerID]
	return s, ok
}

// Close ends and forgets the learner's session.
func (r *Registry) Close(learnerID uuid.UUID) bool {
	r.mu.Lock()
	s, ok := r.sessions[learnerID]
	delete(r.sessions, learnerID)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// CloseAll ends every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	r.logger.Info("all sessions closed", "count", len(sessions))
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

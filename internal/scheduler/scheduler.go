// Package scheduler sequences study groups: it decides where a learner
// resumes, loads each group into the rehearsal queue in an order that keeps
// related words together, and moves on when a group is finished.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/embedding"
	"github.com/phrazzld/lexis/internal/store"
)

// Queue receives the cards of a loaded group.
type Queue interface {
	Initialize(cards []*domain.Card)
}

// Loaded describes a group that has just been loaded into the queue. Epoch
// increases with every load; asynchronous work started for a group should
// be dropped when the scheduler's epoch has moved on.
type Loaded struct {
	Index int
	Group *domain.GroupDescriptor
	Queue []*domain.Card
	Epoch uint64
}

// Hooks are called synchronously after the matching state change.
type Hooks struct {
	OnGroupLoaded func(ctx context.Context, loaded Loaded)
	OnComplete    func(ctx context.Context)
}

// Scheduler owns the group sequence of one session.
type Scheduler struct {
	cards  store.CardStore
	embed  embedding.Service
	queue  Queue
	hooks  Hooks
	logger *slog.Logger

	mu       sync.Mutex
	groups   []*domain.GroupDescriptor
	current  int
	epoch    uint64
	complete bool
}

// New creates a Scheduler.
func New(cards store.CardStore, embed embedding.Service, queue Queue, hooks Hooks, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cards:   cards,
		embed:   embed,
		queue:   queue,
		hooks:   hooks,
		logger:  logger.With("component", "group_scheduler"),
		current: -1,
	}
}

// Resume re-reads every card of groups from the store, then loads the first
// group that still has rehearsal to do. When every group is complete it
// starts over at the first group. It returns the loaded index.
func (s *Scheduler) Resume(ctx context.Context, groups []*domain.GroupDescriptor) (int, error) {
	if len(groups) == 0 {
		return -1, fmt.Errorf("%w: no groups to resume", domain.ErrGroupIndexOutOfRange)
	}
	if err := s.refresh(ctx, groups); err != nil {
		return -1, err
	}

	s.mu.Lock()
	s.groups = groups
	s.complete = false
	s.mu.Unlock()

	start := 0
	for i, g := range groups {
		if !g.IsComplete() {
			start = i
			break
		}
	}

	s.logger.Info("resuming session", "group_count", len(groups), "start_index", start)
	if _, err := s.LoadGroup(ctx, start); err != nil {
		return -1, err
	}
	return start, nil
}

// LoadGroup orders the group at index by embedding similarity, queues its
// pending cards and fires OnGroupLoaded.
func (s *Scheduler) LoadGroup(ctx context.Context, index int) (*domain.GroupDescriptor, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.groups) {
		n := len(s.groups)
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d of %d", domain.ErrGroupIndexOutOfRange, index, n)
	}
	group := s.groups[index]
	s.mu.Unlock()

	words := make([]string, len(group.Items))
	for i, c := range group.Items {
		words[i] = domain.NormalizeWord(c.Word)
	}
	vectors := s.embed.EmbedAll(ctx, words)
	ordered := ChainOrder(group.Items, vectors, s.embed.Similarity)

	pending := make([]*domain.Card, 0, len(ordered))
	for _, c := range ordered {
		if !c.IsTerminal() {
			pending = append(pending, c)
		}
	}

	s.mu.Lock()
	group.Items = ordered
	s.current = index
	s.complete = false
	s.epoch++
	loaded := Loaded{Index: index, Group: group, Queue: pending, Epoch: s.epoch}
	s.mu.Unlock()

	s.queue.Initialize(pending)
	s.logger.Debug("group loaded",
		"group_index", index,
		"group_label", group.Label,
		"queued", len(pending),
		"embedded", len(vectors),
		"epoch", loaded.Epoch)

	if s.hooks.OnGroupLoaded != nil {
		s.hooks.OnGroupLoaded(ctx, loaded)
	}
	return group, nil
}

// Advance loads the next incomplete group after the current one. When none
// is left it marks the session complete, fires OnComplete and reports done.
func (s *Scheduler) Advance(ctx context.Context) (index int, done bool, err error) {
	s.mu.Lock()
	next := -1
	for i := s.current + 1; i < len(s.groups); i++ {
		if !s.groups[i].IsComplete() {
			next = i
			break
		}
	}
	if next < 0 {
		already := s.complete
		s.complete = true
		s.epoch++
		s.mu.Unlock()

		if !already {
			s.logger.Info("session complete", "group_count", len(s.groups))
			if s.hooks.OnComplete != nil {
				s.hooks.OnComplete(ctx)
			}
		}
		s.queue.Initialize(nil)
		return -1, true, nil
	}
	s.mu.Unlock()

	if _, err := s.LoadGroup(ctx, next); err != nil {
		return -1, false, err
	}
	return next, false, nil
}

// Current returns the loaded group and its index, or -1 before the first load.
func (s *Scheduler) Current() (int, *domain.GroupDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < 0 || s.current >= len(s.groups) {
		return -1, nil
	}
	return s.current, s.groups[s.current]
}

// Epoch identifies the current load.
func (s *Scheduler) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Complete reports whether Advance ran out of groups.
func (s *Scheduler) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete
}

// Groups returns the scheduled groups.
func (s *Scheduler) Groups() []*domain.GroupDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.GroupDescriptor(nil), s.groups...)
}

// refresh replaces each group's Items with canonical cards from the store,
// in CardIDs order. Ids that no longer resolve are dropped.
func (s *Scheduler) refresh(ctx context.Context, groups []*domain.GroupDescriptor) error {
	var ids []uuid.UUID
	for _, g := range groups {
		ids = append(ids, g.CardIDs...)
	}

	cards, err := s.cards.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to refresh group cards: %w", err)
	}
	byID := store.IndexCards(cards)

	for _, g := range groups {
		items := make([]*domain.Card, 0, len(g.CardIDs))
		for _, id := range g.CardIDs {
			card, ok := byID[id]
			if !ok {
				s.logger.Warn("dropping unresolved card from group",
					"group_id", g.ID,
					"card_id", id)
				continue
			}
			items = append(items, card)
		}
		g.Items = items
	}
	return nil
}

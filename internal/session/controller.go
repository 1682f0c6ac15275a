package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/platform/logger"
)

// DefaultReinsertOffset is how far behind the head a demoted item lands.
const DefaultReinsertOffset = 2

// RatingNotice is surfaced once per session when a rating could not be saved.
const RatingNotice = "Some progress could not be saved. Your session continues and will sync later."

// Rater is the external rating service. It returns the card with updated
// scheduling fields.
type Rater interface {
	Rate(ctx context.Context, card *domain.Card, grade domain.Grade) (*domain.Card, error)
}

// Outcome names what a transition did.
type Outcome string

// Transition outcomes
const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeRequeued  Outcome = "requeued"
	OutcomeDemoted   Outcome = "demoted"
	OutcomeGraduated Outcome = "graduated"
	OutcomeRemoved   Outcome = "removed"
)

// Transition reports the effect of one intent.
type Transition struct {
	CardID  uuid.UUID    `json:"card_id"`
	Applied bool         `json:"applied"`
	Outcome Outcome      `json:"outcome"`
	From    domain.Phase `json:"from,omitempty"`
	To      domain.Phase `json:"to,omitempty"`
	// Index is the item's position after the transition, -1 once removed.
	Index int `json:"index"`
	// RatingErr is set when a graduation could not be rated.
	RatingErr error `json:"-"`
}

func ignored(id uuid.UUID) Transition {
	return Transition{CardID: id, Outcome: OutcomeIgnored, Index: -1}
}

// Config configures a Controller.
type Config struct {
	ReinsertOffset int
	Logger         *slog.Logger
	// Shuffle permutes multiple-choice options. Defaults to math/rand/v2.
	Shuffle func(n int, swap func(i, j int))
}

// Controller owns the rehearsal queue of the active batch. It is safe for
// concurrent use; transitions for one card never overlap.
type Controller struct {
	rater   Rater
	offset  int
	logger  *slog.Logger
	shuffle func(n int, swap func(i, j int))

	mu       sync.Mutex
	queue    []*domain.SessionItem
	meanings []string
	inflight map[uuid.UUID]struct{}
	noticed  bool
	notice   string
}

// NewController creates a Controller that reports graduations to rater.
func NewController(rater Rater, cfg Config) (*Controller, error) {
	if rater == nil {
		return nil, ErrRaterNil
	}
	if cfg.ReinsertOffset <= 0 {
		cfg.ReinsertOffset = DefaultReinsertOffset
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Shuffle == nil {
		cfg.Shuffle = rand.Shuffle
	}
	return &Controller{
		rater:    rater,
		offset:   cfg.ReinsertOffset,
		logger:   cfg.Logger.With("component", "session_controller"),
		shuffle:  cfg.Shuffle,
		inflight: make(map[uuid.UUID]struct{}),
	}, nil
}

// Initialize replaces the queue with one Learn item per card, in order.
// Nil cards and repeated ids are dropped.
func (c *Controller) Initialize(cards []*domain.Card) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[uuid.UUID]struct{}, len(cards))
	c.queue = make([]*domain.SessionItem, 0, len(cards))
	c.meanings = c.meanings[:0]
	for _, card := range cards {
		if card == nil {
			continue
		}
		if _, dup := seen[card.ID]; dup {
			c.logger.Warn("dropping duplicate card from queue", "card_id", card.ID)
			continue
		}
		seen[card.ID] = struct{}{}
		c.queue = append(c.queue, domain.NewSessionItem(card))
		c.meanings = append(c.meanings, card.Meaning)
	}
}

// Know moves a Learn item to Choice in place.
func (c *Controller) Know(ctx context.Context, id uuid.UUID) Transition {
	return c.transition(ctx, id, domain.PhaseLearn, func(i int, item *domain.SessionItem) Transition {
		item.Phase = domain.PhaseChoice
		return Transition{Outcome: OutcomeAdvanced, To: domain.PhaseChoice, Index: i}
	})
}

// Forgot moves a Learn item to the tail of the queue.
func (c *Controller) Forgot(ctx context.Context, id uuid.UUID) Transition {
	return c.transition(ctx, id, domain.PhaseLearn, func(i int, item *domain.SessionItem) Transition {
		c.queue = slices.Delete(c.queue, i, i+1)
		c.queue = append(c.queue, item)
		return Transition{Outcome: OutcomeRequeued, To: domain.PhaseLearn, Index: len(c.queue) - 1}
	})
}

// ChooseAnswer grades a multiple-choice answer. A correct meaning promotes
// the item to Test, a wrong one demotes it to Learn; both reinsert it near
// the head.
func (c *Controller) ChooseAnswer(ctx context.Context, id uuid.UUID, selected string) Transition {
	return c.transition(ctx, id, domain.PhaseChoice, func(i int, item *domain.SessionItem) Transition {
		if strings.TrimSpace(selected) == strings.TrimSpace(item.Card.Meaning) {
			item.Phase = domain.PhaseTest
			return Transition{Outcome: OutcomeAdvanced, To: domain.PhaseTest, Index: c.reinsert(i, item)}
		}
		item.Phase = domain.PhaseLearn
		item.Misses++
		return Transition{Outcome: OutcomeDemoted, To: domain.PhaseLearn, Index: c.reinsert(i, item)}
	})
}

// SubmitSpelling grades a typed answer, ignoring case and surrounding space.
// A correct spelling removes the item and rates the card with a pass grade.
func (c *Controller) SubmitSpelling(ctx context.Context, id uuid.UUID, text string) Transition {
	var graduated *domain.SessionItem
	t := c.transition(ctx, id, domain.PhaseTest, func(i int, item *domain.SessionItem) Transition {
		if strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(item.Card.Word)) {
			c.queue = slices.Delete(c.queue, i, i+1)
			c.inflight[id] = struct{}{}
			graduated = item
			return Transition{Outcome: OutcomeGraduated, Index: -1}
		}
		item.Phase = domain.PhaseLearn
		item.Misses++
		return Transition{Outcome: OutcomeDemoted, To: domain.PhaseLearn, Index: c.reinsert(i, item)}
	})
	if graduated == nil {
		return t
	}

	t.RatingErr = c.rate(ctx, graduated.Card)
	return t
}

// Remove drops the item for id regardless of its phase. It is used when a
// card becomes familiar mid-session.
func (c *Controller) Remove(id uuid.UUID) Transition {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return ignored(id)
	}
	from := c.queue[i].Phase
	c.queue = slices.Delete(c.queue, i, i+1)
	return Transition{CardID: id, Applied: true, Outcome: OutcomeRemoved, From: from, Index: -1}
}

// Head returns a copy of the item at the front of the queue.
func (c *Controller) Head() (domain.SessionItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return domain.SessionItem{}, false
	}
	return snapshotItem(c.queue[0]), true
}

// Items returns copies of the queued items in order.
func (c *Controller) Items() []domain.SessionItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.SessionItem, len(c.queue))
	for i, item := range c.queue {
		out[i] = snapshotItem(item)
	}
	return out
}

// snapshotItem copies item together with its card, so callers can read it
// after mu is released while grading keeps updating the live card.
func snapshotItem(item *domain.SessionItem) domain.SessionItem {
	cp := *item
	cp.Card = item.Card.Clone()
	return cp
}

// Len returns the number of queued items.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Choices returns up to n shuffled meanings for the item: its own meaning
// plus distinct distractors from the rest of the batch.
func (c *Controller) Choices(id uuid.UUID, n int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	correct := c.queue[i].Card.Meaning
	if n < 1 {
		n = 1
	}

	choices := []string{correct}
	for _, m := range c.meanings {
		if len(choices) == n {
			break
		}
		if !slices.Contains(choices, m) {
			choices = append(choices, m)
		}
	}
	c.shuffle(len(choices), func(a, b int) { choices[a], choices[b] = choices[b], choices[a] })
	return choices, nil
}

// TakeNotice returns the pending user-facing notice and clears it.
func (c *Controller) TakeNotice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.notice
	c.notice = ""
	return n
}

// transition runs apply for the item with id when it is queued, idle and in
// the expected phase. apply runs with the lock held and the item's index.
func (c *Controller) transition(
	ctx context.Context,
	id uuid.UUID,
	want domain.Phase,
	apply func(i int, item *domain.SessionItem) Transition,
) Transition {
	log := logger.FromContextOrDefault(ctx).With("component", "session_controller", "card_id", id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inflight[id]; busy {
		log.Debug("ignoring intent for item with a transition in flight")
		return ignored(id)
	}
	i := c.indexOf(id)
	if i < 0 {
		log.Debug("ignoring intent for item not in queue")
		return ignored(id)
	}
	item := c.queue[i]
	if item.Phase != want {
		log.Debug("ignoring intent for item in another phase", "phase", item.Phase, "expected", want)
		return ignored(id)
	}

	t := apply(i, item)
	t.CardID = id
	t.Applied = true
	t.From = want
	log.Debug("session transition", "from", t.From, "to", t.To, "outcome", t.Outcome, "index", t.Index)
	return t
}

// reinsert moves the item at i to min(len after removal, offset).
// Must be called with c.mu held.
func (c *Controller) reinsert(i int, item *domain.SessionItem) int {
	c.queue = slices.Delete(c.queue, i, i+1)
	at := min(len(c.queue), c.offset)
	c.queue = slices.Insert(c.queue, at, item)
	return at
}

// rate reports a pass for card. Failures are logged and raise the one-time
// notice; the item stays removed either way.
func (c *Controller) rate(ctx context.Context, card *domain.Card) error {
	defer func() {
		c.mu.Lock()
		delete(c.inflight, card.ID)
		c.mu.Unlock()
	}()

	updated, err := c.rater.Rate(ctx, card.Clone(), domain.GradePass)
	if err != nil {
		logger.FromContextOrDefault(ctx).Error("failed to rate graduated card",
			"component", "session_controller",
			"card_id", card.ID,
			"error", err)
		c.mu.Lock()
		if !c.noticed {
			c.noticed = true
			c.notice = RatingNotice
		}
		c.mu.Unlock()
		return err
	}

	if updated != nil {
		c.mu.Lock()
		*card = *updated
		c.mu.Unlock()
	}
	return nil
}

func (c *Controller) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(c.queue, func(item *domain.SessionItem) bool {
		return item.Card.ID == id
	})
}

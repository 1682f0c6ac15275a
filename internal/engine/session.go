package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/cache"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/embedding"
	"github.com/phrazzld/lexis/internal/events"
	"github.com/phrazzld/lexis/internal/generation"
	"github.com/phrazzld/lexis/internal/graph"
	"github.com/phrazzld/lexis/internal/layout"
	"github.com/phrazzld/lexis/internal/scheduler"
	"github.com/phrazzld/lexis/internal/session"
	"github.com/phrazzld/lexis/internal/store"
	"github.com/phrazzld/lexis/internal/task"
	"github.com/phrazzld/lexis/internal/viewport"
)

// PersistNotice is surfaced once when a familiarity flag could not be saved.
const PersistNotice = "A change could not be saved. It will apply for this session only."

// Rater is the rating service contract used on graduation.
type Rater = session.Rater

// Deps are the external collaborators of a Session. Generator may be nil,
// in which case graphs are built without labels or examples.
type Deps struct {
	Cards      store.CardStore
	Groups     store.GroupStore
	CacheStore store.CacheStore
	Rater      Rater
	Generator  generation.Generator
	Embedder   embedding.Embedder
	Logger     *slog.Logger
}

func (d Deps) validate() error {
	switch {
	case d.Cards == nil:
		return fmt.Errorf("%w: card store", ErrMissingDependency)
	case d.Groups == nil:
		return fmt.Errorf("%w: group store", ErrMissingDependency)
	case d.CacheStore == nil:
		return fmt.Errorf("%w: cache store", ErrMissingDependency)
	case d.Rater == nil:
		return fmt.Errorf("%w: rater", ErrMissingDependency)
	case d.Embedder == nil:
		return fmt.Errorf("%w: embedder", ErrMissingDependency)
	}
	return nil
}

// Session is one learner's learning session.
type Session struct {
	learnerID uuid.UUID
	cfg       Config
	cards     store.CardStore
	groups    store.GroupStore
	logger    *slog.Logger
	now       func() time.Time

	cache      *cache.Manager
	embed      embedding.Service
	builder    *graph.Builder
	controller *session.Controller
	sched      *scheduler.Scheduler
	augmenter  *layout.Augmenter
	framer     *viewport.Framer
	emitter    *events.InMemoryEmitter
	recorder   *events.Recorder
	queue      *task.TaskQueue
	pool       *task.WorkerPool

	// corpus is fixed at Start and read by graph tasks without the lock.
	corpus []string

	mu         sync.Mutex
	started    bool
	closed     bool
	complete   bool
	graph      *domain.Graph
	graphError string
	gravity    []layout.GravityEdge
	positions  map[string]viewport.Point
	viewW      float64
	viewH      float64
	focus      []string
	choices    map[uuid.UUID][]string
	noticed    bool
	notice     string
}

// NewSession creates a Session for learnerID. It does nothing until Start.
func NewSession(learnerID uuid.UUID, deps Deps, cfg Config) (*Session, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Generator == nil {
		deps.Generator = generation.Unavailable{}
	}
	if cfg.ChoiceCount <= 0 {
		cfg.ChoiceCount = DefaultChoiceCount
	}
	if cfg.LayoutTicks <= 0 {
		cfg.LayoutTicks = DefaultLayoutTicks
	}

	logger := deps.Logger.With("learner_id", learnerID)

	s := &Session{
		learnerID: learnerID,
		cfg:       cfg,
		cards:     deps.Cards,
		groups:    deps.Groups,
		logger:    logger.With("component", "session"),
		now:       time.Now,
		augmenter: layout.NewAugmenter(cfg.GravityThreshold),
		framer:    viewport.NewFramer(cfg.Viewport),
		viewW:     DefaultViewportWidth,
		viewH:     DefaultViewportHeight,
		choices:   make(map[uuid.UUID][]string),
	}

	s.cache = cache.NewManager(deps.CacheStore, cache.Options{
		TTL:        cfg.CacheTTL,
		MemorySize: cfg.MemoryCacheSize,
		Logger:     logger,
	})
	s.embed = embedding.NewVectorService(deps.Embedder, s.cache, logger)
	s.builder = graph.NewBuilder(s.embed, deps.Generator, s.cache, cfg.Graph, logger)

	controller, err := session.NewController(deps.Rater, session.Config{Logger: logger})
	if err != nil {
		return nil, err
	}
	s.controller = controller
	s.sched = scheduler.New(deps.Cards, s.embed, controller, scheduler.Hooks{
		OnGroupLoaded: s.onGroupLoaded,
		OnComplete:    s.onComplete,
	}, logger)

	s.queue = task.NewTaskQueue(cfg.QueueSize, logger)
	s.pool = task.NewWorkerPool(context.Background(), s.queue, task.WorkerPoolConfig{
		WorkerCount: cfg.Workers,
		TaskTimeout: cfg.TaskTimeout,
	}, logger)

	s.emitter = events.NewInMemoryEmitter(logger)
	s.recorder = events.NewRecorder(DefaultEventHistory)
	s.emitter.RegisterHandler(s.recorder)

	tasks := task.NewFactoryEventHandler(s.queue, logger)
	tasks.Register(events.TypeGroupLoaded, s.graphTaskForEvent)
	tasks.Register(events.TypeGraphReady, s.exampleTaskForEvent)
	s.emitter.RegisterHandler(tasks)

	return s, nil
}

// LearnerID returns the learner the session belongs to.
func (s *Session) LearnerID() uuid.UUID {
	return s.learnerID
}

// Emitter exposes the session's emitter so callers can subscribe.
func (s *Session) Emitter() *events.InMemoryEmitter {
	return s.emitter
}

// Events returns the most recent session events, oldest first.
func (s *Session) Events() []*events.Event {
	return s.recorder.Events()
}

// Start loads the learner's groups and corpus, starts the worker pool and
// resumes at the first unfinished group. Calling it again is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.started {
		return nil
	}

	groups, err := s.groups.ListGroups(ctx, s.learnerID)
	if err != nil {
		return fmt.Errorf("failed to load groups: %w", err)
	}
	if len(groups) == 0 {
		return ErrNoGroups
	}

	cards, err := s.cards.ListByUser(ctx, s.learnerID)
	if err != nil {
		return fmt.Errorf("failed to load corpus: %w", err)
	}
	s.corpus = make([]string, 0, len(cards))
	for _, c := range cards {
		if !c.IsTerminal() {
			s.corpus = append(s.corpus, c.Word)
		}
	}

	s.pool.Start()
	index, err := s.sched.Resume(ctx, groups)
	if err != nil {
		return fmt.Errorf("failed to resume session: %w", err)
	}
	s.started = true
	s.logger.InfoContext(ctx, "session started", "group_index", index, "corpus_size", len(s.corpus))

	if s.controller.Len() == 0 {
		s.advance(ctx)
	}
	return nil
}

// Close stops background work. Pending graph builds are abandoned.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.pool.Stop()
	s.queue.Close()
	s.logger.Debug("session closed")
}

// Know marks the Learn item for cardID as known.
func (s *Session) Know(ctx context.Context, cardID uuid.UUID) (session.Transition, error) {
	return s.apply(ctx, func() session.Transition { return s.controller.Know(ctx, cardID) })
}

// Forgot sends the Learn item for cardID to the back of the queue.
func (s *Session) Forgot(ctx context.Context, cardID uuid.UUID) (session.Transition, error) {
	return s.apply(ctx, func() session.Transition { return s.controller.Forgot(ctx, cardID) })
}

// ChooseAnswer grades a multiple-choice answer.
func (s *Session) ChooseAnswer(ctx context.Context, cardID uuid.UUID, selected string) (session.Transition, error) {
	return s.apply(ctx, func() session.Transition { return s.controller.ChooseAnswer(ctx, cardID, selected) })
}

// SubmitSpelling grades a typed answer.
func (s *Session) SubmitSpelling(ctx context.Context, cardID uuid.UUID, text string) (session.Transition, error) {
	return s.apply(ctx, func() session.Transition { return s.controller.SubmitSpelling(ctx, cardID, text) })
}

// MarkFamiliar flags the card as mastered and removes it from the queue in
// whatever phase it is. A card outside the current group is still flagged
// when the learner owns it; the transition then reports applied=false.
// Cards of other learners are rejected with ErrForeignCard and left
// untouched. A failed save keeps the local change and raises a one-time
// notice.
func (s *Session) MarkFamiliar(ctx context.Context, cardID uuid.UUID) (session.Transition, error) {
	var rejected error
	t, err := s.apply(ctx, func() session.Transition {
		card := s.findCard(cardID)
		if card == nil {
			fetched, err := s.cards.GetByID(ctx, cardID)
			if err != nil {
				s.logger.WarnContext(ctx, "familiar card not found", "card_id", cardID, "error", err)
				return s.controller.Remove(cardID)
			}
			if fetched.UserID != s.learnerID {
				s.logger.WarnContext(ctx, "familiar intent for foreign card rejected",
					"card_id", cardID,
					"owner_id", fetched.UserID)
				rejected = ErrForeignCard
				return s.controller.Remove(cardID)
			}
			card = fetched
		}

		card.MarkFamiliar(s.now().UTC())
		if err := s.cards.Save(ctx, card); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist familiar flag", "card_id", cardID, "error", err)
			s.raiseNotice(PersistNotice)
		}
		return s.controller.Remove(cardID)
	})
	if err != nil {
		return t, err
	}
	return t, rejected
}

// Choices returns the multiple-choice options for a queued card. They stay
// stable until the card transitions again.
func (s *Session) Choices(cardID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.choicesFor(cardID)
}

// NodeClicked focuses the camera on a node and its neighbours. It reports
// false when the node is not part of the current graph.
func (s *Session) NodeClicked(ctx context.Context, nodeID string) (viewport.Camera, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graph.Node(nodeID); !ok {
		s.logger.DebugContext(ctx, "ignoring click on unknown node", "node_id", nodeID)
		return viewport.Camera{}, false
	}
	s.focus = append([]string{nodeID}, s.graph.Neighbors(nodeID)...)
	return s.frame(nil)
}

// OverlayMoved reframes for a moved overlay. While dragging, the rect is
// used for this call only; a final position replaces the stored overlay.
func (s *Session) OverlayMoved(rect viewport.Rect, dragging bool) (viewport.Camera, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dragging {
		return s.frame(&rect)
	}
	s.framer.SetOverlay(&rect)
	return s.frame(nil)
}

// PositionUpdate carries node positions reported by the presentation
// layer's physics simulation.
type PositionUpdate struct {
	ViewportWidth  float64                   `json:"viewport_width"`
	ViewportHeight float64                   `json:"viewport_height"`
	Positions      map[string]viewport.Point `json:"positions"`
}

// UpdatePositions records reported positions for nodes of the current graph
// and returns how many were accepted.
func (s *Session) UpdatePositions(update PositionUpdate) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if update.ViewportWidth > 0 && update.ViewportHeight > 0 {
		s.viewW, s.viewH = update.ViewportWidth, update.ViewportHeight
	}
	if s.graph == nil {
		return 0
	}
	if s.positions == nil {
		s.positions = make(map[string]viewport.Point)
	}
	accepted := 0
	for id, p := range update.Positions {
		if _, ok := s.graph.Node(id); ok {
			s.positions[id] = p
			accepted++
		}
	}
	return accepted
}

// EdgeExample returns the example sentence for an edge of the current
// graph, generating it on first request. Generation failures yield "".
func (s *Session) EdgeExample(ctx context.Context, source, target string) (string, error) {
	s.mu.Lock()
	edge, ok := s.findEdge(source, target)
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s-%s", ErrUnknownEdge, source, target)
	}

	text, err := s.builder.Example(ctx, edge, false)
	if err != nil {
		s.logger.DebugContext(ctx, "edge example unavailable",
			"source", edge.Source,
			"target", edge.Target,
			"error", err)
		return "", nil
	}
	return text, nil
}

// RebuildGraph regenerates the current group's graph, bypassing cached
// labels.
func (s *Session) RebuildGraph(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	if s.closed {
		return ErrClosed
	}
	_, group := s.sched.Current()
	if group == nil {
		return nil
	}

	t, err := s.newGraphTask(s.sched.Epoch(), groupWords(group), true)
	if err != nil {
		return err
	}
	return s.queue.Enqueue(t)
}

// CardGraph builds the graph for a single card synchronously.
func (s *Session) CardGraph(ctx context.Context, cardID uuid.UUID, refresh bool) (*domain.Graph, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return s.builder.BuildForCard(ctx, card, s.corpus, refresh)
}

// apply runs one controller intent and its follow-up under the session lock.
func (s *Session) apply(ctx context.Context, intent func() session.Transition) (session.Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return session.Transition{}, ErrClosed
	}
	if !s.started {
		return session.Transition{}, ErrNotStarted
	}

	t := intent()
	if !t.Applied {
		return t, nil
	}

	delete(s.choices, t.CardID)
	s.focus = nil
	s.emitTransition(ctx, t)

	if s.controller.Len() == 0 {
		s.advance(ctx)
	}
	return t, nil
}

func (s *Session) emitTransition(ctx context.Context, t session.Transition) {
	card := s.findCard(t.CardID)
	payload := events.ItemChanged{CardID: t.CardID, Phase: string(t.To), Index: t.Index}
	if card != nil {
		payload.Word = card.Word
	}

	switch t.Outcome {
	case session.OutcomeGraduated:
		s.emit(ctx, events.TypeItemGraduated, payload)
	case session.OutcomeDemoted:
		for _, item := range s.controller.Items() {
			if item.Card.ID == t.CardID {
				payload.Misses = item.Misses
			}
		}
		s.emit(ctx, events.TypeItemDemoted, payload)
	case session.OutcomeRemoved:
		s.emit(ctx, events.TypeItemRemoved, payload)
	}

	if t.RatingErr != nil {
		s.emit(ctx, events.TypeRatingFailed, events.RatingFailed{CardID: t.CardID, Notice: session.RatingNotice})
	}
}

// advance moves to the next group once the queue is empty.
// Must be called with s.mu held.
func (s *Session) advance(ctx context.Context) {
	if s.sched.Complete() {
		return
	}
	if _, _, err := s.sched.Advance(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to advance to next group", "error", err)
	}
}

// onGroupLoaded runs inside scheduler calls, so s.mu is already held.
func (s *Session) onGroupLoaded(ctx context.Context, loaded scheduler.Loaded) {
	s.graph = nil
	s.graphError = ""
	s.gravity = nil
	s.positions = nil
	s.focus = nil
	s.choices = make(map[uuid.UUID][]string)

	s.emit(ctx, events.TypeGroupLoaded, events.GroupLoaded{
		Index:  loaded.Index,
		Label:  loaded.Group.Label,
		Words:  groupWords(loaded.Group),
		Queued: len(loaded.Queue),
		Epoch:  loaded.Epoch,
	})
}

// onComplete runs inside scheduler calls, so s.mu is already held.
func (s *Session) onComplete(ctx context.Context) {
	s.complete = true
	s.emit(ctx, events.TypeSessionCompleted, nil)
}

// graphTaskForEvent is the task factory for group.loaded events. It runs
// synchronously inside onGroupLoaded and must not take s.mu.
func (s *Session) graphTaskForEvent(ctx context.Context, event *events.Event) (task.Task, error) {
	var p events.GroupLoaded
	if err := event.UnmarshalPayload(&p); err != nil {
		return nil, fmt.Errorf("invalid group.loaded payload: %w", err)
	}
	if len(p.Words) == 0 {
		return nil, nil
	}
	return s.newGraphTask(p.Epoch, p.Words, false)
}

// exampleTaskForEvent is the task factory for graph.ready events. It runs
// inside applyGraph with s.mu held. The task warms the example cache for the
// edges around the queue head so the first hover is served from the cache.
func (s *Session) exampleTaskForEvent(ctx context.Context, event *events.Event) (task.Task, error) {
	if s.cfg.ExamplePrefetch <= 0 || s.graph == nil {
		return nil, nil
	}
	var p events.GraphChanged
	if err := event.UnmarshalPayload(&p); err != nil {
		return nil, fmt.Errorf("invalid graph.ready payload: %w", err)
	}
	head, ok := s.controller.Head()
	if !ok {
		return nil, nil
	}

	var edges []domain.GraphEdge
	for _, e := range s.graph.Edges {
		if e.Source == head.NodeID || e.Target == head.NodeID {
			edges = append(edges, e)
		}
		if len(edges) == s.cfg.ExamplePrefetch {
			break
		}
	}
	if len(edges) == 0 {
		return nil, nil
	}

	return task.NewFuncTask(task.TaskTypeEdgeExample, func(ctx context.Context) error {
		for _, e := range edges {
			s.mu.Lock()
			stale := s.closed || s.sched.Epoch() != p.Epoch
			s.mu.Unlock()
			if stale {
				return nil
			}
			if _, err := s.builder.Example(ctx, e, false); err != nil {
				s.logger.DebugContext(ctx, "example prefetch failed",
					"source", e.Source,
					"target", e.Target,
					"error", err)
			}
		}
		return nil
	})
}

func (s *Session) newGraphTask(epoch uint64, words []string, refresh bool) (task.Task, error) {
	var vectors map[string][]float32

	build := func(ctx context.Context) (*domain.Graph, error) {
		g, err := s.builder.Build(ctx, graph.Request{Targets: words, Corpus: s.corpus, Refresh: refresh})
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(g.Nodes))
		for i, n := range g.Nodes {
			ids[i] = n.ID
		}
		vectors = s.embed.EmbedAll(ctx, ids)
		return g, nil
	}
	deliver := func(ctx context.Context, r task.GraphResult) {
		s.applyGraph(ctx, r, vectors)
	}
	return task.NewGraphBuildTask(epoch, build, deliver)
}

// applyGraph merges a finished build if it still belongs to the active group.
func (s *Session) applyGraph(ctx context.Context, r task.GraphResult, vectors map[string][]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if current := s.sched.Epoch(); r.Epoch != current {
		s.logger.DebugContext(ctx, "discarding stale graph build",
			"task_id", r.TaskID,
			"build_epoch", r.Epoch,
			"current_epoch", current)
		return
	}

	if r.Err != nil {
		s.graphError = r.Err.Error()
		s.emit(ctx, events.TypeGraphFailed, events.GraphChanged{Epoch: r.Epoch, Error: r.Err.Error()})
		return
	}

	g := r.Graph
	stepper := layout.NewStepper(g.Nodes)
	stepper.SetForce("charge", layout.ManyBody(DefaultCharge))
	s.augmenter.Register(stepper, g.Nodes, vectors)
	stepper.Run(s.cfg.LayoutTicks)

	s.graph = g
	s.graphError = ""
	s.gravity = s.augmenter.Edges()
	s.positions = make(map[string]viewport.Point, len(g.Nodes))
	for _, b := range stepper.Positions() {
		s.positions[b.ID] = viewport.Point{X: b.X, Y: b.Y}
	}

	s.emit(ctx, events.TypeGraphReady, events.GraphChanged{
		BuildID: g.BuildID,
		Epoch:   r.Epoch,
		Nodes:   len(g.Nodes),
		Edges:   len(g.Edges),
	})
}

// frame computes the camera for the focused nodes, or the queue head's node
// when nothing is focused. Must be called with s.mu held.
func (s *Session) frame(overlay *viewport.Rect) (viewport.Camera, bool) {
	ids := s.focus
	if len(ids) == 0 {
		head, ok := s.controller.Head()
		if !ok {
			return viewport.Camera{}, false
		}
		ids = []string{head.NodeID}
	}

	points := make([]viewport.Point, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.positions[id]; ok {
			points = append(points, p)
		}
	}
	cam, err := s.framer.Frame(viewport.Request{
		Positions:      points,
		ViewportWidth:  s.viewW,
		ViewportHeight: s.viewH,
		Overlay:        overlay,
	})
	if err != nil {
		return viewport.Camera{}, false
	}
	return cam, true
}

// Must be called with s.mu held.
func (s *Session) choicesFor(cardID uuid.UUID) ([]string, error) {
	if c, ok := s.choices[cardID]; ok {
		return c, nil
	}
	c, err := s.controller.Choices(cardID, s.cfg.ChoiceCount)
	if err != nil {
		return nil, err
	}
	s.choices[cardID] = c
	return c, nil
}

// findCard returns the canonical card for id from the current group.
// Must be called with s.mu held.
func (s *Session) findCard(id uuid.UUID) *domain.Card {
	_, group := s.sched.Current()
	if group == nil {
		return nil
	}
	for _, c := range group.Items {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Must be called with s.mu held.
func (s *Session) findEdge(source, target string) (domain.GraphEdge, bool) {
	if s.graph == nil {
		return domain.GraphEdge{}, false
	}
	for _, e := range s.graph.Edges {
		if (e.Source == source && e.Target == target) || (e.Source == target && e.Target == source) {
			return e, true
		}
	}
	return domain.GraphEdge{}, false
}

// Must be called with s.mu held.
func (s *Session) raiseNotice(text string) {
	if s.noticed {
		return
	}
	s.noticed = true
	s.notice = text
}

func (s *Session) emit(ctx context.Context, eventType string, payload interface{}) {
	event, err := events.NewEvent(eventType, s.learnerID, payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create event", "event_type", eventType, "error", err)
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "event handler failed", "event_type", eventType, "error", err)
	}
}

func groupWords(g *domain.GroupDescriptor) []string {
	words := make([]string, 0, len(g.Items))
	for _, c := range g.Items {
		words = append(words, c.Word)
	}
	return words
}

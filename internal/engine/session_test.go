package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/embedding"
	"github.com/phrazzld/lexis/internal/events"
	"github.com/phrazzld/lexis/internal/mocks"
	"github.com/phrazzld/lexis/internal/session"
	"github.com/phrazzld/lexis/internal/task"
	"github.com/phrazzld/lexis/internal/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	learner uuid.UUID
	cards   *mocks.MockCardStore
	groups  *mocks.MockGroupStore
	rater   *mocks.MockRater
	session *Session
	byWord  map[string]*domain.Card
}

func newFixture(t *testing.T, groups ...[]string) *fixture {
	t.Helper()

	f := &fixture{
		learner: uuid.New(),
		groups:  mocks.NewMockGroupStore(),
		rater:   &mocks.MockRater{},
		byWord:  make(map[string]*domain.Card),
	}

	var all []*domain.Card
	descriptors := make([]*domain.GroupDescriptor, 0, len(groups))
	for i, words := range groups {
		g := &domain.GroupDescriptor{ID: uuid.New(), Label: "group", Position: i}
		for _, w := range words {
			c, err := domain.NewCard(f.learner, w, "meaning of "+w)
			require.NoError(t, err)
			all = append(all, c)
			f.byWord[w] = c
			g.CardIDs = append(g.CardIDs, c.ID)
		}
		descriptors = append(descriptors, g)
	}
	f.cards = mocks.NewMockCardStore(all...)
	require.NoError(t, f.groups.SaveGroups(context.Background(), f.learner, descriptors))
	return f
}

func (f *fixture) deps() Deps {
	return Deps{
		Cards:      f.cards,
		Groups:     f.groups,
		CacheStore: mocks.NewMockCacheStore(),
		Rater:      f.rater,
		Embedder:   embedding.NewHashEmbedder(16),
	}
}

func (f *fixture) start(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(f.learner, f.deps(), DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Start(context.Background()))
	f.session = s
	return s
}

// answer drives the head item one step forward with a correct response.
func answer(t *testing.T, s *Session, head *domain.SessionItem) session.Transition {
	t.Helper()
	ctx := context.Background()

	var (
		tr  session.Transition
		err error
	)
	switch head.Phase {
	case domain.PhaseLearn:
		tr, err = s.Know(ctx, head.Card.ID)
	case domain.PhaseChoice:
		tr, err = s.ChooseAnswer(ctx, head.Card.ID, head.Card.Meaning)
	case domain.PhaseTest:
		tr, err = s.SubmitSpelling(ctx, head.Card.ID, head.Card.Word)
	}
	require.NoError(t, err)
	require.True(t, tr.Applied, "transition for %s in %s should apply", head.Card.Word, head.Phase)
	return tr
}

// settle waits for the group's own graph build to land so tests that inject
// a graph are not overwritten by it.
func settle(t *testing.T, s *Session) {
	t.Helper()
	require.Eventually(t, func() bool {
		return eventCount(s, events.TypeGraphReady)+eventCount(s, events.TypeGraphFailed) > 0
	}, 5*time.Second, 10*time.Millisecond)
}

func eventCount(s *Session, eventType string) int {
	n := 0
	for _, e := range s.Events() {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func TestNewSessionRequiresDependencies(t *testing.T) {
	f := newFixture(t, []string{"cat"})

	deps := f.deps()
	deps.Rater = nil
	_, err := NewSession(f.learner, deps, DefaultConfig())
	assert.ErrorIs(t, err, ErrMissingDependency)

	deps = f.deps()
	deps.Embedder = nil
	_, err = NewSession(f.learner, deps, DefaultConfig())
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestStartWithoutGroups(t *testing.T) {
	f := newFixture(t)
	s, err := NewSession(f.learner, f.deps(), DefaultConfig())
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Start(context.Background()), ErrNoGroups)
}

func TestIntentsBeforeStartAndAfterClose(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	s, err := NewSession(f.learner, f.deps(), DefaultConfig())
	require.NoError(t, err)

	_, err = s.Know(context.Background(), f.byWord["cat"].ID)
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = s.Snapshot()
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, s.Start(context.Background()))
	s.Close()
	s.Close()

	_, err = s.Know(context.Background(), f.byWord["cat"].ID)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Start(context.Background()), ErrClosed)
}

func TestSessionRunsEveryGroupToCompletion(t *testing.T) {
	f := newFixture(t, []string{"cat", "kitten", "truck"}, []string{"sun"})
	s := f.start(t)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, snap.Group)
	assert.Equal(t, 0, snap.Group.Index)
	assert.Equal(t, 2, snap.Group.Count)
	assert.Equal(t, 3, snap.QueueLength)

	for steps := 0; !snap.Complete; steps++ {
		require.Less(t, steps, 50, "session did not complete")
		require.NotNil(t, snap.Head)
		if snap.Head.Phase == domain.PhaseChoice {
			assert.Contains(t, snap.Choices, snap.Head.Card.Meaning)
		}
		answer(t, s, snap.Head)

		snap, err = s.Snapshot()
		require.NoError(t, err)
	}

	assert.Len(t, f.rater.Calls(), 4)
	for _, call := range f.rater.Calls() {
		assert.Equal(t, domain.GradePass, call.Grade)
	}
	assert.Nil(t, snap.Group)
	assert.Equal(t, 0, snap.QueueLength)
	assert.Equal(t, 2, eventCount(s, events.TypeGroupLoaded))
	assert.Equal(t, 4, eventCount(s, events.TypeItemGraduated))
	assert.Equal(t, 1, eventCount(s, events.TypeSessionCompleted))
}

func TestSessionResumesAtFirstUnfinishedGroup(t *testing.T) {
	f := newFixture(t, []string{"cat"}, []string{"sun", "moon"})
	done := f.byWord["cat"].Clone()
	done.State = domain.StateReview
	require.NoError(t, f.cards.Save(context.Background(), done))

	s := f.start(t)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	require.NotNil(t, snap.Group)
	assert.Equal(t, 1, snap.Group.Index)
	assert.Equal(t, 2, snap.QueueLength)
}

func TestSessionStartsCompleteWhenNothingIsLeft(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	done := f.byWord["cat"].Clone()
	done.Familiar = true
	require.NoError(t, f.cards.Save(context.Background(), done))

	s := f.start(t)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.Complete)
	assert.Equal(t, 1, eventCount(s, events.TypeSessionCompleted))
}

func TestWrongAnswersDemoteAndEmit(t *testing.T) {
	f := newFixture(t, []string{"cat", "kitten"})
	s := f.start(t)
	ctx := context.Background()

	snap, err := s.Snapshot()
	require.NoError(t, err)
	head := snap.Head
	answer(t, s, head)

	tr, err := s.ChooseAnswer(ctx, head.Card.ID, "not the meaning")
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeDemoted, tr.Outcome)
	assert.Equal(t, 1, eventCount(s, events.TypeItemDemoted))

	var payload events.ItemChanged
	for _, e := range s.Events() {
		if e.Type == events.TypeItemDemoted {
			require.NoError(t, e.UnmarshalPayload(&payload))
		}
	}
	assert.Equal(t, head.Card.ID, payload.CardID)
	assert.Equal(t, 1, payload.Misses)
}

func TestStaleIntentIsIgnored(t *testing.T) {
	f := newFixture(t, []string{"cat", "kitten"})
	s := f.start(t)

	tr, err := s.SubmitSpelling(context.Background(), f.byWord["cat"].ID, "cat")
	require.NoError(t, err)
	assert.False(t, tr.Applied)
	assert.Equal(t, session.OutcomeIgnored, tr.Outcome)
	assert.Empty(t, f.rater.Calls())
}

func TestMarkFamiliarRemovesInAnyPhase(t *testing.T) {
	f := newFixture(t, []string{"cat", "kitten", "truck"})
	s := f.start(t)
	ctx := context.Background()

	snap, err := s.Snapshot()
	require.NoError(t, err)
	head := snap.Head
	answer(t, s, head)

	tr, err := s.MarkFamiliar(ctx, head.Card.ID)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeRemoved, tr.Outcome)
	assert.Equal(t, domain.PhaseChoice, tr.From)

	stored, err := f.cards.GetByID(ctx, head.Card.ID)
	require.NoError(t, err)
	assert.True(t, stored.Familiar)
	assert.Equal(t, 1, eventCount(s, events.TypeItemRemoved))

	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.QueueLength)
	assert.Empty(t, snap.Notice)
}

func TestMarkFamiliarSaveFailureNotifiesOnce(t *testing.T) {
	f := newFixture(t, []string{"cat", "kitten", "truck"})
	f.cards.SaveFn = func(ctx context.Context, card *domain.Card) error {
		return errors.New("disk full")
	}
	s := f.start(t)
	ctx := context.Background()

	_, err := s.MarkFamiliar(ctx, f.byWord["cat"].ID)
	require.NoError(t, err)
	_, err = s.MarkFamiliar(ctx, f.byWord["kitten"].ID)
	require.NoError(t, err)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, PersistNotice, snap.Notice)
	assert.Equal(t, 1, snap.QueueLength)

	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.Empty(t, snap.Notice)
}

func TestMarkFamiliarRejectsForeignCard(t *testing.T) {
	f := newFixture(t, []string{"cat", "kitten"})
	s := f.start(t)
	ctx := context.Background()

	other, err := domain.NewCard(uuid.New(), "ferret", "a domesticated polecat")
	require.NoError(t, err)
	require.NoError(t, f.cards.Save(ctx, other))

	tr, err := s.MarkFamiliar(ctx, other.ID)
	require.ErrorIs(t, err, ErrForeignCard)
	assert.False(t, tr.Applied)

	stored, err := f.cards.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, stored.Familiar, "another learner's card must not be written")

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.QueueLength)
	assert.Empty(t, snap.Notice)
}

func TestMarkFamiliarFlagsOwnCardOutsideGroup(t *testing.T) {
	f := newFixture(t, []string{"cat", "kitten"}, []string{"truck"})
	s := f.start(t)
	ctx := context.Background()

	tr, err := s.MarkFamiliar(ctx, f.byWord["truck"].ID)
	require.NoError(t, err)
	assert.False(t, tr.Applied, "the current queue is unchanged")

	stored, err := f.cards.GetByID(ctx, f.byWord["truck"].ID)
	require.NoError(t, err)
	assert.True(t, stored.Familiar)
}

func TestSnapshotHeadIsDetachedFromQueue(t *testing.T) {
	f := newFixture(t, []string{"cat", "kitten", "truck"})
	s := f.start(t)

	stop := make(chan struct{})
	encoded := make(chan int)
	go func() {
		n := 0
		defer func() { encoded <- n }()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap, err := s.Snapshot()
			if err != nil {
				return
			}
			if _, err := json.Marshal(snap); err == nil {
				n++
			}
		}
	}()

	snap, err := s.Snapshot()
	require.NoError(t, err)
	first := snap.Head
	require.NotNil(t, first)
	for snap.Head != nil && !snap.Complete {
		answer(t, s, snap.Head)
		snap, err = s.Snapshot()
		require.NoError(t, err)
	}
	close(stop)
	assert.Positive(t, <-encoded)

	assert.Equal(t, domain.PhaseLearn, first.Phase)
	assert.Equal(t, domain.StateNew, first.Card.State, "a taken snapshot does not follow later grading")
}

func TestRatingFailureKeepsGraduation(t *testing.T) {
	f := newFixture(t, []string{"cat"}, []string{"sun"})
	f.rater.RateFn = func(ctx context.Context, card *domain.Card, grade domain.Grade) (*domain.Card, error) {
		return nil, errors.New("rating backend down")
	}
	s := f.start(t)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	id := snap.Head.Card.ID
	for snap.Head != nil && snap.Head.Card.ID == id {
		answer(t, s, snap.Head)
		snap, err = s.Snapshot()
		require.NoError(t, err)
	}

	assert.Equal(t, 1, snap.QueueLength)
	assert.Equal(t, session.RatingNotice, snap.Notice)
	assert.Equal(t, 1, eventCount(s, events.TypeRatingFailed))
}

func TestGraphArrivesAfterGroupLoad(t *testing.T) {
	f := newFixture(t, []string{"cat", "kitten", "truck"})
	s := f.start(t)

	require.Eventually(t, func() bool {
		snap, err := s.Snapshot()
		return err == nil && snap.Graph != nil
	}, 5*time.Second, 10*time.Millisecond)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	for _, w := range []string{"cat", "kitten", "truck"} {
		_, ok := snap.Graph.Node(domain.NodeIDForWord(w))
		assert.True(t, ok, "graph should contain %s", w)
		assert.Contains(t, snap.Positions, domain.NodeIDForWord(w))
	}
	require.NotNil(t, snap.Camera)
	assert.Equal(t, 1, eventCount(s, events.TypeGraphReady))
}

func TestStaleGraphResultIsDiscarded(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	s := f.start(t)

	stale := &domain.Graph{BuildID: uuid.New(), Nodes: []domain.GraphNode{{ID: "old"}}}
	s.applyGraph(context.Background(), task.GraphResult{Epoch: s.sched.Epoch() - 1, Graph: stale}, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph != nil {
		assert.NotEqual(t, stale.BuildID, s.graph.BuildID)
	}
}

func TestFailedGraphBuildIsReported(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	s := f.start(t)
	settle(t, s)

	s.applyGraph(context.Background(), task.GraphResult{Epoch: s.sched.Epoch(), Err: errors.New("boom")}, nil)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "boom", snap.GraphError)
	assert.GreaterOrEqual(t, eventCount(s, events.TypeGraphFailed), 1)
}

func TestNodeClickedFramesNeighbourhood(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	s := f.start(t)
	settle(t, s)
	ctx := context.Background()

	g := &domain.Graph{
		BuildID: uuid.New(),
		Nodes:   []domain.GraphNode{{ID: "cat"}, {ID: "dog"}, {ID: "sun"}},
		Edges:   []domain.GraphEdge{{Source: "cat", Target: "dog", Similarity: 0.8}},
	}
	s.applyGraph(ctx, task.GraphResult{Epoch: s.sched.Epoch(), Graph: g}, nil)

	_, ok := s.NodeClicked(ctx, "nope")
	assert.False(t, ok)

	accepted := s.UpdatePositions(PositionUpdate{
		ViewportWidth:  1000,
		ViewportHeight: 1000,
		Positions: map[string]viewport.Point{
			"cat": {X: -100, Y: 0},
			"dog": {X: 100, Y: 0},
			"sun": {X: 5000, Y: 5000},
			"bad": {X: 1, Y: 1},
		},
	})
	assert.Equal(t, 3, accepted)

	cam, ok := s.NodeClicked(ctx, "cat")
	require.True(t, ok)
	assert.InDelta(t, 0, cam.Center.X, 1e-9)
	assert.InDelta(t, 0, cam.Center.Y, 1e-9)
}

func TestEdgeExampleDegradesWithoutGenerator(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	s := f.start(t)
	settle(t, s)
	ctx := context.Background()

	_, err := s.EdgeExample(ctx, "cat", "dog")
	assert.ErrorIs(t, err, ErrUnknownEdge)

	g := &domain.Graph{
		BuildID: uuid.New(),
		Nodes:   []domain.GraphNode{{ID: "cat"}, {ID: "dog"}},
		Edges:   []domain.GraphEdge{{Source: "cat", Target: "dog", Similarity: 0.8, Relation: "chases"}},
	}
	s.applyGraph(ctx, task.GraphResult{Epoch: s.sched.Epoch(), Graph: g}, nil)

	text, err := s.EdgeExample(ctx, "dog", "cat")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestEdgeExampleUsesGenerator(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	deps := f.deps()
	gen := &mocks.MockGenerator{
		ExampleFn: func(ctx context.Context, a, b, relation string) (string, error) {
			return "The " + a + " " + relation + " the " + b + ".", nil
		},
	}
	deps.Generator = gen
	s, err := NewSession(f.learner, deps, DefaultConfig())
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	settle(t, s)

	g := &domain.Graph{
		BuildID: uuid.New(),
		Nodes:   []domain.GraphNode{{ID: "cat"}, {ID: "dog"}},
		Edges:   []domain.GraphEdge{{Source: "cat", Target: "dog", Similarity: 0.8, Relation: "chases"}},
	}
	s.applyGraph(ctx, task.GraphResult{Epoch: s.sched.Epoch(), Graph: g}, nil)

	text, err := s.EdgeExample(ctx, "cat", "dog")
	require.NoError(t, err)
	assert.Equal(t, "The cat chases the dog.", text)

	_, err = s.EdgeExample(ctx, "cat", "dog")
	require.NoError(t, err)
	assert.Equal(t, 1, gen.ExampleCalls())
}

func TestGraphReadyPrefetchesHeadExamples(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	deps := f.deps()
	gen := &mocks.MockGenerator{
		ExampleFn: func(ctx context.Context, a, b, relation string) (string, error) {
			return "The " + a + " " + relation + " the " + b + ".", nil
		},
	}
	deps.Generator = gen
	s, err := NewSession(f.learner, deps, DefaultConfig())
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	settle(t, s)

	g := &domain.Graph{
		BuildID: uuid.New(),
		Nodes:   []domain.GraphNode{{ID: "cat"}, {ID: "dog"}, {ID: "owl"}, {ID: "bat"}},
		Edges: []domain.GraphEdge{
			{Source: "cat", Target: "dog", Similarity: 0.8, Relation: "chases"},
			{Source: "owl", Target: "cat", Similarity: 0.6, Relation: "hunts"},
			{Source: "owl", Target: "bat", Similarity: 0.5, Relation: "related"},
		},
	}
	s.applyGraph(ctx, task.GraphResult{Epoch: s.sched.Epoch(), Graph: g}, nil)

	require.Eventually(t, func() bool { return gen.ExampleCalls() == 2 }, time.Second, 5*time.Millisecond,
		"only the head word's edges are prefetched")

	_, err = s.EdgeExample(ctx, "dog", "cat")
	require.NoError(t, err)
	assert.Equal(t, 2, gen.ExampleCalls(), "prefetched examples are served from the cache")
}

func TestExamplePrefetchCanBeDisabled(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	deps := f.deps()
	gen := &mocks.MockGenerator{}
	deps.Generator = gen
	cfg := DefaultConfig()
	cfg.ExamplePrefetch = 0
	s, err := NewSession(f.learner, deps, cfg)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	settle(t, s)

	g := &domain.Graph{
		BuildID: uuid.New(),
		Nodes:   []domain.GraphNode{{ID: "cat"}, {ID: "dog"}},
		Edges:   []domain.GraphEdge{{Source: "cat", Target: "dog", Similarity: 0.8, Relation: "chases"}},
	}
	s.applyGraph(ctx, task.GraphResult{Epoch: s.sched.Epoch(), Graph: g}, nil)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, gen.ExampleCalls())
}

func TestOverlayMovedWhileDraggingDoesNotStick(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	s := f.start(t)
	settle(t, s)
	ctx := context.Background()

	g := &domain.Graph{BuildID: uuid.New(), Nodes: []domain.GraphNode{{ID: "cat"}}}
	s.applyGraph(ctx, task.GraphResult{Epoch: s.sched.Epoch(), Graph: g}, nil)
	s.UpdatePositions(PositionUpdate{
		ViewportWidth:  1000,
		ViewportHeight: 800,
		Positions:      map[string]viewport.Point{"cat": {X: 0, Y: 0}},
	})

	right := viewport.Rect{X: 600, Y: 0, Width: 400, Height: 800}
	base, ok := s.OverlayMoved(right, false)
	require.True(t, ok)

	dragged, ok := s.OverlayMoved(viewport.Rect{X: 0, Y: 0, Width: 400, Height: 800}, true)
	require.True(t, ok)
	assert.NotEqual(t, base.Center, dragged.Center)

	stored, set := s.framer.Overlay()
	require.True(t, set)
	assert.Equal(t, right, stored)
}

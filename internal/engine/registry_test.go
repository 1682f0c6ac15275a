package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreatesOneSessionPerLearner(t *testing.T) {
	f := newFixture(t, []string{"cat", "kitten"})

	var created atomic.Int32
	build := NewFactory(f.deps(), DefaultConfig())
	reg := NewRegistry(func(ctx context.Context, learnerID uuid.UUID) (*Session, error) {
		created.Add(1)
		return build(ctx, learnerID)
	}, nil)
	defer reg.CloseAll()

	var wg sync.WaitGroup
	got := make([]*Session, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := reg.Get(context.Background(), f.learner)
			assert.NoError(t, err)
			got[i] = s
		}(i)
	}
	wg.Wait()

	require.NotNil(t, got[0])
	for _, s := range got {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryFactoryErrorIsNotCached(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	reg := NewRegistry(func(ctx context.Context, learnerID uuid.UUID) (*Session, error) {
		calls++
		return nil, boom
	}, nil)

	_, err := reg.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
	_, err = reg.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryClose(t *testing.T) {
	f := newFixture(t, []string{"cat"})
	reg := NewRegistry(NewFactory(f.deps(), DefaultConfig()), nil)

	s, err := reg.Get(context.Background(), f.learner)
	require.NoError(t, err)

	assert.True(t, reg.Close(f.learner))
	assert.False(t, reg.Close(f.learner))
	_, ok := reg.Lookup(f.learner)
	assert.False(t, ok)

	_, err = s.Snapshot()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFactoryClosesSessionThatFailsToStart(t *testing.T) {
	f := newFixture(t)
	_, err := NewFactory(f.deps(), DefaultConfig())(context.Background(), f.learner)
	assert.ErrorIs(t, err, ErrNoGroups)
}

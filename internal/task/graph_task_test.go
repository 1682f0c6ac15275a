package task

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphBuildTaskDeliversResult(t *testing.T) {
	g := &domain.Graph{BuildID: uuid.New()}
	var got GraphResult

	task, err := NewGraphBuildTask(7,
		func(ctx context.Context) (*domain.Graph, error) { return g, nil },
		func(ctx context.Context, r GraphResult) { got = r },
	)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusPending, task.Status())
	assert.Equal(t, TaskTypeGraphBuild, task.Type())
	assert.Equal(t, uint64(7), task.Epoch())

	require.NoError(t, task.Execute(context.Background()))
	assert.Equal(t, TaskStatusCompleted, task.Status())
	assert.Equal(t, task.ID(), got.TaskID)
	assert.Equal(t, uint64(7), got.Epoch)
	assert.Same(t, g, got.Graph)
	assert.NoError(t, got.Err)
}

func TestGraphBuildTaskDeliversFailure(t *testing.T) {
	buildErr := errors.New("no embeddings")
	var got GraphResult

	task, err := NewGraphBuildTask(1,
		func(ctx context.Context) (*domain.Graph, error) { return nil, buildErr },
		func(ctx context.Context, r GraphResult) { got = r },
	)
	require.NoError(t, err)

	assert.ErrorIs(t, task.Execute(context.Background()), buildErr)
	assert.Equal(t, TaskStatusFailed, task.Status())
	assert.ErrorIs(t, got.Err, buildErr)
}

func TestTaskConstructorsRejectNil(t *testing.T) {
	deliver := func(context.Context, GraphResult) {}
	build := func(context.Context) (*domain.Graph, error) { return nil, nil }

	_, err := NewGraphBuildTask(0, nil, deliver)
	assert.ErrorIs(t, err, ErrNilBuild)
	_, err = NewGraphBuildTask(0, build, nil)
	assert.ErrorIs(t, err, ErrNilDeliver)
	_, err = NewFuncTask(TaskTypeEdgeExample, nil)
	assert.ErrorIs(t, err, ErrNilFunc)
}

func TestFuncTask(t *testing.T) {
	calls := 0
	task, err := NewFuncTask(TaskTypeEdgeExample, func(ctx context.Context) error {
		calls++
		if calls > 1 {
			return errors.New("again")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, TaskStatusPending, task.Status())

	require.NoError(t, task.Execute(context.Background()))
	assert.Equal(t, TaskStatusCompleted, task.Status())
	assert.Error(t, task.Execute(context.Background()))
	assert.Equal(t, TaskStatusFailed, task.Status())
	assert.Equal(t, TaskTypeEdgeExample, task.Type())
}

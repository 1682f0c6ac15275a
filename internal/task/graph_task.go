package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// Common errors
var (
	ErrNilBuild   = errors.New("graph build function cannot be nil")
	ErrNilDeliver = errors.New("graph delivery function cannot be nil")
	ErrNilFunc    = errors.New("task function cannot be nil")
)

// GraphResult is what a graph build hands back. Epoch is the epoch the
// build was requested for; the receiver drops results whose epoch is stale.
type GraphResult struct {
	TaskID uuid.UUID
	Epoch  uint64
	Graph  *domain.Graph
	Err    error
}

// GraphBuildTask runs one graph build and delivers its result.
type GraphBuildTask struct {
	id      uuid.UUID
	epoch   uint64
	build   func(ctx context.Context) (*domain.Graph, error)
	deliver func(ctx context.Context, result GraphResult)
	status  *status
}

// NewGraphBuildTask creates a pending GraphBuildTask for epoch.
func NewGraphBuildTask(
	epoch uint64,
	build func(ctx context.Context) (*domain.Graph, error),
	deliver func(ctx context.Context, result GraphResult),
) (*GraphBuildTask, error) {
	if build == nil {
		return nil, ErrNilBuild
	}
	if deliver == nil {
		return nil, ErrNilDeliver
	}
	return &GraphBuildTask{id: uuid.New(), epoch: epoch, build: build, deliver: deliver, status: newStatus()}, nil
}

// ID implements Task.
func (t *GraphBuildTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *GraphBuildTask) Type() string { return TaskTypeGraphBuild }

// Status implements Task.
func (t *GraphBuildTask) Status() TaskStatus { return t.status.get() }

// Epoch returns the epoch the build was requested for.
func (t *GraphBuildTask) Epoch() uint64 { return t.epoch }

// Execute builds the graph and always delivers a result, including failures.
func (t *GraphBuildTask) Execute(ctx context.Context) error {
	var g *domain.Graph
	err := t.status.track(func() error {
		var err error
		g, err = t.build(ctx)
		return err
	})
	t.deliver(ctx, GraphResult{TaskID: t.id, Epoch: t.epoch, Graph: g, Err: err})
	return err
}

// FuncTask adapts a function to the Task interface.
type FuncTask struct {
	id       uuid.UUID
	taskType string
	fn       func(ctx context.Context) error
	status   *status
}

// NewFuncTask creates a pending FuncTask.
func NewFuncTask(taskType string, fn func(ctx context.Context) error) (*FuncTask, error) {
	if fn == nil {
		return nil, ErrNilFunc
	}
	return &FuncTask{id: uuid.New(), taskType: taskType, fn: fn, status: newStatus()}, nil
}

// ID implements Task.
func (t *FuncTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *FuncTask) Type() string { return t.taskType }

// Status implements Task.
func (t *FuncTask) Status() TaskStatus { return t.status.get() }

// Execute implements Task.
func (t *FuncTask) Execute(ctx context.Context) error {
	return t.status.track(func() error { return t.fn(ctx) })
}

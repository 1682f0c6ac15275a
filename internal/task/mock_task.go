package task

import (
	"context"

	"github.com/google/uuid"
)

// MockTask is a simple implementation of the Task interface for testing
type MockTask struct {
	TaskID     uuid.UUID
	TaskType   string
	TaskStatus TaskStatus
	ExecuteFn  func(ctx context.Context) error
}

// NewMockTask creates a new MockTask with the given type
func NewMockTask(taskType string) *MockTask {
	return &MockTask{
		TaskID:     uuid.New(),
		TaskType:   taskType,
		TaskStatus: TaskStatusPending,
		ExecuteFn:  func(ctx context.Context) error { return nil },
	}
}

// ID returns the task's unique identifier
func (t *MockTask) ID() uuid.UUID {
	return t.TaskID
}

// Type returns the task type identifier
func (t *MockTask) Type() string {
	return t.TaskType
}

// Status returns the current task status
func (t *MockTask) Status() TaskStatus {
	return t.TaskStatus
}

// Execute runs the task logic
func (t *MockTask) Execute(ctx context.Context) error {
	return t.ExecuteFn(ctx)
}

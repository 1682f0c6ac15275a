package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task types run by a session's worker pool.
const (
	// TaskTypeGraphBuild builds the semantic graph of a group or card.
	TaskTypeGraphBuild = "graph_build"
	// TaskTypeEdgeExample warms the example cache for edges of a ready graph.
	TaskTypeEdgeExample = "edge_example"
)

// Task is one unit of background session work. Tasks live only in memory:
// a closed session drops whatever is still queued.
type Task interface {
	ID() uuid.UUID
	Type() string
	Status() TaskStatus
	// Execute runs the task. The worker pool bounds ctx with its task timeout.
	Execute(ctx context.Context) error
}

// TaskQueueReader is the consumer side of a queue, held by the worker pool.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter is the producer side of a queue, held by event handlers
// and the session itself.
type TaskQueueWriter interface {
	// Enqueue fails with ErrQueueFull or ErrQueueClosed instead of blocking.
	Enqueue(task Task) error
	Close()
}

// status is a concurrency-safe TaskStatus shared by the task types here.
type status struct {
	mu sync.Mutex
	s  TaskStatus
}

func newStatus() *status {
	return &status{s: TaskStatusPending}
}

func (s *status) get() TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s
}

func (s *status) set(v TaskStatus) {
	s.mu.Lock()
	s.s = v
	s.mu.Unlock()
}

// track marks the task processing, runs fn and records how it ended.
func (s *status) track(fn func() error) error {
	s.set(TaskStatusProcessing)
	err := fn()
	if err != nil {
		s.set(TaskStatusFailed)
	} else {
		s.set(TaskStatusCompleted)
	}
	return err
}

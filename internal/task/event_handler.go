package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/lexis/internal/events"
)

// Factory creates the task for an event. It may return a nil task to skip
// the event.
type Factory func(ctx context.Context, event *events.Event) (Task, error)

// FactoryEventHandler implements events.Handler by turning events into tasks
// through the factory registered for their type and enqueueing them.
type FactoryEventHandler struct {
	queue  TaskQueueWriter
	logger *slog.Logger

	mu        sync.RWMutex
	factories map[string]Factory
}

// NewFactoryEventHandler creates a handler that enqueues onto queue.
func NewFactoryEventHandler(queue TaskQueueWriter, logger *slog.Logger) *FactoryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FactoryEventHandler{
		queue:     queue,
		logger:    logger.With("component", "task_factory_event_handler"),
		factories: make(map[string]Factory),
	}
}

// Register sets the factory for eventType, replacing any previous one.
func (h *FactoryEventHandler) Register(eventType string, factory Factory) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.factories[eventType] = factory
}

// HandleEvent creates and enqueues the task for event. Events without a
// registered factory are ignored.
func (h *FactoryEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	h.mu.RLock()
	factory, ok := h.factories[event.Type]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	task, err := factory(ctx, event)
	if err != nil {
		h.logger.Error("failed to create task", "error", err, "event_id", event.ID, "event_type", event.Type)
		return fmt.Errorf("failed to create task: %w", err)
	}
	if task == nil {
		h.logger.Debug("factory skipped event", "event_id", event.ID, "event_type", event.Type)
		return nil
	}

	if err := h.queue.Enqueue(task); err != nil {
		h.logger.Error("failed to enqueue task",
			"error", err,
			"task_id", task.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	h.logger.Debug("task created from event",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"event_id", event.ID)
	return nil
}

var _ events.Handler = (*FactoryEventHandler)(nil)

package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	learner := uuid.New()
	payload := ItemChanged{CardID: uuid.New(), Word: "ubiquitous", Phase: "learn", Index: 2, Misses: 1}

	event, err := NewEvent(TypeItemDemoted, learner, payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeItemDemoted, event.Type)
	assert.Equal(t, learner, event.LearnerID)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded ItemChanged
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)

	bare, err := NewEvent(TypeSessionCompleted, learner, nil)
	require.NoError(t, err)
	assert.Nil(t, bare.Payload)

	_, err = NewEvent(TypeGraphReady, learner, func() {})
	assert.Error(t, err)
}

// MockEventHandler implements the Handler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *Event
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the Handler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestHandlerFunc(t *testing.T) {
	var got *Event
	h := HandlerFunc(func(ctx context.Context, e *Event) error {
		got = e
		return nil
	})

	event, err := NewEvent(TypeGraphReady, uuid.New(), GraphChanged{Nodes: 3})
	require.NoError(t, err)
	require.NoError(t, h.HandleEvent(context.Background(), event))
	assert.Same(t, event, got)
}

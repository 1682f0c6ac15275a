package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEmitter(t *testing.T) {
	// Create a minimal logger that discards output
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	learner := uuid.New()

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEmitter(logger)
		event, err := NewEvent(TypeSessionCompleted, learner, nil)
		require.NoError(t, err)

		assert.NoError(t, emitter.Emit(context.Background(), event))
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEmitter(logger)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event, err := NewEvent(TypeGroupLoaded, learner, GroupLoaded{Index: 1, Label: "animals"})
		require.NoError(t, err)
		require.NoError(t, emitter.Emit(context.Background(), event))

		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEmitter(logger)
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		successHandler := &MockEventHandler{}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		event, err := NewEvent(TypeRatingFailed, learner, RatingFailed{CardID: uuid.New()})
		require.NoError(t, err)

		err = emitter.Emit(context.Background(), event)
		assert.EqualError(t, err, "handler error")

		// The remaining handler still saw the event
		assert.Equal(t, 1, successHandler.HandledCount)
		assert.Equal(t, 1, failingHandler.HandledCount)
	})
}

func TestRecorderKeepsMostRecent(t *testing.T) {
	r := NewRecorder(3)
	emitter := NewInMemoryEmitter(nil)
	emitter.RegisterHandler(r)

	for i := 0; i < 5; i++ {
		event, err := NewEvent(fmt.Sprintf("type.%d", i), uuid.Nil, nil)
		require.NoError(t, err)
		require.NoError(t, emitter.Emit(context.Background(), event))
	}

	assert.Equal(t, []string{"type.2", "type.3", "type.4"}, r.Types())
	assert.Len(t, r.Events(), 3)
}

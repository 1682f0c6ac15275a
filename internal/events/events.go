package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published by a session.
const (
	TypeGroupLoaded      = "group.loaded"
	TypeItemGraduated    = "item.graduated"
	TypeItemDemoted      = "item.demoted"
	TypeItemRemoved      = "item.removed"
	TypeRatingFailed     = "rating.failed"
	TypeGraphReady       = "graph.ready"
	TypeGraphFailed      = "graph.failed"
	TypeSessionCompleted = "session.completed"
)

// Event is a notification about one learner's session.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type constants
	Type string `json:"type"`

	// LearnerID identifies the session the event belongs to
	LearnerID uuid.UUID `json:"learner_id"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the given type and payload. A nil payload
// leaves Payload empty.
func NewEvent(eventType string, learnerID uuid.UUID, payload interface{}) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		LearnerID: learnerID,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// GroupLoaded is the payload of TypeGroupLoaded.
type GroupLoaded struct {
	Index  int      `json:"index"`
	Label  string   `json:"label"`
	Words  []string `json:"words"`
	Queued int      `json:"queued"`
	Epoch  uint64   `json:"epoch"`
}

// ItemChanged is the payload of the item event types.
type ItemChanged struct {
	CardID uuid.UUID `json:"card_id"`
	Word   string    `json:"word"`
	Phase  string    `json:"phase,omitempty"`
	Index  int       `json:"index"`
	Misses int       `json:"misses,omitempty"`
}

// RatingFailed is the payload of TypeRatingFailed.
type RatingFailed struct {
	CardID uuid.UUID `json:"card_id"`
	Notice string    `json:"notice"`
}

// GraphChanged is the payload of TypeGraphReady and TypeGraphFailed.
type GraphChanged struct {
	BuildID uuid.UUID `json:"build_id,omitempty"`
	Epoch   uint64    `json:"epoch"`
	Nodes   int       `json:"nodes"`
	Edges   int       `json:"edges"`
	Error   string    `json:"error,omitempty"`
}

// Handler defines an interface for components that can handle events.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements Handler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Emitter defines an interface for components that can emit events.
type Emitter interface {
	// Emit publishes the given event to all registered handlers.
	Emit(ctx context.Context, event *Event) error
}

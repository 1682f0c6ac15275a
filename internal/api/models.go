package api

import (
	"time"

	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/viewport"
)

// ChoiceRequest answers a multiple-choice item.
type ChoiceRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// SpellingRequest answers a spelling item.
type SpellingRequest struct {
	Text string `json:"text"`
}

// OverlayRequest reports the position of the study overlay.
type OverlayRequest struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width" validate:"gte=0"`
	Height   float64 `json:"height" validate:"gte=0"`
	Dragging bool    `json:"dragging"`
}

// Rect returns the overlay rectangle.
func (o OverlayRequest) Rect() viewport.Rect {
	return viewport.Rect{X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
}

// CameraResponse is a framing result. Framed is false when there was
// nothing to frame.
type CameraResponse struct {
	Framed bool             `json:"framed"`
	Camera *viewport.Camera `json:"camera,omitempty"`
}

// PositionsResponse reports how many reported positions were accepted.
type PositionsResponse struct {
	Accepted int `json:"accepted"`
}

// ExampleResponse carries an edge's example sentence, empty when none could
// be generated.
type ExampleResponse struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Example string `json:"example"`
}

// FamiliarRequest sets or clears a card's familiar flag.
type FamiliarRequest struct {
	Familiar bool `json:"familiar"`
}

// PostponeRequest pushes a card's due date back.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,min=1,max=3650"`
}

// DeckCard is one word of an imported deck.
type DeckCard struct {
	Word     string `json:"word" validate:"required,max=100"`
	Meaning  string `json:"meaning" validate:"required,max=1000"`
	Phonetic string `json:"phonetic,omitempty"`
	Example  string `json:"example,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// DeckGroup is one study group of an imported deck.
type DeckGroup struct {
	Label string     `json:"label" validate:"max=200"`
	Cards []DeckCard `json:"cards" validate:"required,min=1,dive"`
}

// ImportRequest replaces the learner's study groups.
type ImportRequest struct {
	Groups []DeckGroup `json:"groups" validate:"required,min=1,dive"`
}

// CardResponse is the API view of a card.
type CardResponse struct {
	ID             string            `json:"id"`
	Word           string            `json:"word"`
	Meaning        string            `json:"meaning"`
	State          string            `json:"state"`
	Familiar       bool              `json:"familiar"`
	Due            time.Time         `json:"due"`
	Interval       int               `json:"interval"`
	ReviewCount    int               `json:"review_count"`
	LastReviewedAt *time.Time        `json:"last_reviewed_at,omitempty"`
	Enrichment     domain.Enrichment `json:"enrichment"`
}

func cardToResponse(c *domain.Card) CardResponse {
	resp := CardResponse{
		ID:          c.ID.String(),
		Word:        c.Word,
		Meaning:     c.Meaning,
		State:       string(c.State),
		Familiar:    c.Familiar,
		Due:         c.Due,
		Interval:    c.Interval,
		ReviewCount: c.ReviewCount,
		Enrichment:  c.Enrichment,
	}
	if !c.LastReviewedAt.IsZero() {
		t := c.LastReviewedAt
		resp.LastReviewedAt = &t
	}
	return resp
}

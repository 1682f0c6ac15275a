package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardWordEmpty is returned when a card has no word.
	ErrCardWordEmpty = errors.New("card word cannot be empty")

	// ErrCardMeaningEmpty is returned when a card has no meaning.
	ErrCardMeaningEmpty = errors.New("card meaning cannot be empty")

	// ErrInvalidLifecycleState is returned when a card's state is not one of the known states.
	ErrInvalidLifecycleState = errors.New("invalid card lifecycle state")
)

// LifecycleState is the scheduling state of a card as maintained by the rating service.
type LifecycleState string

// Possible lifecycle states
const (
	StateNew        LifecycleState = "new"
	StateLearning   LifecycleState = "learning"
	StateReview     LifecycleState = "review"
	StateRelearning LifecycleState = "relearning"
)

// Valid reports whether s is a known lifecycle state.
func (s LifecycleState) Valid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	default:
		return false
	}
}

// Enrichment holds optional generated or user-written data attached to a card.
type Enrichment struct {
	Phonetic string `json:"phonetic,omitempty"`
	Example  string `json:"example,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Card is a vocabulary unit together with its scheduling state.
//
// The scheduling fields (Interval, EaseFactor, ConsecutiveCorrect, ReviewCount,
// LastReviewedAt, Due and State) are written by the rating service only. The
// session engine reads them to decide which cards still need rehearsal.
type Card struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	Word    string    `json:"word"`
	Meaning string    `json:"meaning"`

	State    LifecycleState `json:"state"`
	Due      time.Time      `json:"due"`
	Familiar bool           `json:"familiar"`

	Interval           int       `json:"interval"`            // Current interval in days
	EaseFactor         float64   `json:"ease_factor"`         // Ease factor (1.3-2.5 typically)
	ConsecutiveCorrect int       `json:"consecutive_correct"` // Count of consecutive correct answers
	ReviewCount        int       `json:"review_count"`        // Total number of ratings
	LastReviewedAt     time.Time `json:"last_reviewed_at"`

	Enrichment Enrichment `json:"enrichment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard creates a new Card for the given user in the New state, due immediately.
// Returns an error if validation fails.
func NewCard(userID uuid.UUID, word, meaning string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:         uuid.New(),
		UserID:     userID,
		Word:       strings.TrimSpace(word),
		Meaning:    strings.TrimSpace(meaning),
		State:      StateNew,
		Due:        now,
		EaseFactor: 2.5,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}

	if strings.TrimSpace(c.Word) == "" {
		return ErrCardWordEmpty
	}

	if strings.TrimSpace(c.Meaning) == "" {
		return ErrCardMeaningEmpty
	}

	if !c.State.Valid() {
		return ErrInvalidLifecycleState
	}

	return nil
}

// IsGraduated reports whether the card has passed its learning steps.
func (c *Card) IsGraduated() bool {
	return c.State == StateReview
}

// IsTerminal reports whether the card needs no further rehearsal in a learning
// session: it is either graduated or manually marked familiar.
func (c *Card) IsTerminal() bool {
	return c.Familiar || c.IsGraduated()
}

// MarkFamiliar flags the card as mastered by the user.
func (c *Card) MarkFamiliar(now time.Time) {
	c.Familiar = true
	c.UpdatedAt = now
}

// Clone returns a copy of the card that can be mutated independently.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// NormalizeWord returns the canonical form of a word used for node ids and cache keys.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

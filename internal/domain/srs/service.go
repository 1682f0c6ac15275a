package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/lexis/internal/domain"
)

// Common errors
var (
	ErrNilCard      = errors.New("card cannot be nil")
	ErrInvalidGrade = errors.New("invalid grade")
	ErrInvalidDays  = errors.New("postpone days must be at least 1")
)

// Service computes the scheduling state of a card after a rating.
// Implementations never mutate the card they are given.
type Service interface {
	// Rate returns a copy of card with scheduling fields and lifecycle
	// state updated for grade.
	Rate(card *domain.Card, grade domain.Grade, now time.Time) (*domain.Card, error)

	// Postpone pushes the due date forward by a number of days.
	Postpone(card *domain.Card, days int, now time.Time) (*domain.Card, error)
}

type defaultService struct {
	params *Params
}

// NewDefaultService creates a new rating algorithm with default parameters
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a new rating algorithm with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

func (s *defaultService) Rate(card *domain.Card, grade domain.Grade, now time.Time) (*domain.Card, error) {
	if card == nil {
		return nil, ErrNilCard
	}
	if !grade.Valid() {
		return nil, ErrInvalidGrade
	}
	return nextCard(card, grade, now, s.params), nil
}

func (s *defaultService) Postpone(card *domain.Card, days int, now time.Time) (*domain.Card, error) {
	if card == nil {
		return nil, ErrNilCard
	}
	if days < 1 {
		return nil, ErrInvalidDays
	}

	next := card.Clone()
	next.Due = card.Due.AddDate(0, 0, days)
	next.UpdatedAt = now
	return next, nil
}

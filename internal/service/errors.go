// Package service provides application-level services for cards and ratings.
package service

import (
	"errors"
	"fmt"
)

// Common service errors. The API layer maps them to HTTP status codes.
var (
	// ErrNotOwned indicates a card is owned by a different learner than the
	// one making the request. Maps to 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrEmptyDeck is returned when an import carries no cards.
	ErrEmptyDeck = errors.New("deck has no cards")
)

// ServiceError wraps unexpected failures with the operation that produced
// them so callers can use errors.As instead of string matching.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewCardServiceError creates a ServiceError for the card service.
func NewCardServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Service: "card", Operation: operation, Message: message, Err: err}
}

// NewRatingServiceError creates a ServiceError for the rating service.
func NewRatingServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Service: "rating", Operation: operation, Message: message, Err: err}
}

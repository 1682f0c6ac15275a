// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidGrade is returned when a rating grade is not valid.
	ErrInvalidGrade = errors.New("invalid grade")

	// ErrInvalidPhase is returned when a session phase is not valid.
	ErrInvalidPhase = errors.New("invalid session phase")

	// ErrGroupIndexOutOfRange is returned when a group index does not exist.
	ErrGroupIndexOutOfRange = errors.New("group index out of range")

	// ErrDuplicateNode is returned when a graph contains two nodes with one id.
	ErrDuplicateNode = errors.New("duplicate graph node id")
)

package session

import "errors"

var (
	// ErrItemNotFound is returned by queries for a card that is not queued.
	ErrItemNotFound = errors.New("session item not found")

	// ErrRaterNil is returned when a Controller is built without a rater.
	ErrRaterNil = errors.New("rater cannot be nil")
)

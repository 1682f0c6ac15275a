package engine

import "errors"

var (
	// ErrNotStarted is returned by intents sent before Start.
	ErrNotStarted = errors.New("session not started")

	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")

	// ErrNoGroups is returned by Start when the learner has no study groups.
	ErrNoGroups = errors.New("learner has no study groups")

	// ErrUnknownEdge is returned when an edge is not in the current graph.
	ErrUnknownEdge = errors.New("edge not in current graph")

	// ErrForeignCard is returned when an intent names a card owned by a
	// different learner.
	ErrForeignCard = errors.New("card belongs to another learner")

	// ErrMissingDependency is returned by NewSession when a required
	// collaborator is nil.
	ErrMissingDependency = errors.New("missing session dependency")
)

// Package events provides the session event types and an in-memory emitter.
//
// Each learning session owns its own emitter; there is no process-wide bus.
// Components publish what happened (a group was loaded, an item graduated, a
// rating could not be saved) without knowing who listens.
//
// The primary components are:
// - Event: a typed, JSON-encoded notification about one session
// - Handler: interface for components that react to events
// - Emitter: interface for components that publish events
// - Recorder: a Handler that keeps the most recent events for polling clients
package events

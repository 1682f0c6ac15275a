// Package api exposes learning sessions and card management over HTTP.
//
// Every route except /health requires a learner bearer token. Session
// routes operate on the caller's live session, created on first use by the
// engine registry; card routes operate on stored cards.
package api

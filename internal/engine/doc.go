// Package engine wires the learning-session components into one object per
// learner.
//
// A Session owns its cache manager, event emitter, task queue and worker
// pool, so nothing is shared between learners and everything is released on
// Close. Intents from the presentation layer are serialized by the session;
// graph builds run on the worker pool and are merged only if the group they
// were built for is still the active one.
package engine

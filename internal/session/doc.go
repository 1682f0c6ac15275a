// Package session implements the rehearsal state machine for one batch of
// cards.
//
// Every item moves Learn -> Choice -> Test. Failures are reinserted a short,
// fixed distance behind the head of the queue so the item resurfaces within
// the same sitting, and a passed spelling test removes the item and reports
// a pass grade to the rating service exactly once.
//
// The Controller is the only owner of the queue. Intents that reference an
// item no longer in the queue, or one in a different phase, are no-ops.
package session

// Package task runs a session's background work: graph builds and other
// enrichment jobs execute on a small worker pool fed by a bounded queue so
// they never block an intent. Tasks are ephemeral and die with the session.
package task

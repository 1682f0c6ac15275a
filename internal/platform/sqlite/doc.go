// Package sqlite provides SQLite implementations of the store interfaces
// using the pure-Go modernc.org/sqlite driver. It backs single-learner
// installs and the in-memory databases used by tests.
package sqlite

// Package domain contains the core entities of the learning-session engine:
// vocabulary cards and their lifecycle states, session items and phases,
// study groups, semantic graph snapshots and cache entries. It is independent
// of any storage, transport or presentation concern.
package domain

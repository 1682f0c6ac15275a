// Package service contains the application use cases that sit between the
// delivery layer and the stores: rating graduated cards, importing decks and
// editing card flags.
//
// Services receive their stores through constructor injection and never
// depend on a concrete database. Operations that touch more than one store
// run inside store.RunInTransaction when a *sql.DB is configured.
package service

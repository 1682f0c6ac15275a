// Package store declares the persistence contracts of the session engine:
// cards, study-group order and durable cache entries. The postgres and
// sqlite packages implement them; services run multi-store writes through
// RunInTransaction.
package store

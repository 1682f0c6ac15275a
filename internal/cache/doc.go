// Package cache implements the two-tier cache for generated graph data: a
// bounded in-memory tier in front of a durable CacheStore, with in-flight
// sentinels so concurrent requests for one key share a single generation.
package cache

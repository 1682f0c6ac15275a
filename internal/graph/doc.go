// Package graph builds semantic relationship graphs for a study group or a
// single card. A build picks context words from a corpus by embedding
// similarity, keeps a bounded number of the strongest edges per node and
// resolves relation labels through the cache before the graph is exposed.
// Example sentences for an edge are generated lazily, one edge at a time.
package graph

// Package embedding turns words into vectors and answers similarity queries
// over them. Vectors are memoized through the cache manager so each word is
// embedded at most once per model within the cache TTL.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors have different lengths.
var ErrDimensionMismatch = errors.New("vector dimensions differ")

// ErrEmptyText is returned when asked to embed blank text.
var ErrEmptyText = errors.New("cannot embed empty text")

// Embedder generates a vector for a single piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model identifies the vector space; vectors from different models are
	// never compared.
	Model() string
}

// Service is the embedding contract the engine components depend on.
type Service interface {
	// Embed returns the vector for word.
	Embed(ctx context.Context, word string) ([]float32, error)

	// EmbedAll embeds every word concurrently. Words that fail are missing
	// from the result.
	EmbedAll(ctx context.Context, words []string) map[string][]float32

	// Similarity returns the cosine similarity of two vectors, or 0 when
	// they cannot be compared.
	Similarity(a, b []float32) float64

	// NearestNeighbors returns up to k words from pool, excluding targets,
	// ordered by their best similarity to any target.
	NearestNeighbors(ctx context.Context, targets []string, k int, pool []string) ([]string, error)
}

// Cosine computes the cosine similarity of a and b.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}

// Similarity is Cosine with mismatches reported as 0.
func Similarity(a, b []float32) float64 {
	s, err := Cosine(a, b)
	if err != nil {
		return 0
	}
	return s
}

package generation

import (
	"context"
	"strings"
)

// EdgePair is an edge awaiting a relation label.
type EdgePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// EdgeLabel is a generated relation label for an edge.
type EdgeLabel struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Generator is the boundary between the engine and an external language model.
type Generator interface {
	// LabelEdges returns a relation label for as many pairs as it can.
	// Pairs missing from the result are simply unlabeled.
	LabelEdges(ctx context.Context, pairs []EdgePair) ([]EdgeLabel, error)

	// Example returns a short sentence using both words in the given relation.
	Example(ctx context.Context, wordA, wordB, relation string) (string, error)

	// RelatedWords returns up to n words semantically related to word.
	RelatedWords(ctx context.Context, word string, n int) ([]string, error)
}

// Unavailable is the Generator used when no language model is configured.
// Every call fails with ErrUnavailable so nothing empty gets cached.
type Unavailable struct{}

// LabelEdges implements Generator.
func (Unavailable) LabelEdges(context.Context, []EdgePair) ([]EdgeLabel, error) {
	return nil, ErrUnavailable
}

// Example implements Generator.
func (Unavailable) Example(context.Context, string, string, string) (string, error) {
	return "", ErrUnavailable
}

// RelatedWords implements Generator.
func (Unavailable) RelatedWords(context.Context, string, int) ([]string, error) {
	return nil, ErrUnavailable
}

// NormalizeLabel trims a generated label and lower-cases it so labels map
// onto a stable color encoding.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

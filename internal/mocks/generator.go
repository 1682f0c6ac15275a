package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/lexis/internal/generation"
)

// MockGenerator implements generation.Generator for testing. Without custom
// functions it labels every pair "related", returns an empty example and no
// related words.
type MockGenerator struct {
	LabelEdgesFn   func(ctx context.Context, pairs []generation.EdgePair) ([]generation.EdgeLabel, error)
	ExampleFn      func(ctx context.Context, wordA, wordB, relation string) (string, error)
	RelatedWordsFn func(ctx context.Context, word string, n int) ([]string, error)

	mu           sync.Mutex
	labelCalls   int
	labeledPairs []generation.EdgePair
	exampleCalls int
	relatedCalls int
}

// LabelEdges implements generation.Generator.
func (m *MockGenerator) LabelEdges(ctx context.Context, pairs []generation.EdgePair) ([]generation.EdgeLabel, error) {
	m.mu.Lock()
	m.labelCalls++
	m.labeledPairs = append(m.labeledPairs, pairs...)
	m.mu.Unlock()

	if m.LabelEdgesFn != nil {
		return m.LabelEdgesFn(ctx, pairs)
	}
	out := make([]generation.EdgeLabel, len(pairs))
	for i, p := range pairs {
		out[i] = generation.EdgeLabel{Source: p.Source, Target: p.Target, Label: "related"}
	}
	return out, nil
}

// Example implements generation.Generator.
func (m *MockGenerator) Example(ctx context.Context, wordA, wordB, relation string) (string, error) {
	m.mu.Lock()
	m.exampleCalls++
	m.mu.Unlock()

	if m.ExampleFn != nil {
		return m.ExampleFn(ctx, wordA, wordB, relation)
	}
	return "", nil
}

// RelatedWords implements generation.Generator.
func (m *MockGenerator) RelatedWords(ctx context.Context, word string, n int) ([]string, error) {
	m.mu.Lock()
	m.relatedCalls++
	m.mu.Unlock()

	if m.RelatedWordsFn != nil {
		return m.RelatedWordsFn(ctx, word, n)
	}
	return nil, nil
}

// LabelCalls returns how many times LabelEdges was called.
func (m *MockGenerator) LabelCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.labelCalls
}

// LabeledPairs returns every pair passed to LabelEdges.
func (m *MockGenerator) LabeledPairs() []generation.EdgePair {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generation.EdgePair(nil), m.labeledPairs...)
}

// ExampleCalls returns how many times Example was called.
func (m *MockGenerator) ExampleCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exampleCalls
}

// RelatedCalls returns how many times RelatedWords was called.
func (m *MockGenerator) RelatedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.relatedCalls
}

package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/phrazzld/lexis/internal/domain"
)

// ErrNoVector is returned by MockEmbedder for words it has no vector for.
var ErrNoVector = errors.New("mock embedder: no vector")

// MockEmbedder implements embedding.Embedder from a fixed table of vectors.
type MockEmbedder struct {
	Vectors map[string][]float32
	EmbedFn func(ctx context.Context, text string) ([]float32, error)

	mu    sync.Mutex
	calls map[string]int
}

// NewMockEmbedder creates a MockEmbedder over vectors keyed by word.
func NewMockEmbedder(vectors map[string][]float32) *MockEmbedder {
	return &MockEmbedder{Vectors: vectors, calls: make(map[string]int)}
}

// Model implements embedding.Embedder.
func (m *MockEmbedder) Model() string {
	return "mock"
}

// Embed implements embedding.Embedder.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	word := domain.NormalizeWord(text)
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[word]++
	m.mu.Unlock()

	if m.EmbedFn != nil {
		return m.EmbedFn(ctx, word)
	}
	v, ok := m.Vectors[word]
	if !ok {
		return nil, ErrNoVector
	}
	return v, nil
}

// Calls returns how many times word was embedded.
func (m *MockEmbedder) Calls(word string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[domain.NormalizeWord(word)]
}

package gemini

import (
	"context"

	"github.com/phrazzld/lexis/internal/embedding"
)

// DefaultEmbeddingModel is used when no embedding model is configured.
const DefaultEmbeddingModel = "text-embedding-004"

// Embedder implements embedding.Embedder with Gemini embeddings.
type Embedder struct {
	client *Client
	model  string
}

var _ embedding.Embedder = (*Embedder)(nil)

// NewEmbedder creates an Embedder for model.
func NewEmbedder(client *Client, model string) *Embedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Embedder{client: client, model: model}
}

// Embed implements embedding.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.client.embed(ctx, e.model, text)
}

// Model implements embedding.Embedder.
func (e *Embedder) Model() string {
	return "gemini:" + e.model
}

package graph

import (
	"context"
	"strings"

	"github.com/phrazzld/lexis/internal/cache"
	"github.com/phrazzld/lexis/internal/domain"
)

// Example returns the example sentence for an edge, generating it on first
// request. Concurrent requests for the same edge share one generation. An
// error means no example is available yet; callers show none.
func (b *Builder) Example(ctx context.Context, edge domain.GraphEdge, refresh bool) (string, error) {
	key := cache.ExampleKey(edge.Source, edge.Target, edge.Relation)
	gen := func(ctx context.Context) (string, error) {
		text, err := b.gen.Example(ctx, edge.Source, edge.Target, edge.Relation)
		return strings.TrimSpace(text), err
	}

	if refresh {
		return cache.Regenerate(ctx, b.cache, key, gen)
	}
	return cache.Fetch(ctx, b.cache, key, gen)
}

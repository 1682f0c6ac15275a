package graph

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/cache"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/embedding"
	"github.com/phrazzld/lexis/internal/generation"
)

// ErrNoTargets is returned when a build request names no target words.
var ErrNoTargets = errors.New("graph build needs at least one target word")

// Config holds the builder tunables.
type Config struct {
	ContextSize      int
	TargetEdgeLimit  int
	ContextEdgeLimit int
	EdgeThreshold    float64
}

// DefaultConfig returns the standard builder settings.
func DefaultConfig() Config {
	return Config{
		ContextSize:      15,
		TargetEdgeLimit:  4,
		ContextEdgeLimit: 2,
		EdgeThreshold:    0.3,
	}
}

// Request describes one group build.
type Request struct {
	// Targets are the words being studied.
	Targets []string
	// Corpus is the pool of unlearned words context nodes are drawn from.
	Corpus []string
	// Refresh regenerates cached labels instead of reusing them.
	Refresh bool
}

// Builder constructs graph snapshots.
type Builder struct {
	embed  embedding.Service
	gen    generation.Generator
	cache  *cache.Manager
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(embed embedding.Service, gen generation.Generator, c *cache.Manager, cfg Config, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		embed:  embed,
		gen:    gen,
		cache:  c,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("component", "graph_builder"),
	}
}

// Build produces the graph for a group of target words.
func (b *Builder) Build(ctx context.Context, req Request) (*domain.Graph, error) {
	targets := uniqueWords(req.Targets)
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	contextWords, err := b.embed.NearestNeighbors(ctx, targets, b.cfg.ContextSize, req.Corpus)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.WarnContext(ctx, "context selection failed, building without context nodes",
			"error", err)
		contextWords = nil
	}

	return b.assemble(ctx, targets, contextWords, req.Refresh)
}

// BuildForCard produces the graph for a single reviewed card. Context words
// come first from the generated related words for the card, then from the
// corpus by similarity, up to the configured context size.
func (b *Builder) BuildForCard(ctx context.Context, card *domain.Card, corpus []string, refresh bool) (*domain.Graph, error) {
	if card == nil {
		return nil, ErrNoTargets
	}
	targets := uniqueWords([]string{card.Word})
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	related := b.RelatedWords(ctx, card.Word, refresh)
	contextWords := make([]string, 0, b.cfg.ContextSize)
	seen := map[string]struct{}{targets[0]: {}}
	for _, w := range uniqueWords(related) {
		if len(contextWords) >= b.cfg.ContextSize {
			break
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		contextWords = append(contextWords, w)
	}

	if remaining := b.cfg.ContextSize - len(contextWords); remaining > 0 {
		pool := make([]string, 0, len(corpus))
		for _, w := range uniqueWords(corpus) {
			if _, dup := seen[w]; !dup {
				pool = append(pool, w)
			}
		}
		more, err := b.embed.NearestNeighbors(ctx, targets, remaining, pool)
		if err != nil {
			b.logger.WarnContext(ctx, "corpus neighbours unavailable", "error", err)
		}
		contextWords = append(contextWords, more...)
	}

	return b.assemble(ctx, targets, contextWords, refresh)
}

// RelatedWords returns the cached or freshly generated related words for
// word. Failures degrade to an empty result.
func (b *Builder) RelatedWords(ctx context.Context, word string, refresh bool) []string {
	gen := func(ctx context.Context) ([]string, error) {
		return b.gen.RelatedWords(ctx, domain.NormalizeWord(word), b.cfg.ContextSize)
	}

	key := cache.RelatedKey(word)
	var (
		words []string
		err   error
	)
	if refresh {
		words, err = cache.Regenerate(ctx, b.cache, key, gen)
	} else {
		words, err = cache.Fetch(ctx, b.cache, key, gen)
	}
	if err != nil {
		b.logger.DebugContext(ctx, "related words unavailable", "word", word, "error", err)
		return nil
	}
	return words
}

func (b *Builder) assemble(ctx context.Context, targets, contextWords []string, refresh bool) (*domain.Graph, error) {
	nodes := make([]domain.GraphNode, 0, len(targets)+len(contextWords))
	seen := make(map[string]struct{}, cap(nodes))
	for _, w := range targets {
		seen[w] = struct{}{}
		nodes = append(nodes, domain.GraphNode{ID: domain.NodeIDForWord(w), Label: w, Kind: domain.NodeTarget, Weight: 1})
	}
	for _, w := range contextWords {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		nodes = append(nodes, domain.GraphNode{ID: domain.NodeIDForWord(w), Label: w, Kind: domain.NodeContext})
	}

	words := make([]string, len(nodes))
	for i, n := range nodes {
		words[i] = n.ID
	}
	vectors := b.embed.EmbedAll(ctx, words)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	weighContextNodes(nodes, vectors, b.embed.Similarity)

	kinds := make(map[string]domain.NodeKind, len(nodes))
	for _, n := range nodes {
		kinds[n.ID] = n.Kind
	}
	limit := func(id string) int {
		if kinds[id] == domain.NodeTarget {
			return b.cfg.TargetEdgeLimit
		}
		return b.cfg.ContextEdgeLimit
	}

	candidates := CandidateEdges(nodes, vectors, b.cfg.EdgeThreshold, b.embed.Similarity)
	edges := SelectEdges(candidates, limit)
	edges = b.resolveLabels(ctx, edges, refresh)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := &domain.Graph{
		BuildID: uuid.New(),
		Nodes:   nodes,
		Edges:   edges,
		BuiltAt: b.now().UTC(),
	}
	b.logger.DebugContext(ctx, "graph built",
		"build_id", g.BuildID,
		"targets", len(targets),
		"nodes", len(nodes),
		"edges", len(edges))
	return g, nil
}

// weighContextNodes sets each context node's weight to its best similarity
// with any target node.
func weighContextNodes(nodes []domain.GraphNode, vectors map[string][]float32, sim func(a, b []float32) float64) {
	for i := range nodes {
		if nodes[i].Kind != domain.NodeContext {
			continue
		}
		v, ok := vectors[nodes[i].ID]
		if !ok {
			continue
		}
		for _, t := range nodes {
			tv, ok := vectors[t.ID]
			if t.Kind != domain.NodeTarget || !ok {
				continue
			}
			if s := sim(v, tv); s > nodes[i].Weight {
				nodes[i].Weight = s
			}
		}
	}
}

func uniqueWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		n := domain.NormalizeWord(w)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

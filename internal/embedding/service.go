package embedding

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/phrazzld/lexis/internal/cache"
	"github.com/phrazzld/lexis/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent embedder calls in EmbedAll.
const DefaultConcurrency = 8

// VectorService implements Service on top of an Embedder, memoizing vectors
// in a cache manager.
type VectorService struct {
	embedder    Embedder
	cache       *cache.Manager
	concurrency int
	logger      *slog.Logger
}

// NewVectorService creates a VectorService. cache may be nil to disable memoization.
func NewVectorService(embedder Embedder, c *cache.Manager, logger *slog.Logger) *VectorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorService{
		embedder:    embedder,
		cache:       c,
		concurrency: DefaultConcurrency,
		logger:      logger.With("component", "embedding", "model", embedder.Model()),
	}
}

// Embed implements Service.
func (s *VectorService) Embed(ctx context.Context, word string) ([]float32, error) {
	word = domain.NormalizeWord(word)
	if word == "" {
		return nil, ErrEmptyText
	}

	embed := func(ctx context.Context) ([]float32, error) {
		return s.embedder.Embed(ctx, word)
	}
	if s.cache == nil {
		return embed(ctx)
	}
	return cache.Fetch(ctx, s.cache, cache.VectorKey(s.embedder.Model(), word), embed)
}

// EmbedAll implements Service.
func (s *VectorService) EmbedAll(ctx context.Context, words []string) map[string][]float32 {
	var (
		mu  sync.Mutex
		out = make(map[string][]float32, len(words))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, w := range uniqueWords(words) {
		g.Go(func() error {
			vec, err := s.Embed(gctx, w)
			if err != nil {
				s.logger.DebugContext(ctx, "embedding failed", "word", w, "error", err)
				return nil
			}
			mu.Lock()
			out[w] = vec
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Similarity implements Service.
func (s *VectorService) Similarity(a, b []float32) float64 {
	return Similarity(a, b)
}

// NearestNeighbors implements Service.
func (s *VectorService) NearestNeighbors(ctx context.Context, targets []string, k int, pool []string) ([]string, error) {
	if k <= 0 || len(targets) == 0 || len(pool) == 0 {
		return nil, nil
	}

	exclude := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		exclude[domain.NormalizeWord(t)] = struct{}{}
	}
	candidates := make([]string, 0, len(pool))
	for _, w := range uniqueWords(pool) {
		if _, skip := exclude[w]; !skip {
			candidates = append(candidates, w)
		}
	}

	vectors := s.EmbedAll(ctx, append(append([]string{}, targets...), candidates...))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	targetVecs := make([][]float32, 0, len(targets))
	for _, t := range uniqueWords(targets) {
		if v, ok := vectors[t]; ok {
			targetVecs = append(targetVecs, v)
		}
	}

	return RankNeighbors(targetVecs, candidates, vectors, k), nil
}

// RankNeighbors scores each candidate by its best similarity to any target
// vector and returns the top k, ties broken alphabetically. Candidates
// without a vector are skipped.
func RankNeighbors(targets [][]float32, candidates []string, vectors map[string][]float32, k int) []string {
	type scored struct {
		word  string
		score float64
	}

	results := make([]scored, 0, len(candidates))
	for _, w := range candidates {
		v, ok := vectors[w]
		if !ok {
			continue
		}
		best := 0.0
		for i, t := range targets {
			if sim := Similarity(t, v); i == 0 || sim > best {
				best = sim
			}
		}
		results = append(results, scored{word: w, score: best})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].word < results[j].word
	})

	if len(results) > k {
		results = results[:k]
	}
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.word
	}
	return out
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

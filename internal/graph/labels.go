package graph

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/phrazzld/lexis/internal/cache"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/generation"
)

// labelSet maps a target word to the relation label of the edge from the
// cache key's source word.
type labelSet map[string]string

// resolveLabels fills Relation on edges. Labels cached under each source
// word are reused; only edges still missing a label are sent to the
// generator, in a single batch. Generation failures leave edges unlabeled.
//
// Source words that need generation are claimed in the cache before the
// batch is sent, so concurrent builds never label the same pair twice, and
// new labels are merged into whatever the key already holds.
func (b *Builder) resolveLabels(ctx context.Context, edges []domain.GraphEdge, refresh bool) []domain.GraphEdge {
	if len(edges) == 0 {
		return edges
	}

	known := make(map[string]labelSet)
	lookup := func(word string) labelSet {
		if set, ok := known[word]; ok {
			return set
		}
		set, ok, err := cache.Lookup[labelSet](ctx, b.cache, cache.LabelsKey(word))
		if err != nil {
			b.logger.DebugContext(ctx, "label cache read failed", "word", word, "error", err)
		}
		if !ok || set == nil {
			set = labelSet{}
		}
		known[word] = set
		return set
	}

	sources := make(map[string]struct{})
	for _, e := range edges {
		if refresh || labelFor(lookup, e) == "" {
			sources[e.Source] = struct{}{}
		}
	}
	if len(sources) > 0 {
		b.generateLabels(ctx, edges, sources, known, lookup, refresh)
	}

	out := make([]domain.GraphEdge, len(edges))
	for i, e := range edges {
		e.Relation = labelFor(lookup, e)
		out[i] = e
	}
	return out
}

// generateLabels claims the labels key of every word in sources, asks the
// generator for the pairs that are still unlabeled, and writes the merged
// sets back. known is updated with the claimed sets.
func (b *Builder) generateLabels(ctx context.Context, edges []domain.GraphEdge, sources map[string]struct{},
	known map[string]labelSet, lookup func(string) labelSet, refresh bool) {
	words := make([]string, 0, len(sources))
	for w := range sources {
		words = append(words, w)
	}
	// Claims are always taken in the same order so two builds cannot wait
	// on each other.
	sort.Strings(words)

	claims := make(map[string]*cache.Claim, len(words))
	defer func() {
		for _, c := range claims {
			c.Release()
		}
	}()
	for _, w := range words {
		c, err := b.cache.Claim(ctx, cache.LabelsKey(w))
		if err != nil {
			b.logger.WarnContext(ctx, "claiming labels failed", "word", w, "error", err)
			return
		}
		claims[w] = c
		known[w] = claimedSet(c)
	}

	var missing []generation.EdgePair
	for _, e := range edges {
		if _, claimed := claims[e.Source]; !claimed {
			continue
		}
		if !refresh && labelFor(lookup, e) != "" {
			continue
		}
		missing = append(missing, generation.EdgePair{Source: e.Source, Target: e.Target})
	}
	if len(missing) == 0 {
		return
	}

	generated, err := b.gen.LabelEdges(ctx, missing)
	if err != nil {
		b.logger.WarnContext(ctx, "relation labels unavailable",
			"missing", len(missing),
			"error", err)
	}

	dirty := make(map[string]struct{})
	for _, l := range generated {
		label := generation.NormalizeLabel(l.Label)
		src := domain.NormalizeWord(l.Source)
		if _, claimed := claims[src]; !claimed || label == "" {
			continue
		}
		known[src][domain.NormalizeWord(l.Target)] = label
		dirty[src] = struct{}{}
	}

	for word := range dirty {
		payload, err := json.Marshal(known[word])
		if err != nil {
			continue
		}
		if _, err := claims[word].Commit(ctx, payload); err != nil {
			b.logger.WarnContext(ctx, "storing labels failed", "word", word, "error", err)
		}
	}
}

// claimedSet decodes the set a claim currently holds, or returns an empty one.
func claimedSet(c *cache.Claim) labelSet {
	set := labelSet{}
	if payload, ok := c.Current(); ok {
		if err := json.Unmarshal(payload, &set); err != nil || set == nil {
			set = labelSet{}
		}
	}
	return set
}

// labelFor returns the label for e in either direction.
func labelFor(lookup func(string) labelSet, e domain.GraphEdge) string {
	if l := lookup(e.Source)[e.Target]; l != "" {
		return l
	}
	return lookup(e.Target)[e.Source]
}

package graph

import (
	"sort"

	"github.com/phrazzld/lexis/internal/domain"
)

// CandidateEdges returns every pair of nodes whose vectors are more similar
// than threshold. Nodes without a vector get no edges. Target nodes are
// always the source of a mixed edge; otherwise ids are ordered.
func CandidateEdges(nodes []domain.GraphNode, vectors map[string][]float32, threshold float64, sim func(a, b []float32) float64) []domain.GraphEdge {
	var edges []domain.GraphEdge
	for i := 0; i < len(nodes); i++ {
		vi, ok := vectors[nodes[i].ID]
		if !ok {
			continue
		}
		for j := i + 1; j < len(nodes); j++ {
			vj, ok := vectors[nodes[j].ID]
			if !ok {
				continue
			}
			s := sim(vi, vj)
			if s <= threshold {
				continue
			}
			src, dst := orient(nodes[i], nodes[j])
			edges = append(edges, domain.GraphEdge{Source: src, Target: dst, Similarity: s})
		}
	}
	return edges
}

// SelectEdges keeps the strongest edges such that no node ends up with more
// edges than limit(id). Edges are considered in order of descending
// similarity and kept only while both endpoints have capacity left.
func SelectEdges(candidates []domain.GraphEdge, limit func(id string) int) []domain.GraphEdge {
	sorted := append([]domain.GraphEdge(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Similarity != sorted[j].Similarity {
			return sorted[i].Similarity > sorted[j].Similarity
		}
		if sorted[i].Source != sorted[j].Source {
			return sorted[i].Source < sorted[j].Source
		}
		return sorted[i].Target < sorted[j].Target
	})

	degree := make(map[string]int)
	kept := make([]domain.GraphEdge, 0, len(sorted))
	for _, e := range sorted {
		if degree[e.Source] >= limit(e.Source) || degree[e.Target] >= limit(e.Target) {
			continue
		}
		degree[e.Source]++
		degree[e.Target]++
		kept = append(kept, e)
	}
	return kept
}

func orient(a, b domain.GraphNode) (string, string) {
	switch {
	case a.Kind == domain.NodeTarget && b.Kind != domain.NodeTarget:
		return a.ID, b.ID
	case b.Kind == domain.NodeTarget && a.Kind != domain.NodeTarget:
		return b.ID, a.ID
	case a.ID <= b.ID:
		return a.ID, b.ID
	default:
		return b.ID, a.ID
	}
}

package graph

import (
	"testing"

	"github.com/phrazzld/lexis/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSelectEdgesRespectsBothEndpoints(t *testing.T) {
	t.Parallel()
	// a star around hub: the hub may keep two edges, leaves one each.
	candidates := []domain.GraphEdge{
		{Source: "hub", Target: "a", Similarity: 0.9},
		{Source: "hub", Target: "b", Similarity: 0.8},
		{Source: "hub", Target: "c", Similarity: 0.7},
		{Source: "a", Target: "b", Similarity: 0.95},
	}
	limits := map[string]int{"hub": 2, "a": 1, "b": 1, "c": 1}

	kept := SelectEdges(candidates, func(id string) int { return limits[id] })

	assert.Equal(t, []domain.GraphEdge{
		{Source: "a", Target: "b", Similarity: 0.95},
		{Source: "hub", Target: "c", Similarity: 0.7},
	}, kept)
}

func TestCandidateEdgesThresholdAndOrientation(t *testing.T) {
	t.Parallel()
	nodes := []domain.GraphNode{
		{ID: "z", Kind: domain.NodeContext},
		{ID: "a", Kind: domain.NodeTarget},
		{ID: "m", Kind: domain.NodeContext},
	}
	vectors := map[string][]float32{"z": {1}, "a": {1}, "m": {1}}
	constant := func(a, b []float32) float64 { return 0.3 }

	assert.Empty(t, CandidateEdges(nodes, vectors, 0.3, constant), "threshold is exclusive")

	high := func(a, b []float32) float64 { return 0.5 }
	edges := CandidateEdges(nodes, vectors, 0.3, high)
	assert.Equal(t, []domain.GraphEdge{
		{Source: "a", Target: "z", Similarity: 0.5},
		{Source: "m", Target: "z", Similarity: 0.5},
		{Source: "a", Target: "m", Similarity: 0.5},
	}, edges)
}

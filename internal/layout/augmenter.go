// Package layout derives a semantic gravity force from graph similarity data
// for a force-directed simulation. Physics bodies are kept apart from the
// immutable graph snapshot and joined to it by node id.
package layout

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/embedding"
)

// Gravity tunables.
const (
	DefaultThreshold = 0.5
	MinRestDistance  = 50.0
	RestDistanceSpan = 400.0

	// ForceName is the name the gravity force is registered under.
	ForceName = "semantic-gravity"
)

// GravityEdge is a derived attraction between two nodes. It is never shown
// as a semantic relation.
type GravityEdge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	Similarity   float64 `json:"similarity"`
	RestDistance float64 `json:"rest_distance"`
}

// RestDistance maps similarity onto the distance a gravity edge settles at.
func RestDistance(similarity float64) float64 {
	return MinRestDistance + (1-similarity)*RestDistanceSpan
}

// Augmenter holds the gravity edges for the current node set.
type Augmenter struct {
	threshold float64

	mu        sync.RWMutex
	edges     []GravityEdge
	signature string
	sim       Simulation
}

// NewAugmenter creates an Augmenter. A non-positive threshold uses the default.
func NewAugmenter(threshold float64) *Augmenter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Augmenter{threshold: threshold}
}

// Rebuild recomputes every gravity edge for nodes from scratch. Nodes
// without a vector get none.
func (a *Augmenter) Rebuild(nodes []domain.GraphNode, vectors map[string][]float32) []GravityEdge {
	var edges []GravityEdge
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
			sim := embedding.Similarity(vi, vj)
			if sim <= a.threshold {
				continue
			}
			edges = append(edges, GravityEdge{
				Source:       nodes[i].ID,
				Target:       nodes[j].ID,
				Similarity:   sim,
				RestDistance: RestDistance(sim),
			})
		}
	}

	a.mu.Lock()
	a.edges = edges
	a.signature = signature(nodes)
	a.mu.Unlock()

	return append([]GravityEdge(nil), edges...)
}

// Edges returns a copy of the current gravity edges.
func (a *Augmenter) Edges() []GravityEdge {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]GravityEdge(nil), a.edges...)
}

// Register rebuilds the gravity edges and re-registers the force on sim when
// the node set differs from the last build or sim is a different
// simulation. It reports whether it did.
func (a *Augmenter) Register(sim Simulation, nodes []domain.GraphNode, vectors map[string][]float32) bool {
	a.mu.RLock()
	unchanged := a.sim == sim && a.signature != "" && a.signature == signature(nodes)
	a.mu.RUnlock()
	if unchanged {
		return false
	}

	a.Rebuild(nodes, vectors)
	sim.RemoveForce(ForceName)
	sim.SetForce(ForceName, a.Apply)

	a.mu.Lock()
	a.sim = sim
	a.mu.Unlock()
	return true
}

// Apply pulls together the two bodies of every gravity edge that are
// farther apart than the edge's rest distance. The impulse is scaled by
// alpha and similarity and never pushes bodies apart. Edges whose bodies
// are missing are skipped.
func (a *Augmenter) Apply(bodies []*Body, alpha float64) {
	a.mu.RLock()
	edges := a.edges
	a.mu.RUnlock()

	if len(edges) == 0 || alpha <= 0 {
		return
	}

	index := make(map[string]*Body, len(bodies))
	for _, b := range bodies {
		index[b.ID] = b
	}

	for _, e := range edges {
		s, ok := index[e.Source]
		if !ok {
			continue
		}
		t, ok := index[e.Target]
		if !ok {
			continue
		}

		dx := (t.X + t.VX) - (s.X + s.VX)
		dy := (t.Y + t.VY) - (s.Y + s.VY)
		dist := math.Hypot(dx, dy)
		if dist <= e.RestDistance || dist == 0 {
			continue
		}

		k := (dist - e.RestDistance) / dist * alpha * e.Similarity * 0.5
		s.VX += dx * k
		s.VY += dy * k
		t.VX -= dx * k
		t.VY -= dy * k
	}
}

func signature(nodes []domain.GraphNode) string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, "\x00")
}

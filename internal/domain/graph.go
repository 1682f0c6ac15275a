package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NodeKind distinguishes studied words from neighbouring corpus words.
type NodeKind string

// Node kinds
const (
	NodeTarget  NodeKind = "target"
	NodeContext NodeKind = "context"
)

// GraphNode is a word in a semantic graph snapshot.
type GraphNode struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	Kind   NodeKind `json:"kind"`
	Weight float64  `json:"weight"`
}

// GraphEdge is a semantic relation between two nodes of the same snapshot.
// Relation is empty when no label could be generated.
type GraphEdge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Similarity float64 `json:"similarity"`
	Relation   string  `json:"relation,omitempty"`
}

// Graph is an immutable snapshot produced by one build. It is replaced as a
// whole on rebuild and never patched from outside the builder.
type Graph struct {
	BuildID uuid.UUID   `json:"build_id"`
	Nodes   []GraphNode `json:"nodes"`
	Edges   []GraphEdge `json:"edges"`
	BuiltAt time.Time   `json:"built_at"`
}

// NodeIDForWord returns the node id used for a word.
func NodeIDForWord(word string) string {
	return NormalizeWord(word)
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (GraphNode, bool) {
	if g == nil {
		return GraphNode{}, false
	}
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GraphNode{}, false
}

// Neighbors returns the ids of nodes sharing an edge with id.
func (g *Graph) Neighbors(id string) []string {
	if g == nil {
		return nil
	}
	var out []string
	for _, e := range g.Edges {
		switch id {
		case e.Source:
			out = append(out, e.Target)
		case e.Target:
			out = append(out, e.Source)
		}
	}
	return out
}

// Degree returns the number of edges touching id.
func (g *Graph) Degree(id string) int {
	return len(g.Neighbors(id))
}

// Validate checks that node ids are unique and every edge references known nodes.
func (g *Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, e := range g.Edges {
		if _, ok := seen[e.Source]; !ok {
			return fmt.Errorf("%w: edge source %q not in graph", ErrValidation, e.Source)
		}
		if _, ok := seen[e.Target]; !ok {
			return fmt.Errorf("%w: edge target %q not in graph", ErrValidation, e.Target)
		}
	}
	return nil
}

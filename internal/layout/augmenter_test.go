package layout

import (
	"math"
	"testing"

	"github.com/phrazzld/lexis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nodes(ids ...string) []domain.GraphNode {
	out := make([]domain.GraphNode, len(ids))
	for i, id := range ids {
		out[i] = domain.GraphNode{ID: id}
	}
	return out
}

var testVectors = map[string][]float32{
	"cat":    {1, 0},
	"kitten": {0.9, 0.1},
	"dog":    {0.5, 0.5},
	"car":    {0, 1},
}

type recordingSim struct {
	set, removed []string
	forces       map[string]Force
}

func (r *recordingSim) SetForce(name string, f Force) {
	if r.forces == nil {
		r.forces = map[string]Force{}
	}
	r.set = append(r.set, name)
	r.forces[name] = f
}

func (r *recordingSim) RemoveForce(name string) {
	r.removed = append(r.removed, name)
	delete(r.forces, name)
}

func TestRestDistance(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 50, RestDistance(1), 1e-9)
	assert.InDelta(t, 250, RestDistance(0.5), 1e-9)
	assert.InDelta(t, 90, RestDistance(0.9), 1e-9)
}

func TestRebuildThreshold(t *testing.T) {
	t.Parallel()
	a := NewAugmenter(0)

	edges := a.Rebuild(nodes("cat", "kitten", "dog", "car", "ghost"), testVectors)

	// cat-kitten .994, kitten-dog .781, cat-dog .707, dog-car .707.
	// cat-car and kitten-car fall below 0.5; ghost has no vector.
	require.Len(t, edges, 4)
	for _, e := range edges {
		assert.Greater(t, e.Similarity, 0.5)
		assert.InDelta(t, RestDistance(e.Similarity), e.RestDistance, 1e-9)
		assert.NotEqual(t, "ghost", e.Source)
		assert.NotEqual(t, "ghost", e.Target)
	}
}

func TestApplyOnlyPulls(t *testing.T) {
	t.Parallel()
	a := NewAugmenter(0)
	a.Rebuild(nodes("cat", "kitten"), testVectors)
	rest := a.Edges()[0].RestDistance

	far := []*Body{{ID: "cat", X: 0}, {ID: "kitten", X: rest + 200}}
	a.Apply(far, 1)
	assert.Greater(t, far[0].VX, 0.0, "source pulled towards target")
	assert.Less(t, far[1].VX, 0.0, "target pulled towards source")
	assert.InDelta(t, 0, far[0].VX+far[1].VX, 1e-9, "impulse is symmetric")

	near := []*Body{{ID: "cat", X: 0}, {ID: "kitten", X: rest - 10}}
	a.Apply(near, 1)
	assert.Zero(t, near[0].VX)
	assert.Zero(t, near[1].VX)
}

func TestApplyScalesWithAlphaAndSkipsMissingBodies(t *testing.T) {
	t.Parallel()
	a := NewAugmenter(0)
	a.Rebuild(nodes("cat", "kitten", "dog"), testVectors)

	hot := []*Body{{ID: "cat"}, {ID: "kitten", X: 1000}}
	cool := []*Body{{ID: "cat"}, {ID: "kitten", X: 1000}}
	a.Apply(hot, 1)
	a.Apply(cool, 0.1)
	assert.InDelta(t, hot[0].VX/10, cool[0].VX, 1e-9)

	// dog has edges but no body; nothing panics and nothing else moves.
	lone := []*Body{{ID: "dog", X: 5}}
	a.Apply(lone, 1)
	assert.Zero(t, lone[0].VX)
}

func TestRegisterOnlyOnNodeSetChange(t *testing.T) {
	t.Parallel()
	a := NewAugmenter(0)
	sim := &recordingSim{}

	assert.True(t, a.Register(sim, nodes("cat", "kitten", "dog"), testVectors))
	assert.False(t, a.Register(sim, nodes("dog", "cat", "kitten"), testVectors), "same set in another order")
	assert.Equal(t, []string{ForceName}, sim.set)

	assert.True(t, a.Register(sim, nodes("cat", "car"), testVectors))
	assert.Equal(t, []string{ForceName, ForceName}, sim.set)
	assert.Equal(t, []string{ForceName, ForceName}, sim.removed)

	other := &recordingSim{}
	assert.True(t, a.Register(other, nodes("cat", "car"), testVectors), "new simulation gets the force")
	assert.Equal(t, []string{ForceName}, other.set)

	for _, e := range a.Edges() {
		assert.NotEqual(t, "kitten", e.Source, "stale edge survived rebuild")
		assert.NotEqual(t, "kitten", e.Target, "stale edge survived rebuild")
	}
}

func TestStepperPullsSimilarNodesTogether(t *testing.T) {
	t.Parallel()
	ns := nodes("cat", "kitten")
	s := NewStepper(ns)
	a := NewAugmenter(0)
	a.Register(s, ns, testVectors)

	// Spread the bodies far apart, then let gravity pull them in.
	s.bodies[1].X, s.bodies[1].Y = 800, 0
	s.Run(300)

	pos := s.Positions()
	dist := math.Hypot(pos[1].X-pos[0].X, pos[1].Y-pos[0].Y)
	assert.Less(t, dist, 400.0)
	assert.Less(t, s.Alpha(), 0.5)
}

func TestManyBodyRepels(t *testing.T) {
	t.Parallel()
	bodies := []*Body{{ID: "a"}, {ID: "b", X: 10}}
	ManyBody(30)(bodies, 1)
	assert.Less(t, bodies[0].VX, 0.0)
	assert.Greater(t, bodies[1].VX, 0.0)
}

package layout

import (
	"math"
	"sort"
	"sync"

	"github.com/phrazzld/lexis/internal/domain"
)

// Body is the mutable physics state of one graph node.
type Body struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// Force mutates body velocities for one tick.
type Force func(bodies []*Body, alpha float64)

// Simulation is the part of a physics engine the augmenter needs.
type Simulation interface {
	SetForce(name string, f Force)
	RemoveForce(name string)
}

// Stepper is a minimal force-directed simulation: named forces adjust
// velocities each tick, then positions integrate with velocity decay while
// alpha cools towards zero.
type Stepper struct {
	mu            sync.Mutex
	bodies        []*Body
	forces        map[string]Force
	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	velocityDecay float64
}

// NewStepper creates a Stepper with bodies laid out on a phyllotaxis spiral,
// the same deterministic start d3-force uses.
func NewStepper(nodes []domain.GraphNode) *Stepper {
	bodies := make([]*Body, len(nodes))
	for i, n := range nodes {
		r := 10 * math.Sqrt(0.5+float64(i))
		angle := float64(i) * math.Pi * (3 - math.Sqrt(5))
		bodies[i] = &Body{ID: n.ID, X: r * math.Cos(angle), Y: r * math.Sin(angle)}
	}
	return &Stepper{
		bodies:        bodies,
		forces:        make(map[string]Force),
		alpha:         1,
		alphaMin:      0.001,
		alphaDecay:    1 - math.Pow(0.001, 1.0/300),
		velocityDecay: 0.4,
	}
}

// SetForce implements Simulation.
func (s *Stepper) SetForce(name string, f Force) {
	s.mu.Lock()
	s.forces[name] = f
	s.mu.Unlock()
}

// RemoveForce implements Simulation.
func (s *Stepper) RemoveForce(name string) {
	s.mu.Lock()
	delete(s.forces, name)
	s.mu.Unlock()
}

// Tick advances the simulation by one step.
func (s *Stepper) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alpha += (0 - s.alpha) * s.alphaDecay

	names := make([]string, 0, len(s.forces))
	for name := range s.forces {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.forces[name](s.bodies, s.alpha)
	}

	for _, b := range s.bodies {
		b.VX *= 1 - s.velocityDecay
		b.VY *= 1 - s.velocityDecay
		b.X += b.VX
		b.Y += b.VY
	}
}

// Run ticks until alpha drops below its minimum or maxTicks is reached.
func (s *Stepper) Run(maxTicks int) {
	for i := 0; i < maxTicks && s.Alpha() >= s.alphaMin; i++ {
		s.Tick()
	}
}

// Alpha returns the current cooling factor.
func (s *Stepper) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// Positions returns a copy of every body.
func (s *Stepper) Positions() []Body {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Body, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = *b
	}
	return out
}

// ManyBody returns a repulsion force between every pair of bodies with
// strength falling off with squared distance.
func ManyBody(strength float64) Force {
	return func(bodies []*Body, alpha float64) {
		for i := 0; i < len(bodies); i++ {
			for j := i + 1; j < len(bodies); j++ {
				a, b := bodies[i], bodies[j]
				dx, dy := b.X-a.X, b.Y-a.Y
				d2 := dx*dx + dy*dy
				if d2 < 1 {
					d2 = 1
				}
				k := strength * alpha / d2
				a.VX -= dx * k
				a.VY -= dy * k
				b.VX += dx * k
				b.VY += dy * k
			}
		}
	}
}

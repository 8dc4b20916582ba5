package layout

import (
	"math"

	"github.com/chainbreak/chainview/pkg/graph"
)

// =============================================================================
// Tuning - Single Source of Truth
// =============================================================================

// Config holds the force tuning parameters. The defaults settle a few
// hundred nodes without visible oscillation.
type Config struct {
	LinkDistance   float64 // Target separation for connected nodes
	ChargeStrength float64 // Pairwise repulsion (negative repels)
	CenterStrength float64 // Pull toward the viewport center
	VelocityDecay  float64 // Per-tick velocity damping factor
	AlphaMin       float64 // Energy threshold below which the engine is settled
	AlphaDecay     float64 // Geometric cooling rate per tick
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		LinkDistance:   60,
		ChargeStrength: -80,
		CenterStrength: 0.05,
		VelocityDecay:  0.6,
		AlphaMin:       0.001,
		// 1 - alphaMin^(1/300): cools to settled in roughly 300 ticks.
		AlphaDecay: 1 - math.Pow(0.001, 1.0/300),
	}
}

// =============================================================================
// Engine
// =============================================================================

// particle pairs a model node with its simulation state.
type particle struct {
	node   *graph.Node
	vx, vy float64
	pinned bool
}

// link is a resolved edge with a precomputed spring strength.
type link struct {
	source, target *particle
	distance       float64
	strength       float64
	bias           float64 // How much of the correction the source absorbs
}

// Engine is the force simulation over one model. Create with New; replace
// wholesale when the model is replaced.
type Engine struct {
	cfg       Config
	particles []*particle
	byID      map[string]*particle
	links     []link

	alpha  float64
	cx, cy float64
}

// New creates an engine over the model's nodes and edges, centered at
// (cx, cy), with full energy.
func New(model *graph.Model, cfg Config, cx, cy float64) *Engine {
	e := &Engine{
		cfg:   cfg,
		byID:  make(map[string]*particle),
		alpha: 1,
		cx:    cx,
		cy:    cy,
	}
	for _, n := range model.Nodes() {
		p := &particle{node: n}
		e.particles = append(e.particles, p)
		e.byID[n.ID] = p
	}

	degree := make(map[string]int)
	for _, edge := range model.Edges() {
		degree[edge.Source]++
		degree[edge.Target]++
	}
	for _, edge := range model.Edges() {
		src, dst := e.byID[edge.Source], e.byID[edge.Target]
		if src == nil || dst == nil {
			continue // model guarantees resolvable endpoints; belt and braces
		}
		ds, dt := degree[edge.Source], degree[edge.Target]
		e.links = append(e.links, link{
			source:   src,
			target:   dst,
			distance: cfg.LinkDistance,
			// Weak strength scaled by inverse degree so hubs settle
			// instead of oscillating.
			strength: 1 / float64(min(ds, dt)),
			bias:     float64(ds) / float64(ds+dt),
		})
	}
	return e
}

// Alpha returns the current simulation energy in [0,1].
func (e *Engine) Alpha() float64 { return e.alpha }

// Settled reports whether the simulation has cooled below the minimum.
func (e *Engine) Settled() bool { return e.alpha < e.cfg.AlphaMin }

// Restart reheats the simulation to the given energy, clamped to [0,1].
func (e *Engine) Restart(alpha float64) {
	e.alpha = math.Min(math.Max(alpha, 0), 1)
}

// SetCenter moves the centering force target, used when the viewport is
// resized or fullscreen toggles change the surface dimensions.
func (e *Engine) SetCenter(cx, cy float64) {
	e.cx, e.cy = cx, cy
}

// Pin locks a node at (x, y). While pinned the node's position is
// authoritative: ticks never overwrite it, but the node keeps exerting
// forces on its neighbors.
func (e *Engine) Pin(id string, x, y float64) {
	p, ok := e.byID[id]
	if !ok {
		return
	}
	p.pinned = true
	p.vx, p.vy = 0, 0
	p.node.X, p.node.Y = x, y
}

// Unpin releases a previously pinned node back to the simulation.
func (e *Engine) Unpin(id string) {
	if p, ok := e.byID[id]; ok {
		p.pinned = false
	}
}

// Pinned reports whether the node is currently pinned.
func (e *Engine) Pinned(id string) bool {
	p, ok := e.byID[id]
	return ok && p.pinned
}

// Tick advances the simulation one step and reports whether anything moved.
// A settled engine returns false without touching positions.
func (e *Engine) Tick() bool {
	if e.Settled() || len(e.particles) == 0 {
		return false
	}

	e.alpha += -e.alpha * e.cfg.AlphaDecay

	e.applyLinks()
	e.applyCharge()
	e.applyCenter()
	e.applyCollision()

	for _, p := range e.particles {
		if p.pinned {
			p.vx, p.vy = 0, 0
			continue
		}
		p.vx *= e.cfg.VelocityDecay
		p.vy *= e.cfg.VelocityDecay
		p.node.X += p.vx
		p.node.Y += p.vy
	}
	return true
}

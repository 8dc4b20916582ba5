package layout

import "math"

// jiggle breaks exact coincidence between two particles so force directions
// stay defined. Deterministic rather than random: the offset direction does
// not matter, only that it is non-zero.
const jiggle = 1e-6

// applyLinks pulls connected nodes toward the configured separation.
// The correction is split between endpoints by degree bias; a pinned
// endpoint absorbs none of it, pushing the full correction to the other end.
func (e *Engine) applyLinks() {
	for _, l := range e.links {
		dx := l.target.node.X + l.target.vx - l.source.node.X - l.source.vx
		dy := l.target.node.Y + l.target.vy - l.source.node.Y - l.source.vy
		dist := math.Hypot(dx, dy)
		if dist == 0 {
			dx, dist = jiggle, jiggle
		}
		k := (dist - l.distance) / dist * e.alpha * l.strength
		dx *= k
		dy *= k

		sb, tb := l.bias, 1-l.bias
		switch {
		case l.source.pinned && l.target.pinned:
			continue
		case l.source.pinned:
			sb, tb = 0, 1
		case l.target.pinned:
			sb, tb = 1, 0
		}
		l.target.vx -= dx * tb
		l.target.vy -= dy * tb
		l.source.vx += dx * sb
		l.source.vy += dy * sb
	}
}

// applyCharge applies pairwise repulsion. O(n²) over the pair set; graphs
// at the scale this engine serves (hundreds of nodes per load) stay well
// inside a frame budget without a quadtree.
func (e *Engine) applyCharge() {
	for i, a := range e.particles {
		for _, b := range e.particles[i+1:] {
			dx := b.node.X - a.node.X
			dy := b.node.Y - a.node.Y
			d2 := dx*dx + dy*dy
			if d2 == 0 {
				dx, d2 = jiggle, jiggle*jiggle
			}
			f := e.cfg.ChargeStrength * e.alpha / d2
			fx, fy := dx*f, dy*f
			if !a.pinned {
				a.vx += fx
				a.vy += fy
			}
			if !b.pinned {
				b.vx -= fx
				b.vy -= fy
			}
		}
	}
}

// applyCenter pulls each free node weakly toward the viewport center.
// Applied per node rather than as a rigid translation so pinned nodes are
// never dragged along.
func (e *Engine) applyCenter() {
	k := e.cfg.CenterStrength * e.alpha
	for _, p := range e.particles {
		if p.pinned {
			continue
		}
		p.vx += (e.cx - p.node.X) * k
		p.vy += (e.cy - p.node.Y) * k
	}
}

// applyCollision separates overlapping node circles. Each overlapping pair
// is pushed apart along its axis, weighted so the smaller node yields more.
func (e *Engine) applyCollision() {
	for i, a := range e.particles {
		for _, b := range e.particles[i+1:] {
			dx := b.node.X - a.node.X
			dy := b.node.Y - a.node.Y
			dist := math.Hypot(dx, dy)
			minDist := a.node.Radius + b.node.Radius
			if dist >= minDist {
				continue
			}
			if dist == 0 {
				dx, dist = jiggle, jiggle
			}
			overlap := (minDist - dist) / dist
			wa := b.node.Radius * b.node.Radius
			wb := a.node.Radius * a.node.Radius
			total := wa + wb
			if !a.pinned {
				a.vx -= dx * overlap * (wa / total)
				a.vy -= dy * overlap * (wa / total)
			}
			if !b.pinned {
				b.vx += dx * overlap * (wb / total)
				b.vy += dy * overlap * (wb / total)
			}
		}
	}
}

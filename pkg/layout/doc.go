// Package layout runs the continuous force simulation that positions the
// transaction network.
//
// The engine combines four forces each tick:
//
//   - a spring force pulling connected nodes toward a target separation
//   - a pairwise repulsive charge preventing overlap and collapse
//   - a weak centering force pulling the layout toward the viewport center
//   - a collision force keeping node radii from overlapping
//
// Simulation energy (alpha) decays geometrically toward zero each tick; the
// engine is settled once alpha drops below the minimum. Restart reheats it,
// which the interaction layer uses when a drag begins or the model changes.
//
// Pinning: a drag-pinned node is excluded from integration entirely (its
// position is authoritative and never overwritten by a tick) but still
// exerts repulsion and spring tension on its neighbors, so the surrounding
// layout keeps reacting while the user holds a node in place.
//
// The engine writes positions directly into the model's nodes; it is the
// sole owner of node positions outside of an active drag. It is not safe
// for concurrent use - the session loop serializes ticks and mutations.
package layout

package session

import (
	"context"
	"math"

	"github.com/chainbreak/chainview/pkg/render"
)

// dragAlpha is the energy a drag injects: enough for neighbors to follow
// the pinned node without re-running the full cooling schedule.
const dragAlpha = 0.3

// wheelZoomBase converts wheel delta ticks into a zoom factor.
const wheelZoomBase = 1.1

// =============================================================================
// Drag
// =============================================================================

// DragStart pins the node under the pointer and reheats the simulation.
// Unknown node IDs are ignored; a gesture can never crash the session.
// Starting a drag while one is active (a lost pointer-up) releases the
// previous node first, so no node stays pinned past its own drag.
func (s *Session) DragStart(nodeID string, px, py float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady || s.engine == nil || s.model.Node(nodeID) == nil {
		return
	}
	if s.drag.active && s.drag.nodeID != nodeID {
		s.engine.Unpin(s.drag.nodeID)
	}
	wx, wy := s.vp.Transform().Invert(px, py)
	s.engine.Pin(nodeID, wx, wy)
	s.engine.Restart(dragAlpha)
	s.drag = dragState{active: true, nodeID: nodeID}
}

// DragMove updates the pinned position to follow the pointer.
func (s *Session) DragMove(px, py float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drag.active || s.engine == nil {
		return
	}
	wx, wy := s.vp.Transform().Invert(px, py)
	s.engine.Pin(s.drag.nodeID, wx, wy)
}

// DragEnd releases the node back to the simulation, which cools naturally.
func (s *Session) DragEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drag.active {
		return
	}
	if s.engine != nil {
		s.engine.Unpin(s.drag.nodeID)
	}
	s.drag = dragState{}
}

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.active
}

// =============================================================================
// Zoom / Pan
// =============================================================================

// Wheel applies a wheel or pinch gesture at the given pointer position.
// Negative delta zooms in. The resulting scale is clamped to [0.1, 10].
func (s *Session) Wheel(delta float64, px, py float64) {
	if delta == 0 || math.IsNaN(delta) {
		return
	}
	factor := wheelZoomBase
	if delta > 0 {
		factor = 1 / wheelZoomBase
	}
	s.Zoom(factor, px, py)
}

// Zoom multiplies the scale by factor anchored at the given screen point.
func (s *Session) Zoom(factor float64, px, py float64) {
	s.mu.Lock()
	s.vp.ZoomAt(factor, px, py)
	s.mu.Unlock()
	s.emitFrame()
}

// ZoomBy multiplies the scale by factor anchored at the surface center.
func (s *Session) ZoomBy(factor float64) {
	s.mu.Lock()
	s.vp.ZoomBy(factor)
	s.mu.Unlock()
	s.emitFrame()
}

// Pan shifts the view by a screen-space delta.
func (s *Session) Pan(dx, dy float64) {
	s.mu.Lock()
	s.vp.PanBy(dx, dy)
	s.mu.Unlock()
	s.emitFrame()
}

// ResetView restores the identity transform.
func (s *Session) ResetView() {
	s.mu.Lock()
	s.vp.ResetTransform()
	s.mu.Unlock()
	s.emitFrame()
}

// Transform returns the current viewport transform.
func (s *Session) Transform() (scale, tx, ty float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.vp.Transform()
	return t.Scale, t.Tx, t.Ty
}

// =============================================================================
// Selection
// =============================================================================

// Click performs a hit test at the pointer position. A hit emits a
// read-only snapshot of the node's current visual and attribute state;
// a miss emits nil, clearing the selection.
func (s *Session) Click(px, py float64) {
	s.mu.Lock()
	var hit *render.NodePrimitive
	if s.state == StateReady && s.model != nil {
		frame := s.composeLocked()
		// Topmost node wins: later primitives draw over earlier ones.
		for i := len(frame.Nodes) - 1; i >= 0; i-- {
			n := frame.Nodes[i]
			if math.Hypot(px-n.X, py-n.Y) <= n.Radius {
				snapshot := n
				hit = &snapshot
				break
			}
		}
	}
	s.mu.Unlock()

	if cb := s.opts.Callbacks.OnNodeSelect; cb != nil {
		cb(hit)
	}
}

// =============================================================================
// Viewport Events
// =============================================================================

// HandleResize records a new surface size. When the change is real (not
// sub-pixel churn) the simulation's center force is re-initialized and the
// layout is gently reheated so nodes drift toward the new center.
func (s *Session) HandleResize(w, h float64) {
	s.mu.Lock()
	reinit := s.vp.Resize(w, h)
	becameReady := reinit && s.vp.ContainerReady() && !s.rendered
	if reinit && s.engine != nil {
		cx, cy := s.vp.Center()
		s.engine.SetCenter(cx, cy)
		s.engine.Restart(dragAlpha)
	}
	if s.vp.ContainerReady() {
		s.rendered = true
	}
	s.mu.Unlock()

	if becameReady {
		s.logger.Info("rendering surface initialized", "session", s.id, "width", w, "height", h)
	}
	if reinit {
		s.emitFrame()
	}
}

// ContainerReady reports whether the rendering surface has a usable size.
func (s *Session) ContainerReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp.ContainerReady()
}

// EnterFullscreen requests fullscreen from the host. On denial the state
// is unchanged and a VIEWPORT error is surfaced and returned.
func (s *Session) EnterFullscreen(ctx context.Context) error {
	s.mu.Lock()
	err := s.vp.EnterFullscreen(ctx)
	s.mu.Unlock()
	if err != nil {
		s.emitError(err)
		return err
	}
	return nil
}

// ExitFullscreen leaves fullscreen. The flag converges to false even when
// the host reports an error on the way out.
//
// Leaving fullscreen changes the surface's pixel dimensions, and the
// session cannot know the restored size: the host MUST follow up with
// HandleResize carrying the new dimensions, which re-centers and reheats
// the layout.
func (s *Session) ExitFullscreen(ctx context.Context) error {
	s.mu.Lock()
	err := s.vp.ExitFullscreen(ctx)
	s.mu.Unlock()
	if err != nil {
		s.emitError(err)
		return err
	}
	return nil
}

// HostExitedFullscreen handles a host-originated cancellation (escape
// gesture). Both triggers converge on the same reducer in the viewport.
// As with ExitFullscreen, the host MUST follow up with HandleResize so the
// layout adapts to the restored surface dimensions.
func (s *Session) HostExitedFullscreen() {
	s.mu.Lock()
	s.vp.HostExitedFullscreen()
	s.mu.Unlock()
}

// IsFullscreen reports the converged fullscreen state.
func (s *Session) IsFullscreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp.IsFullscreen()
}

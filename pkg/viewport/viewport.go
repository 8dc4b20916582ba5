// Package viewport owns the rendering surface's size, zoom/pan transform,
// and fullscreen state.
//
// The Manager is the single writer for the [Transform]; every zoom or pan
// updates it atomically from the caller's point of view (the session loop
// serializes access). Fullscreen is a single boolean driven by one reducer
// accepting either trigger - an explicit call or a host-originated exit -
// so the two can never disagree.
package viewport

import (
	"context"
	"math"

	"github.com/chainbreak/chainview/pkg/errors"
)

// Zoom scale bounds. Every zoom operation clamps into this range
// regardless of input magnitude or repetition.
const (
	MinScale = 0.1
	MaxScale = 10
)

// minResizeDelta suppresses sub-pixel resize churn: size changes smaller
// than this in both dimensions never trigger a re-initialization.
const minResizeDelta = 1.0

// Transform is the current zoom scale and pan offset applied to the surface.
// Screen coordinates are computed as screen = world*Scale + T.
type Transform struct {
	Scale float64 `json:"scale"`
	Tx    float64 `json:"tx"`
	Ty    float64 `json:"ty"`
}

// Identity returns the neutral transform.
func Identity() Transform {
	return Transform{Scale: 1}
}

// Apply maps a world coordinate to screen space.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.Tx, y*t.Scale + t.Ty
}

// Invert maps a screen coordinate back to world space.
func (t Transform) Invert(px, py float64) (float64, float64) {
	return (px - t.Tx) / t.Scale, (py - t.Ty) / t.Scale
}

// FullscreenHost is the environment-side half of the fullscreen contract.
// A host may deny either request; the manager then leaves its own state
// unchanged and surfaces a VIEWPORT error.
type FullscreenHost interface {
	EnterFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error
}

// Manager tracks the surface's pixel dimensions, the pan/zoom transform,
// and the fullscreen flag. Not safe for concurrent use; the session loop
// serializes all calls.
type Manager struct {
	width, height float64
	transform     Transform
	fullscreen    bool
	host          FullscreenHost
}

// New creates a manager with the identity transform and no size yet.
// host may be nil, in which case fullscreen requests fail with VIEWPORT.
func New(host FullscreenHost) *Manager {
	return &Manager{transform: Identity(), host: host}
}

// Size returns the current surface dimensions in pixels.
func (m *Manager) Size() (w, h float64) {
	return m.width, m.height
}

// Center returns the surface center in screen pixels.
func (m *Manager) Center() (x, y float64) {
	return m.width / 2, m.height / 2
}

// ContainerReady reports whether the surface has a usable non-zero size.
func (m *Manager) ContainerReady() bool {
	return m.width > 0 && m.height > 0
}

// Transform returns the current transform.
func (m *Manager) Transform() Transform {
	return m.transform
}

// IsFullscreen reports the converged fullscreen state.
func (m *Manager) IsFullscreen() bool {
	return m.fullscreen
}

// Resize records new surface dimensions and reports whether the change
// requires a re-initialization of size-dependent state (the simulation's
// center force, primitive bounds). Sub-pixel churn is suppressed so a
// storm of fractional resize events causes no redundant re-init.
func (m *Manager) Resize(w, h float64) (reinit bool) {
	if w < 0 || h < 0 {
		return false
	}
	if math.Abs(w-m.width) < minResizeDelta && math.Abs(h-m.height) < minResizeDelta {
		return false
	}
	wasReady := m.ContainerReady()
	m.width, m.height = w, h
	return m.ContainerReady() || wasReady
}

// ZoomBy multiplies the scale by factor, clamped to [MinScale, MaxScale],
// keeping the surface center fixed.
func (m *Manager) ZoomBy(factor float64) {
	cx, cy := m.Center()
	m.ZoomAt(factor, cx, cy)
}

// ZoomAt multiplies the scale by factor, clamped, keeping the given screen
// point anchored to the same world coordinate.
func (m *Manager) ZoomAt(factor float64, px, py float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	old := m.transform.Scale
	scale := math.Min(math.Max(old*factor, MinScale), MaxScale)
	if scale == old {
		return
	}
	// Anchor: the world point under (px, py) stays under (px, py).
	wx, wy := m.transform.Invert(px, py)
	m.transform.Scale = scale
	m.transform.Tx = px - wx*scale
	m.transform.Ty = py - wy*scale
}

// PanBy shifts the view by the given screen-space delta.
func (m *Manager) PanBy(dx, dy float64) {
	m.transform.Tx += dx
	m.transform.Ty += dy
}

// PanTo sets the pan offset directly.
func (m *Manager) PanTo(tx, ty float64) {
	m.transform.Tx, m.transform.Ty = tx, ty
}

// ResetTransform restores the identity transform.
func (m *Manager) ResetTransform() {
	m.transform = Identity()
}

// EnterFullscreen asks the host for exclusive full-viewport presentation.
// On denial the flag is left untouched and a VIEWPORT error is returned -
// never a half-applied state.
func (m *Manager) EnterFullscreen(ctx context.Context) error {
	if m.fullscreen {
		return nil
	}
	if m.host == nil {
		return errors.New(errors.ErrCodeViewport, "no fullscreen host available")
	}
	if err := m.host.EnterFullscreen(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeViewport, err, "fullscreen request denied")
	}
	m.reduceFullscreen(true)
	return nil
}

// ExitFullscreen leaves fullscreen via the host. The flag converges to
// false even if the host reports an error on the way out, since the host
// may already have dropped the presentation (e.g. an escape gesture raced
// the explicit call).
func (m *Manager) ExitFullscreen(ctx context.Context) error {
	if !m.fullscreen {
		return nil
	}
	var err error
	if m.host != nil {
		err = m.host.ExitFullscreen(ctx)
	}
	m.reduceFullscreen(false)
	if err != nil {
		return errors.Wrap(errors.ErrCodeViewport, err, "fullscreen exit reported an error")
	}
	return nil
}

// HostExitedFullscreen is the reducer entry point for a host-originated
// cancellation (escape gesture, window manager). It converges the flag to
// false; the caller re-lays-out the surface since its pixel size changed.
func (m *Manager) HostExitedFullscreen() {
	m.reduceFullscreen(false)
}

// reduceFullscreen is the single write point for the fullscreen flag.
// Both triggers (explicit calls and host cancellation) converge here.
func (m *Manager) reduceFullscreen(on bool) {
	m.fullscreen = on
}

// Package render composes visual primitives from the graph model, the
// viewport transform, the community overlay, and the illicit-flag set.
//
// Compose is a pure function: it reads its inputs and produces a [Frame]
// without mutating anything, so the session loop can call it once per
// simulation tick and once per transform change with identical inputs
// yielding identical frames.
//
// Coloring precedence, first match wins:
//
//  1. Node flagged by threat intel: fixed flagged fill/stroke.
//  2. Community partition active: deterministic palette color by index.
//  3. Kind-derived color and attribute-derived size, clamped.
package render

import (
	"maps"

	"github.com/chainbreak/chainview/pkg/community"
	"github.com/chainbreak/chainview/pkg/graph"
	"github.com/chainbreak/chainview/pkg/intel"
	"github.com/chainbreak/chainview/pkg/viewport"
)

// Edge stroke width bounds in screen units (before zoom scaling).
const (
	minEdgeWidth = 0.75
	maxEdgeWidth = 5.0
)

// NodePrimitive is one node ready to draw, in screen coordinates. It doubles
// as the selection snapshot, so it carries the node's uninterpreted input
// attributes alongside the visual fields.
type NodePrimitive struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Kind      string  `json:"kind"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	Fill      string  `json:"fill"`
	Stroke    string  `json:"stroke"`
	Flagged   bool    `json:"flagged,omitempty"`
	Community int     `json:"community"` // -1 when not covered by the overlay
	Tooltip   string  `json:"tooltip"`

	// Attrs is a copy of the model node's opaque attributes; mutating it
	// never reaches the model.
	Attrs map[string]any `json:"attrs,omitempty"`
}

// EdgePrimitive is one edge ready to draw, in screen coordinates.
type EdgePrimitive struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Width  float64 `json:"width"`
	Color  string  `json:"color"`
}

// Frame is the complete set of primitives for one render pass.
type Frame struct {
	Width      float64            `json:"width"`
	Height     float64            `json:"height"`
	Background string             `json:"background"`
	Transform  viewport.Transform `json:"transform"`
	Nodes      []NodePrimitive    `json:"nodes"`
	Edges      []EdgePrimitive    `json:"edges"`
}

// Inputs bundles everything a render pass reads. Overlay and Flags may be
// nil/empty; Model must not be nil.
type Inputs struct {
	Model     *graph.Model
	Transform viewport.Transform
	Width     float64
	Height    float64
	Overlay   *community.Partition
	Flags     intel.Set
}

// Compose maps the current state to visual primitives. It never mutates
// the model, the overlay, or the flag set.
func Compose(in Inputs) Frame {
	f := Frame{
		Width:      in.Width,
		Height:     in.Height,
		Background: background,
		Transform:  in.Transform,
		Nodes:      make([]NodePrimitive, 0, in.Model.NodeCount()),
		Edges:      make([]EdgePrimitive, 0, in.Model.EdgeCount()),
	}

	for _, e := range in.Model.Edges() {
		src, dst := in.Model.Node(e.Source), in.Model.Node(e.Target)
		x1, y1 := in.Transform.Apply(src.X, src.Y)
		x2, y2 := in.Transform.Apply(dst.X, dst.Y)
		f.Edges = append(f.Edges, EdgePrimitive{
			Source: e.Source,
			Target: e.Target,
			X1:     x1,
			Y1:     y1,
			X2:     x2,
			Y2:     y2,
			Width:  edgeWidth(e.Weight) * in.Transform.Scale,
			Color:  edgeColor(e.Direction),
		})
	}

	for _, n := range in.Model.Nodes() {
		x, y := in.Transform.Apply(n.X, n.Y)
		p := NodePrimitive{
			ID:        n.ID,
			Label:     n.DisplayLabel(),
			Kind:      n.Kind,
			X:         x,
			Y:         y,
			Radius:    n.Radius * in.Transform.Scale,
			Community: -1,
			Attrs:     maps.Clone(n.Attrs),
		}

		flag, flagged := in.Flags.Lookup(n.ID)
		idx, inOverlay := in.Overlay.Lookup(n.ID)
		switch {
		case flagged:
			p.Flagged = true
			p.Fill = flaggedFill
			p.Stroke = flaggedStroke
		case inOverlay:
			p.Community = idx
			p.Fill = CommunityColor(idx, in.Overlay.Count)
			p.Stroke = defaultStroke
		default:
			p.Fill = kindFill(n.Kind)
			p.Stroke = defaultStroke
		}

		p.Tooltip = Tooltip(n, flag, flagged)
		f.Nodes = append(f.Nodes, p)
	}

	return f
}

// edgeWidth maps weight to a clamped, monotonically increasing stroke width.
func edgeWidth(weight float64) float64 {
	w := minEdgeWidth + weight/4
	if w > maxEdgeWidth {
		return maxEdgeWidth
	}
	return w
}

// Package export serializes composed frames to downloadable artifacts.
//
// The PNG path rasterizes exactly what the render pipeline composed -
// current viewport size, background, transform - and never touches graph or
// layout state. The DOT path emits a Graphviz-compatible text description
// of the topology for interchange with external analysis tools.
package export

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/chainbreak/chainview/pkg/errors"
	"github.com/chainbreak/chainview/pkg/graph"
	"github.com/chainbreak/chainview/pkg/render"
)

// minLabelRadius is the screen radius below which node labels are omitted
// from the raster; smaller circles cannot carry legible text.
const minLabelRadius = 6.0

// PNG rasterizes a frame to a PNG byte slice. It fails with an EXPORT
// error when the frame has no usable dimensions (the surface was never
// sized).
func PNG(frame render.Frame) ([]byte, error) {
	w, h := int(frame.Width), int(frame.Height)
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeExport, "rendering surface not initialized (%dx%d)", w, h)
	}

	dc := gg.NewContext(w, h)
	dc.SetHexColor(frame.Background)
	dc.Clear()

	for _, e := range frame.Edges {
		dc.SetHexColor(e.Color)
		dc.SetLineWidth(e.Width)
		dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		dc.Stroke()
	}

	dc.SetFontFace(basicfont.Face7x13)
	for _, n := range frame.Nodes {
		dc.SetHexColor(n.Fill)
		dc.DrawCircle(n.X, n.Y, n.Radius)
		dc.FillPreserve()
		dc.SetHexColor(n.Stroke)
		dc.SetLineWidth(1.5)
		dc.Stroke()

		if n.Radius >= minLabelRadius {
			dc.SetHexColor("#2b2d42")
			dc.DrawStringAnchored(n.Label, n.X, n.Y+n.Radius+8, 0.5, 0.5)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExport, err, "encode png")
	}
	return buf.Bytes(), nil
}

// Filename produces the deterministic artifact name for an export taken at
// time t, e.g. "chainview_20260824_153012.png".
func Filename(prefix string, t time.Time, ext string) string {
	if prefix == "" {
		prefix = "chainview"
	}
	return fmt.Sprintf("%s_%s.%s", prefix, t.Format("20060102_150405"), ext)
}

// DOT emits the model's topology as a Graphviz digraph for interchange.
// Node order is the model's deterministic iteration order, so identical
// models produce identical output.
func DOT(model *graph.Model) string {
	var b strings.Builder
	b.WriteString("digraph chainview {\n")
	for _, n := range model.Nodes() {
		fmt.Fprintf(&b, "  %q [label=%q, kind=%q];\n", n.ID, n.DisplayLabel(), n.Kind)
	}
	for _, e := range model.Edges() {
		fmt.Fprintf(&b, "  %q -> %q [weight=%g];\n", e.Source, e.Target, e.Weight)
	}
	b.WriteString("}\n")
	return b.String()
}

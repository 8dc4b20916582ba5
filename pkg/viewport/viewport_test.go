package viewport

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	cberrors "github.com/chainbreak/chainview/pkg/errors"
)

func TestTransformRoundTrip(t *testing.T) {
	tr := Transform{Scale: 2.5, Tx: 40, Ty: -12}
	px, py := tr.Apply(10, -3)
	wx, wy := tr.Invert(px, py)
	if math.Abs(wx-10) > 1e-9 || math.Abs(wy+3) > 1e-9 {
		t.Errorf("Invert(Apply(10,-3)) = (%v,%v)", wx, wy)
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		name       string
		from       [2]float64
		to         [2]float64
		wantReinit bool
	}{
		{"zero to sized", [2]float64{0, 0}, [2]float64{800, 600}, true},
		{"real growth", [2]float64{800, 600}, [2]float64{1024, 768}, true},
		{"sub-pixel churn", [2]float64{800, 600}, [2]float64{800.4, 600.6}, false},
		{"negative ignored", [2]float64{800, 600}, [2]float64{-1, 600}, false},
		{"collapse to zero", [2]float64{800, 600}, [2]float64{0, 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(nil)
			m.Resize(tt.from[0], tt.from[1])
			if got := m.Resize(tt.to[0], tt.to[1]); got != tt.wantReinit {
				t.Errorf("Resize(%v, %v) reinit = %v, want %v", tt.to[0], tt.to[1], got, tt.wantReinit)
			}
		})
	}
}

func TestResizeFromUnsizedReinitsExactlyOnce(t *testing.T) {
	m := New(nil)
	if m.ContainerReady() {
		t.Fatal("fresh manager should not be ready")
	}
	if !m.Resize(800, 600) {
		t.Error("first real resize must request re-initialization")
	}
	if m.Resize(800, 600) {
		t.Error("identical resize must not request re-initialization again")
	}
	if !m.ContainerReady() {
		t.Error("manager should be ready after sizing")
	}
}

func TestZoomClamping(t *testing.T) {
	m := New(nil)
	m.Resize(800, 600)

	for i := 0; i < 100; i++ {
		m.ZoomBy(2)
	}
	if got := m.Transform().Scale; got != MaxScale {
		t.Errorf("Scale after repeated zoom-in = %v, want %v", got, MaxScale)
	}

	for i := 0; i < 100; i++ {
		m.ZoomBy(0.5)
	}
	if got := m.Transform().Scale; got != MinScale {
		t.Errorf("Scale after repeated zoom-out = %v, want %v", got, MinScale)
	}
}

func TestZoomAtAnchorsPointer(t *testing.T) {
	m := New(nil)
	m.Resize(800, 600)
	m.PanBy(25, -10)

	const px, py = 200.0, 150.0
	wx, wy := m.Transform().Invert(px, py)
	m.ZoomAt(1.7, px, py)
	wx2, wy2 := m.Transform().Invert(px, py)

	if math.Abs(wx-wx2) > 1e-9 || math.Abs(wy-wy2) > 1e-9 {
		t.Errorf("anchored world point moved: (%v,%v) -> (%v,%v)", wx, wy, wx2, wy2)
	}
}

func TestZoomIgnoresDegenerateFactors(t *testing.T) {
	m := New(nil)
	m.Resize(800, 600)
	before := m.Transform()

	for _, f := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		m.ZoomBy(f)
	}
	if m.Transform() != before {
		t.Errorf("degenerate factors changed transform: %+v", m.Transform())
	}
}

func TestResetTransform(t *testing.T) {
	m := New(nil)
	m.Resize(800, 600)
	m.ZoomBy(3)
	m.PanBy(100, 50)
	m.ResetTransform()
	if m.Transform() != Identity() {
		t.Errorf("Transform = %+v, want identity", m.Transform())
	}
}

// =============================================================================
// Fullscreen
// =============================================================================

type fakeHost struct {
	denyEnter bool
	denyExit  bool
	entered   int
	exited    int
}

func (h *fakeHost) EnterFullscreen(context.Context) error {
	if h.denyEnter {
		return errors.New("denied by host")
	}
	h.entered++
	return nil
}

func (h *fakeHost) ExitFullscreen(context.Context) error {
	h.exited++
	if h.denyExit {
		return errors.New("exit failed")
	}
	return nil
}

func TestFullscreenLifecycle(t *testing.T) {
	host := &fakeHost{}
	m := New(host)

	if err := m.EnterFullscreen(context.Background()); err != nil {
		t.Fatalf("EnterFullscreen() error = %v", err)
	}
	if !m.IsFullscreen() {
		t.Error("IsFullscreen() = false after successful enter")
	}

	// Idempotent while already fullscreen.
	if err := m.EnterFullscreen(context.Background()); err != nil {
		t.Fatalf("second EnterFullscreen() error = %v", err)
	}
	if host.entered != 1 {
		t.Errorf("host.entered = %d, want 1", host.entered)
	}

	if err := m.ExitFullscreen(context.Background()); err != nil {
		t.Fatalf("ExitFullscreen() error = %v", err)
	}
	if m.IsFullscreen() {
		t.Error("IsFullscreen() = true after exit")
	}
}

func TestFullscreenDenialLeavesStateUnchanged(t *testing.T) {
	m := New(&fakeHost{denyEnter: true})
	err := m.EnterFullscreen(context.Background())
	if err == nil {
		t.Fatal("EnterFullscreen() succeeded, want denial error")
	}
	if !cberrors.Is(err, cberrors.ErrCodeViewport) {
		t.Errorf("code = %v, want VIEWPORT", cberrors.GetCode(err))
	}
	if m.IsFullscreen() {
		t.Error("denied request must not flip the fullscreen flag")
	}
}

func TestFullscreenNoHost(t *testing.T) {
	m := New(nil)
	if err := m.EnterFullscreen(context.Background()); err == nil {
		t.Error("EnterFullscreen() with nil host should fail")
	}
}

func TestFullscreenExitConvergesDespiteHostError(t *testing.T) {
	host := &fakeHost{denyExit: true}
	m := New(host)
	if err := m.EnterFullscreen(context.Background()); err != nil {
		t.Fatalf("EnterFullscreen() error = %v", err)
	}

	err := m.ExitFullscreen(context.Background())
	if err == nil {
		t.Error("ExitFullscreen() should report the host error")
	}
	if m.IsFullscreen() {
		t.Error("flag must converge to false even when the host errors")
	}
}

func TestHostExitedFullscreen(t *testing.T) {
	host := &fakeHost{}
	m := New(host)
	if err := m.EnterFullscreen(context.Background()); err != nil {
		t.Fatalf("EnterFullscreen() error = %v", err)
	}
	m.HostExitedFullscreen()
	if m.IsFullscreen() {
		t.Error("host-originated exit must clear the flag")
	}
}

// =============================================================================
// Properties
// =============================================================================

func TestZoomScaleAlwaysInBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("scale stays within [MinScale, MaxScale]", prop.ForAll(
		func(factors []float64) bool {
			m := New(nil)
			m.Resize(800, 600)
			for _, f := range factors {
				m.ZoomAt(f, 123, 456)
			}
			s := m.Transform().Scale
			return s >= MinScale && s <= MaxScale
		},
		gen.SliceOf(gen.Float64Range(-2, 100)),
	))

	properties.TestingRun(t)
}

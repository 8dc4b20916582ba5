package layout

import (
	"math"
	"testing"

	"github.com/chainbreak/chainview/pkg/graph"
)

func buildModel(t *testing.T, raw graph.RawGraph) *graph.Model {
	t.Helper()
	m, _, err := graph.Build(raw)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return m
}

func pairModel(t *testing.T) *graph.Model {
	return buildModel(t, graph.RawGraph{
		Nodes: []graph.RawNode{{ID: "a"}, {ID: "b"}},
		Edges: []graph.RawEdge{{Source: "a", Target: "b", Weight: 1, HasWeight: true}},
	})
}

func TestTickMovesNodes(t *testing.T) {
	m := pairModel(t)
	e := New(m, DefaultConfig(), 400, 300)

	a := m.Node("a")
	x0, y0 := a.X, a.Y
	if !e.Tick() {
		t.Fatal("Tick() = false on a fresh engine")
	}
	if a.X == x0 && a.Y == y0 {
		t.Error("node did not move after a tick")
	}
}

func TestCoolingSettles(t *testing.T) {
	m := pairModel(t)
	e := New(m, DefaultConfig(), 400, 300)

	ticks := 0
	for e.Tick() {
		ticks++
		if ticks > 10000 {
			t.Fatal("engine never settled")
		}
	}
	if !e.Settled() {
		t.Error("Settled() = false after Tick() returned false")
	}
	// The default cooling schedule reaches AlphaMin in roughly 300 ticks.
	if ticks < 250 || ticks > 350 {
		t.Errorf("settled after %d ticks, want roughly 300", ticks)
	}

	// A settled engine must not move anything.
	a := m.Node("a")
	x, y := a.X, a.Y
	if e.Tick() {
		t.Error("Tick() = true on a settled engine")
	}
	if a.X != x || a.Y != y {
		t.Error("settled engine moved a node")
	}
}

func TestLinkedNodesApproachLinkDistance(t *testing.T) {
	m := pairModel(t)
	cfg := DefaultConfig()
	e := New(m, cfg, 0, 0)
	for e.Tick() {
	}

	a, b := m.Node("a"), m.Node("b")
	dist := math.Hypot(a.X-b.X, a.Y-b.Y)
	// Charge pushes slightly past the spring's rest length; the result
	// should land in the right neighborhood, not collapse or fly apart.
	if dist < cfg.LinkDistance/2 || dist > cfg.LinkDistance*4 {
		t.Errorf("settled distance = %v, want near %v", dist, cfg.LinkDistance)
	}
}

func TestPinExcludesNodeFromIntegration(t *testing.T) {
	m := pairModel(t)
	e := New(m, DefaultConfig(), 400, 300)

	e.Pin("a", 100, 100)
	a := m.Node("a")
	for i := 0; i < 50; i++ {
		e.Tick()
	}
	if a.X != 100 || a.Y != 100 {
		t.Errorf("pinned node moved to (%v, %v)", a.X, a.Y)
	}
	if !e.Pinned("a") {
		t.Error("Pinned(a) = false")
	}
}

func TestPinnedNodeStillExertsForces(t *testing.T) {
	m := pairModel(t)
	cfg := DefaultConfig()
	cfg.CenterStrength = 0 // isolate the spring between the pair
	e := New(m, cfg, 0, 0)

	e.Pin("a", 500, 500)
	for e.Tick() {
	}

	b := m.Node("b")
	dist := math.Hypot(b.X-500, b.Y-500)
	if dist > cfg.LinkDistance*4 {
		t.Errorf("free neighbor did not follow the pinned node: distance %v", dist)
	}
}

func TestUnpinResumesSimulation(t *testing.T) {
	m := pairModel(t)
	e := New(m, DefaultConfig(), 400, 300)

	e.Pin("a", 0, 0)
	e.Unpin("a")
	e.Restart(1)

	a := m.Node("a")
	x, y := a.X, a.Y
	for i := 0; i < 20; i++ {
		e.Tick()
	}
	if a.X == x && a.Y == y {
		t.Error("unpinned node never moved again")
	}
}

func TestRestartClamps(t *testing.T) {
	m := pairModel(t)
	e := New(m, DefaultConfig(), 0, 0)

	e.Restart(5)
	if e.Alpha() != 1 {
		t.Errorf("Alpha() = %v after Restart(5), want 1", e.Alpha())
	}
	e.Restart(-1)
	if e.Alpha() != 0 {
		t.Errorf("Alpha() = %v after Restart(-1), want 0", e.Alpha())
	}
}

func TestCenterForcePullsTowardCenter(t *testing.T) {
	m := buildModel(t, graph.RawGraph{
		Nodes: []graph.RawNode{{ID: "a"}, {ID: "b"}, {ID: "c"}},
	})
	e := New(m, DefaultConfig(), 400, 300)
	for e.Tick() {
	}

	var cx, cy float64
	for _, n := range m.Nodes() {
		cx += n.X
		cy += n.Y
	}
	cx /= 3
	cy /= 3
	if math.Hypot(cx-400, cy-300) > 50 {
		t.Errorf("centroid (%v, %v) far from center (400, 300)", cx, cy)
	}
}

func TestEmptyModel(t *testing.T) {
	m := buildModel(t, graph.RawGraph{})
	e := New(m, DefaultConfig(), 400, 300)
	if e.Tick() {
		t.Error("Tick() = true for an empty model")
	}
}

func TestPinUnknownNodeIsNoop(t *testing.T) {
	m := pairModel(t)
	e := New(m, DefaultConfig(), 0, 0)
	e.Pin("ghost", 1, 2)
	e.Unpin("ghost")
	if e.Pinned("ghost") {
		t.Error("unknown node reported pinned")
	}
}

package graph

import (
	"testing"

	"github.com/chainbreak/chainview/pkg/errors"
)

func floatPtr(v float64) *float64 { return &v }

func TestBuildMinimalGraph(t *testing.T) {
	raw := RawGraph{
		Nodes: []RawNode{
			{ID: "a", Kind: "address"},
			{ID: "b", Kind: "transaction"},
		},
		Edges: []RawEdge{
			{Source: "a", Target: "b", Weight: 2.5, HasWeight: true},
		},
	}

	m, stats, err := Build(raw)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if stats.NodesKept != 2 || stats.EdgesKept != 1 {
		t.Errorf("stats = %+v, want 2 nodes / 1 edge kept", stats)
	}
	if m.Node("a").Kind != KindAddress {
		t.Errorf("Kind = %v, want %v", m.Node("a").Kind, KindAddress)
	}
	if got := m.Edges()[0].Weight; got != 2.5 {
		t.Errorf("Weight = %v, want 2.5", got)
	}
}

func TestBuildDropsMalformedRecords(t *testing.T) {
	tests := []struct {
		name      string
		raw       RawGraph
		wantNodes int
		wantEdges int
		check     func(t *testing.T, stats BuildStats)
	}{
		{
			name: "node without identifier",
			raw: RawGraph{
				Nodes: []RawNode{{ID: ""}, {ID: "a"}},
			},
			wantNodes: 1,
			check: func(t *testing.T, stats BuildStats) {
				if stats.NodesDropped != 1 {
					t.Errorf("NodesDropped = %d, want 1", stats.NodesDropped)
				}
			},
		},
		{
			name: "duplicate node keeps first",
			raw: RawGraph{
				Nodes: []RawNode{
					{ID: "a", Label: "first"},
					{ID: "a", Label: "second"},
				},
			},
			wantNodes: 1,
			check: func(t *testing.T, stats BuildStats) {
				if stats.NodesDropped != 1 {
					t.Errorf("NodesDropped = %d, want 1", stats.NodesDropped)
				}
			},
		},
		{
			name: "self-loop dropped",
			raw: RawGraph{
				Nodes: []RawNode{{ID: "a"}},
				Edges: []RawEdge{{Source: "a", Target: "a"}},
			},
			wantNodes: 1,
			wantEdges: 0,
			check: func(t *testing.T, stats BuildStats) {
				if stats.SelfLoops != 1 {
					t.Errorf("SelfLoops = %d, want 1", stats.SelfLoops)
				}
			},
		},
		{
			name: "dangling endpoint dropped",
			raw: RawGraph{
				Nodes: []RawNode{{ID: "a"}},
				Edges: []RawEdge{{Source: "a", Target: "ghost"}},
			},
			wantNodes: 1,
			wantEdges: 0,
			check: func(t *testing.T, stats BuildStats) {
				if stats.DanglingEdges != 1 {
					t.Errorf("DanglingEdges = %d, want 1", stats.DanglingEdges)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, stats, err := Build(tt.raw)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if m.NodeCount() != tt.wantNodes {
				t.Errorf("NodeCount() = %d, want %d", m.NodeCount(), tt.wantNodes)
			}
			if m.EdgeCount() != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", m.EdgeCount(), tt.wantEdges)
			}
			if tt.check != nil {
				tt.check(t, stats)
			}
		})
	}
}

func TestBuildKeepsDuplicateLabelFromFirst(t *testing.T) {
	raw := RawGraph{
		Nodes: []RawNode{
			{ID: "a", Label: "first"},
			{ID: "a", Label: "second"},
		},
	}
	m, _, err := Build(raw)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := m.Node("a").Label; got != "first" {
		t.Errorf("Label = %q, want %q", got, "first")
	}
}

func TestBuildDefaultEdgeWeight(t *testing.T) {
	raw := RawGraph{
		Nodes: []RawNode{{ID: "a"}, {ID: "b"}},
		Edges: []RawEdge{{Source: "a", Target: "b"}},
	}
	m, _, err := Build(raw)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := m.Edges()[0].Weight; got != 1 {
		t.Errorf("default Weight = %v, want 1", got)
	}
}

func TestBuildNegativeWeightClamped(t *testing.T) {
	raw := RawGraph{
		Nodes: []RawNode{{ID: "a"}, {ID: "b"}},
		Edges: []RawEdge{{Source: "a", Target: "b", Weight: -3, HasWeight: true}},
	}
	m, _, err := Build(raw)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := m.Edges()[0].Weight; got != 0 {
		t.Errorf("Weight = %v, want 0", got)
	}
}

func TestSeedPositionDeterministic(t *testing.T) {
	a := RawNode{ID: "addr_1"}
	x1, y1 := seedPosition(a)
	x2, y2 := seedPosition(a)
	if x1 != x2 || y1 != y2 {
		t.Errorf("seedPosition not deterministic: (%v,%v) vs (%v,%v)", x1, y1, x2, y2)
	}

	b := RawNode{ID: "addr_2"}
	bx, by := seedPosition(b)
	if bx == x1 && by == y1 {
		t.Error("distinct IDs produced identical seed positions")
	}
}

func TestSeedPositionHonorsSuppliedCoordinates(t *testing.T) {
	rn := RawNode{ID: "a", X: floatPtr(12), Y: floatPtr(-7)}
	x, y := seedPosition(rn)
	if x != 12 || y != -7 {
		t.Errorf("seedPosition = (%v,%v), want (12,-7)", x, y)
	}
}

func TestNodeRadius(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		min  float64
		max  float64
	}{
		{
			name: "default radius without attributes",
			node: &Node{ID: "a", Kind: KindAddress},
			min:  DefaultRadius,
			max:  DefaultRadius,
		},
		{
			name: "balance grows address radius",
			node: &Node{ID: "a", Kind: KindAddress, Attrs: map[string]any{"balance": 1000.0}},
			min:  DefaultRadius + 1,
			max:  MaxRadius,
		},
		{
			name: "huge value clamps at maximum",
			node: &Node{ID: "t", Kind: KindTransaction, Attrs: map[string]any{"value": 1e30}},
			min:  MaxRadius,
			max:  MaxRadius,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := nodeRadius(tt.node)
			if r < tt.min || r > tt.max {
				t.Errorf("nodeRadius() = %v, want in [%v, %v]", r, tt.min, tt.max)
			}
		})
	}
}

func TestBuildJSON(t *testing.T) {
	payload := []byte(`{
		"nodes": [
			{"id": "addr1", "type": "address", "balance": 12.5},
			{"id": "tx1", "type": "tx", "value": 3.2},
			{"id": "addr1", "type": "address"}
		],
		"edges": [
			{"from": "addr1", "to": "tx1", "value": 3.2, "direction": "outgoing"},
			{"source": "tx1", "target": "tx1"}
		]
	}`)

	m, stats, err := BuildJSON(payload)
	if err != nil {
		t.Fatalf("BuildJSON() error = %v", err)
	}
	if stats.NodesKept != 2 || stats.EdgesKept != 1 || stats.SelfLoops != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if m.Node("tx1").Kind != KindTransaction {
		t.Errorf("tx shorthand not normalized: %v", m.Node("tx1").Kind)
	}
	e := m.Edges()[0]
	if e.Source != "addr1" || e.Target != "tx1" || e.Direction != DirectionOutgoing {
		t.Errorf("edge aliases not extracted: %+v", e)
	}
	if _, ok := m.Node("addr1").Float("balance"); !ok {
		t.Error("unknown node fields should be preserved in Attrs")
	}
}

func TestBuildJSONRejectsNonContainer(t *testing.T) {
	for _, payload := range []string{`[]`, `"nope"`, `{invalid`} {
		_, _, err := BuildJSON([]byte(payload))
		if err == nil {
			t.Errorf("BuildJSON(%q) succeeded, want error", payload)
			continue
		}
		if !errors.Is(err, errors.ErrCodeGraphBuild) {
			t.Errorf("BuildJSON(%q) code = %v, want GRAPH_BUILD", payload, errors.GetCode(err))
		}
	}
}

func TestNormalizeKind(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"address", KindAddress},
		{"transaction", KindTransaction},
		{"tx", KindTransaction},
		{"wallet", KindGeneric},
		{"", KindGeneric},
	}
	for _, tt := range tests {
		if got := normalizeKind(tt.in); got != tt.want {
			t.Errorf("normalizeKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

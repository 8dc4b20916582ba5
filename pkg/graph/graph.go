package graph

import (
	"slices"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Node kinds. Input "type" strings are mapped onto these; anything
// unrecognized becomes KindGeneric.
const (
	KindAddress     = "address"
	KindTransaction = "transaction"
	KindGeneric     = "generic"
)

// Edge directions relative to the focus of the loaded graph.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
	DirectionNone     = "none"
)

// Radius bounds in layout units. Clamped so no node vanishes or dominates
// the canvas regardless of balance/value magnitudes.
const (
	MinRadius     = 4.0
	MaxRadius     = 28.0
	DefaultRadius = 8.0
)

// =============================================================================
// Node - Validated Visual Node
// =============================================================================

// Node is a validated node of the transaction network. ID is immutable once
// created. X and Y are seeded by the builder and owned by the layout engine
// afterwards (or by the interaction controller while drag-pinned).
type Node struct {
	ID     string  `json:"id"`
	Label  string  `json:"label,omitempty"`
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`

	// Attrs carries input fields the builder does not interpret
	// (balances, values, timestamps, ...) for tooltips and sizing.
	Attrs map[string]any `json:"attrs,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Float returns a numeric attribute as float64, with ok reporting whether
// the attribute exists and is numeric. JSON numbers decode as float64, but
// callers may also have set int values programmatically.
func (n *Node) Float(key string) (float64, bool) {
	switch v := n.Attrs[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// =============================================================================
// Edge - Validated Fund Flow
// =============================================================================

// Edge is a validated directed fund flow between two existing nodes.
// Source and Target are always distinct and resolvable in the owning Model.
type Edge struct {
	Source    string         `json:"source"`
	Target    string         `json:"target"`
	Weight    float64        `json:"weight"` // Never negative
	Direction string         `json:"direction"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// =============================================================================
// Model - Validated Graph
// =============================================================================

// Model is the validated internal graph. It is created once per load and
// replaced wholesale on the next load, never patched incrementally.
// Model is not safe for concurrent use; the session loop serializes access.
type Model struct {
	nodes map[string]*Node
	order []string // node IDs in insertion order, for deterministic iteration
	edges []Edge
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{nodes: make(map[string]*Node)}
}

// Node returns the node with the given ID, or nil.
func (m *Model) Node(id string) *Node {
	return m.nodes[id]
}

// Nodes returns all nodes in insertion order. The returned slice is fresh,
// but the pointed-to nodes are shared live state.
func (m *Model) Nodes() []*Node {
	out := make([]*Node, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.nodes[id])
	}
	return out
}

// NodeIDs returns all node IDs in insertion order.
func (m *Model) NodeIDs() []string {
	return slices.Clone(m.order)
}

// Edges returns all validated edges.
func (m *Model) Edges() []Edge {
	return slices.Clone(m.edges)
}

// NodeCount returns the number of validated nodes.
func (m *Model) NodeCount() int { return len(m.nodes) }

// EdgeCount returns the number of validated edges.
func (m *Model) EdgeCount() int { return len(m.edges) }

// addNode inserts a node, ignoring duplicates. The first occurrence of an
// ID wins, matching how the original treated repeated address records.
func (m *Model) addNode(n *Node) bool {
	if _, exists := m.nodes[n.ID]; exists {
		return false
	}
	m.nodes[n.ID] = n
	m.order = append(m.order, n.ID)
	return true
}

// addEdge inserts an edge after endpoint validation.
// Returns false for self-loops and dangling endpoints.
func (m *Model) addEdge(e Edge) bool {
	if e.Source == e.Target {
		return false
	}
	if _, ok := m.nodes[e.Source]; !ok {
		return false
	}
	if _, ok := m.nodes[e.Target]; !ok {
		return false
	}
	m.edges = append(m.edges, e)
	return true
}

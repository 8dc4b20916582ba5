package graph

import (
	"encoding/json"
	"hash/fnv"
	"math"

	"github.com/chainbreak/chainview/pkg/errors"
)

// =============================================================================
// Raw Wire Types
// =============================================================================

// RawGraph is the externally supplied, untrusted graph payload.
// Individual records may be malformed; the builder drops those and proceeds.
type RawGraph struct {
	Nodes []RawNode `json:"nodes"`
	Edges []RawEdge `json:"edges"`
}

// RawNode is one untrusted node record. Known keys are extracted; everything
// else is preserved in Attrs so downstream consumers (tooltips, sizing) can
// surface it without the builder interpreting it.
type RawNode struct {
	ID    string
	Label string
	Kind  string
	X     *float64
	Y     *float64
	Attrs map[string]any
}

// RawEdge is one untrusted edge record. The original backend emitted fund
// flows with a "value" field; "weight" is accepted as an alias.
type RawEdge struct {
	Source    string
	Target    string
	Weight    float64
	HasWeight bool
	Direction string
	Attrs     map[string]any
}

// UnmarshalJSON extracts the known node keys and keeps the rest opaque.
func (n *RawNode) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	n.Attrs = make(map[string]any)
	for k, v := range m {
		switch k {
		case "id":
			if s, ok := v.(string); ok {
				n.ID = s
			}
		case "label":
			if s, ok := v.(string); ok {
				n.Label = s
			}
		case "kind", "type":
			if s, ok := v.(string); ok {
				n.Kind = s
			}
		case "x":
			if f, ok := v.(float64); ok {
				x := f
				n.X = &x
			}
		case "y":
			if f, ok := v.(float64); ok {
				y := f
				n.Y = &y
			}
		default:
			n.Attrs[k] = v
		}
	}
	return nil
}

// UnmarshalJSON extracts the known edge keys and keeps the rest opaque.
func (e *RawEdge) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	e.Attrs = make(map[string]any)
	for k, v := range m {
		switch k {
		case "source", "from":
			if s, ok := v.(string); ok {
				e.Source = s
			}
		case "target", "to":
			if s, ok := v.(string); ok {
				e.Target = s
			}
		case "weight", "value":
			if f, ok := v.(float64); ok {
				e.Weight = f
				e.HasWeight = true
			}
		case "direction":
			if s, ok := v.(string); ok {
				e.Direction = s
			}
		default:
			e.Attrs[k] = v
		}
	}
	return nil
}

// =============================================================================
// Build Statistics
// =============================================================================

// BuildStats reports what the builder dropped while validating a payload.
type BuildStats struct {
	NodesKept     int
	NodesDropped  int // missing/duplicate string identifier
	EdgesKept     int
	SelfLoops     int // source == target
	DanglingEdges int // endpoint not present in the model
}

// =============================================================================
// Builder
// =============================================================================

// BuildJSON decodes and validates a raw JSON payload into a Model.
// It fails with a GRAPH_BUILD error only when the payload is not a
// nodes/edges container at all; malformed individual records are dropped.
func BuildJSON(data []byte) (*Model, BuildStats, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, BuildStats{}, errors.Wrap(errors.ErrCodeGraphBuild, err, "payload is not a nodes/edges container")
	}
	var raw RawGraph
	if nodes, ok := probe["nodes"]; ok {
		if err := json.Unmarshal(nodes, &raw.Nodes); err != nil {
			return nil, BuildStats{}, errors.Wrap(errors.ErrCodeGraphBuild, err, "nodes is not an array")
		}
	}
	if edges, ok := probe["edges"]; ok {
		if err := json.Unmarshal(edges, &raw.Edges); err != nil {
			return nil, BuildStats{}, errors.Wrap(errors.ErrCodeGraphBuild, err, "edges is not an array")
		}
	}
	return Build(raw)
}

// Build validates a RawGraph into a Model.
//
// Nodes lacking a string identifier are dropped, as are duplicates (first
// occurrence wins). Edges are dropped when they form a self-loop or when
// either endpoint does not resolve to a kept node. Positions are seeded from
// supplied coordinates when present, otherwise pseudo-randomly from a hash
// of the node ID so repeated loads of the same payload start identically.
func Build(raw RawGraph) (*Model, BuildStats, error) {
	m := NewModel()
	var stats BuildStats

	for _, rn := range raw.Nodes {
		if rn.ID == "" {
			stats.NodesDropped++
			continue
		}
		n := &Node{
			ID:    rn.ID,
			Label: rn.Label,
			Kind:  normalizeKind(rn.Kind),
			Attrs: rn.Attrs,
		}
		n.X, n.Y = seedPosition(rn)
		n.Radius = nodeRadius(n)
		if !m.addNode(n) {
			stats.NodesDropped++
			continue
		}
		stats.NodesKept++
	}

	for _, re := range raw.Edges {
		e := Edge{
			Source:    re.Source,
			Target:    re.Target,
			Weight:    math.Max(re.Weight, 0),
			Direction: normalizeDirection(re.Direction),
			Attrs:     re.Attrs,
		}
		if !re.HasWeight {
			e.Weight = 1
		}
		if e.Source == "" || e.Target == "" {
			stats.DanglingEdges++
			continue
		}
		if e.Source == e.Target {
			stats.SelfLoops++
			continue
		}
		if !m.addEdge(e) {
			stats.DanglingEdges++
			continue
		}
		stats.EdgesKept++
	}

	return m, stats, nil
}

// normalizeKind maps input type strings onto the three node kinds.
// The original backend labelled nodes "address" and "transaction" (with
// occasional "tx" shorthand); anything else is generic.
func normalizeKind(kind string) string {
	switch kind {
	case KindAddress:
		return KindAddress
	case KindTransaction, "tx":
		return KindTransaction
	default:
		return KindGeneric
	}
}

func normalizeDirection(dir string) string {
	switch dir {
	case DirectionIncoming, DirectionOutgoing:
		return dir
	default:
		return DirectionNone
	}
}

// seedSpread bounds the initial pseudo-random placement around the origin.
// The layout's centering force pulls the cloud to the viewport center.
const seedSpread = 300.0

// seedPosition returns supplied coordinates when present, otherwise a
// deterministic placement derived from the node ID.
func seedPosition(rn RawNode) (x, y float64) {
	if rn.X != nil && rn.Y != nil {
		return *rn.X, *rn.Y
	}
	h := fnv.New64a()
	h.Write([]byte(rn.ID))
	sum := h.Sum64()
	// Split the hash into two uniform values in [0,1).
	u := float64(sum>>32) / float64(1<<32)
	v := float64(sum&0xffffffff) / float64(1<<32)
	return (u - 0.5) * seedSpread, (v - 0.5) * seedSpread
}

// nodeRadius derives the display radius from kind and domain attributes:
// address nodes scale with balance, transaction nodes with value. Clamped
// so no node vanishes or dominates the canvas.
func nodeRadius(n *Node) float64 {
	base := DefaultRadius
	switch n.Kind {
	case KindAddress:
		if balance, ok := n.Float("balance"); ok && balance > 0 {
			base += math.Log10(1 + balance)
		}
	case KindTransaction:
		if value, ok := n.Float("value"); ok && value > 0 {
			base += math.Log10(1 + value)
		}
	}
	return math.Min(math.Max(base, MinRadius), MaxRadius)
}

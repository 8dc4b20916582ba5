// Package community requests community partitions from the external
// detection service and validates them for overlay onto a live graph.
//
// A partition is transient decoration: it recolors existing nodes and never
// alters node identity, kind, or graph topology. Supersession of in-flight
// requests (latest result wins) is handled by the session loop via a
// generation counter; this package only performs the round trip and the
// response validation.
package community

// Partition assigns each node to a cluster index. Nodes absent from the
// assignment simply keep their prior color.
type Partition struct {
	Communities map[string]int `json:"partition"`
	Count       int            `json:"num_communities"`
	Modularity  float64        `json:"modularity"` // Quality signal in [-1,1], never a gate
}

// Lookup returns the community index for a node, with ok reporting whether
// the node is covered by the partition.
func (p *Partition) Lookup(id string) (int, bool) {
	if p == nil {
		return 0, false
	}
	idx, ok := p.Communities[id]
	return idx, ok
}

// Quality returns the informal label the original system attached to a
// modularity score. Reported alongside results, never used as a pass/fail
// gate.
func (p *Partition) Quality() string {
	switch {
	case p == nil:
		return "none"
	case p.Modularity >= 0.6:
		return "excellent"
	case p.Modularity >= 0.4:
		return "good"
	case p.Modularity >= 0.2:
		return "moderate"
	default:
		return "weak"
	}
}

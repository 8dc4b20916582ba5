package render

import (
	"fmt"
	"strings"

	"github.com/chainbreak/chainview/pkg/graph"
	"github.com/chainbreak/chainview/pkg/intel"
)

// maxEvidenceLines caps how many supporting analysis strings a tooltip
// shows for a flagged address.
const maxEvidenceLines = 2

// Tooltip builds the hover text for a node: identity, kind-specific fields,
// and - when flagged - risk level, confidence percentage, sources, and up
// to two supporting evidence lines.
func Tooltip(n *graph.Node, flag intel.Flag, flagged bool) string {
	var b strings.Builder
	b.WriteString(n.DisplayLabel())
	fmt.Fprintf(&b, "\nkind: %s", n.Kind)

	switch n.Kind {
	case graph.KindAddress:
		if balance, ok := n.Float("balance"); ok {
			fmt.Fprintf(&b, "\nbalance: %.8f", balance)
		}
		if txs, ok := n.Float("tx_count"); ok {
			fmt.Fprintf(&b, "\ntransactions: %.0f", txs)
		}
	case graph.KindTransaction:
		if value, ok := n.Float("value"); ok {
			fmt.Fprintf(&b, "\nvalue: %.8f", value)
		}
		if ts, ok := n.Attrs["time"].(string); ok {
			fmt.Fprintf(&b, "\ntime: %s", ts)
		}
	}

	if flagged {
		fmt.Fprintf(&b, "\nrisk: %s (%.0f%% confidence)", flag.RiskLevel, flag.Confidence*100)
		if len(flag.Sources) > 0 {
			fmt.Fprintf(&b, "\nsources: %s", strings.Join(flag.Sources, ", "))
		}
		for i, line := range flag.ActivityAnalysis {
			if i >= maxEvidenceLines {
				break
			}
			fmt.Fprintf(&b, "\n- %s", line)
		}
	}

	return b.String()
}

package render

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/chainbreak/chainview/pkg/graph"
)

// Fixed colors, keyed by role rather than aesthetics: the flagged pair must
// win over any overlay, and kind colors apply only when no overlay covers a
// node.
const (
	flaggedFill   = "#d62828"
	flaggedStroke = "#6a040f"

	addressFill     = "#4361ee"
	transactionFill = "#f77f00"
	genericFill     = "#8d99ae"
	defaultStroke   = "#2b2d42"

	edgeNeutral  = "#adb5bd"
	edgeIncoming = "#2a9d8f"
	edgeOutgoing = "#e76f51"

	background = "#ffffff"
)

// CommunityColor maps a community index to a hex color, deterministically
// and order-independently: the same (index, count) pair always yields the
// same color, so repeated renders of one partition are visually identical.
//
// Hues are spaced evenly around the HCL wheel for the partition's community
// count, which stays visually distinct up to well beyond ten communities;
// indexes past count wrap cyclically.
func CommunityColor(index, count int) string {
	if index < 0 {
		index = 0
	}
	if count < 1 {
		count = 1
	}
	hue := float64(index%count) / float64(count) * 360
	return colorful.Hcl(hue, 0.55, 0.6).Clamped().Hex()
}

// kindFill returns the default fill for a node kind.
func kindFill(kind string) string {
	switch kind {
	case graph.KindAddress:
		return addressFill
	case graph.KindTransaction:
		return transactionFill
	default:
		return genericFill
	}
}

// edgeColor returns the stroke color for an edge direction.
func edgeColor(direction string) string {
	switch direction {
	case graph.DirectionIncoming:
		return edgeIncoming
	case graph.DirectionOutgoing:
		return edgeOutgoing
	default:
		return edgeNeutral
	}
}

// Package intel consumes the illicit-address threat-intelligence
// collaborator.
//
// The flag set is read-only decoration: the render pipeline consults it
// when coloring nodes and building tooltips, and nothing in the engine ever
// mutates it. It is refreshed independently of graph loads and may be
// empty, stale, or updated asynchronously - the engine tolerates all three.
package intel

import "strings"

// Risk levels as emitted by the scoring backend.
const (
	RiskCritical = "CRITICAL"
	RiskHigh     = "HIGH"
	RiskMedium   = "MEDIUM"
	RiskLow      = "LOW"
	RiskVeryLow  = "VERY_LOW"
)

// Flag is one illicit-address finding.
type Flag struct {
	Address          string   `json:"address"`
	RiskLevel        string   `json:"risk_level"`
	Confidence       float64  `json:"confidence"` // In [0,1]
	Sources          []string `json:"sources"`
	ActivityAnalysis []string `json:"illicit_activity_analysis,omitempty"`
}

// Severe reports whether the flag is HIGH or CRITICAL.
func (f Flag) Severe() bool {
	switch strings.ToUpper(f.RiskLevel) {
	case RiskHigh, RiskCritical:
		return true
	}
	return false
}

// Set is an address-keyed snapshot of the current flags.
// The zero value is a valid empty set.
type Set map[string]Flag

// NewSet indexes a flag list by address. Later duplicates win, matching
// the backend's refresh semantics where newer findings replace older ones.
func NewSet(flags []Flag) Set {
	s := make(Set, len(flags))
	for _, f := range flags {
		if f.Address != "" {
			s[f.Address] = f
		}
	}
	return s
}

// Lookup returns the flag for an address, if any.
func (s Set) Lookup(address string) (Flag, bool) {
	f, ok := s[address]
	return f, ok
}

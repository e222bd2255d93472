// Package balance implements the group balance engine: net-position
// aggregation over expenses, greedy debt simplification, and the split
// generation/validation used when an expense is composed.
//
// Every function in this package is pure. Inputs arrive as parameters,
// outputs are return values, and nothing is cached between calls, so
// callers can recompute after every data change without coordination.
package balance

import "math"

// Tolerance is the threshold under which a balance or split residual is
// treated as exactly zero. Accumulating float64 amounts across many
// expenses leaves sub-cent noise; every positive/negative/settled
// classification in this package goes through this one constant.
const Tolerance = 0.01

// UnknownMemberName labels members that have no display-name mapping.
// A stale roster snapshot degrades the label, not the computation.
const UnknownMemberName = "Unknown"

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Sign classifies v against Tolerance: +1 for a creditor-sized positive
// value, -1 for a debtor-sized negative value, 0 when v is close enough
// to zero to count as settled.
func Sign(v float64) int {
	switch {
	case v > Tolerance:
		return 1
	case v < -Tolerance:
		return -1
	default:
		return 0
	}
}

// WithinTolerance reports whether a and b differ by at most Tolerance.
// The boundary is inclusive: a difference of exactly 0.01 still counts
// as matching.
func WithinTolerance(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}

// displayName resolves a member id to its display name, falling back to
// UnknownMemberName when the roster snapshot has no entry.
func displayName(names map[string]string, memberID string) string {
	if name, ok := names[memberID]; ok && name != "" {
		return name
	}
	return UnknownMemberName
}

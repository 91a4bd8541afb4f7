package tactical

import "math"

// Tactical rounding policy: proposed AP costs round up and proposed
// distances round down, both at 0.1 granularity, so an action that was
// affordable when generated remains affordable when re-derived later.

const roundingEpsilon = 1e-9

// CeilTenth rounds v up to the next 0.1.
func CeilTenth(v float64) float64 {
	return math.Ceil(v*10-roundingEpsilon) / 10
}

// FloorTenth rounds v down to the previous 0.1.
func FloorTenth(v float64) float64 {
	return math.Floor(v*10+roundingEpsilon) / 10
}

// Affordable reports whether a rounded cost fits inside a budget,
// tolerating float drift at the boundary.
func Affordable(cost, budget float64) bool {
	return cost <= budget+roundingEpsilon
}

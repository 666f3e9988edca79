// Package dsp holds small numerical helpers shared across the DOA pipeline:
// angle wrapping, circular distance, and window-function generation.
package dsp

import "math"

// WrapDeg wraps an angle in degrees to [-180, 180).
func WrapDeg(deg float64) float64 {
	w := math.Mod(deg+180.0, 360.0)
	if w < 0 {
		w += 360.0
	}
	return w - 180.0
}

// WrapDeg0360 wraps an angle in degrees to [0, 360).
func WrapDeg0360(deg float64) float64 {
	w := math.Mod(deg, 360.0)
	if w < 0 {
		w += 360.0
	}
	return w
}

// CircDist returns the signed circular distance a-b in degrees, in (-180, 180].
// Positive means a is counter-clockwise ahead of b by the short way around.
func CircDist(a, b float64) float64 {
	d := WrapDeg(a - b)
	if d <= -180.0 {
		d += 360.0
	}
	return d
}

// SanitizeFinite returns 0 if v is NaN or Inf, else v unchanged.
func SanitizeFinite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

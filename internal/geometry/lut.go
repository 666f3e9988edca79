package geometry

import (
	"fmt"
	"math"
)

// NearFieldRadius is the virtual source distance (meters) used by the
// optional near-field steering mode.
const NearFieldRadius = 100.0

// LUT is the immutable per-pair, per-azimuth fractional-delay lookup table.
type LUT struct {
	geo       *Geometry
	grid      []float64 // azimuth_deg, strictly non-decreasing, [0,360)
	nearField bool

	delaySamples map[Pair][]float64
	delaySeconds map[Pair][]float64
}

// NewLUT builds the TDOA LUT for every pair in geo over the given azimuth
// grid. grid must be strictly non-decreasing with all values in [0,360).
func NewLUT(geo *Geometry, grid []float64, nearField bool) (*LUT, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("geometry: azimuth grid must not be empty")
	}
	for idx, a := range grid {
		if a < 0 || a >= 360 {
			return nil, fmt.Errorf("geometry: azimuth grid[%d]=%v out of [0,360)", idx, a)
		}
		if idx > 0 && grid[idx] < grid[idx-1] {
			return nil, fmt.Errorf("geometry: azimuth grid must be non-decreasing at index %d", idx)
		}
	}

	l := &LUT{
		geo:          geo,
		grid:         append([]float64(nil), grid...),
		nearField:    nearField,
		delaySamples: make(map[Pair][]float64, len(geo.Pairs)),
		delaySeconds: make(map[Pair][]float64, len(geo.Pairs)),
	}

	for _, p := range geo.Pairs {
		secs := make([]float64, len(grid))
		samps := make([]float64, len(grid))
		rv, _ := geo.PairVector(p.I, p.J)
		for a, thetaDeg := range grid {
			theta := thetaDeg * math.Pi / 180.0
			ux, uy := math.Cos(theta), math.Sin(theta)
			var tau float64
			if nearField {
				tau = l.nearFieldDelay(rv, ux, uy, p.I, p.J)
			} else {
				// tau_ij = -((r_i - r_j) . u) / c
				dot := rv[0]*ux + rv[1]*uy
				tau = -dot / geo.SoundSpeed
			}
			secs[a] = tau
			samps[a] = tau * geo.SampleRate
		}
		l.delaySeconds[p] = secs
		l.delaySamples[p] = samps
	}

	return l, nil
}

// nearFieldDelay places a virtual source at NearFieldRadius along u(theta)
// and uses the path-length difference to the two mics, sign-matched to the
// far-field convention (positive tau means i lags j, as tau_ij = -((ri-rj).u)/c).
func (l *LUT) nearFieldDelay(rv [3]float64, ux, uy float64, i, j int) float64 {
	sx, sy := ux*NearFieldRadius, uy*NearFieldRadius
	mi, mj := l.geo.Mics[i], l.geo.Mics[j]
	di := math.Hypot(mi.X-sx, mi.Y-sy)
	dj := math.Hypot(mj.X-sx, mj.Y-sy)
	_ = rv
	return (di - dj) / l.geo.SoundSpeed
}

// DelaysSamples returns the fractional-sample-delay curve over the grid for
// pair (i,j), honoring the antisymmetry tau_ij = -tau_ji for orderings not
// stored directly.
func (l *LUT) DelaysSamples(i, j int) ([]float64, bool) {
	return l.lookup(l.delaySamples, i, j)
}

// DelaysSeconds returns the equivalent curve in seconds.
func (l *LUT) DelaysSeconds(i, j int) ([]float64, bool) {
	return l.lookup(l.delaySeconds, i, j)
}

func (l *LUT) lookup(table map[Pair][]float64, i, j int) ([]float64, bool) {
	if i == j {
		return nil, false
	}
	lo, hi, sign := i, j, 1.0
	if i > j {
		lo, hi, sign = j, i, -1.0
	}
	v, ok := table[Pair{I: lo, J: hi}]
	if !ok {
		return nil, false
	}
	if sign > 0 {
		return v, true
	}
	neg := make([]float64, len(v))
	for k, x := range v {
		neg[k] = -x
	}
	return neg, true
}

// Grid returns the azimuth grid in degrees.
func (l *LUT) Grid() []float64 { return l.grid }

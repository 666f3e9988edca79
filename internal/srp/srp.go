// Package srp implements the SRP-PHAT azimuth scanner (C5): accumulating
// per-pair GCC-PHAT correlations along the TDOA LUT's fractional-delay
// curve into a steered-response-power map over azimuth.
package srp

import (
	"fmt"
	"math"

	"github.com/arraytrack/doa/internal/geometry"
)

// integerTolerance is how close a fractional delay must be to an integer to
// use nearest-index lookup instead of linear interpolation.
const integerTolerance = 1e-4

// Scanner accumulates P(theta) from per-pair correlations using a
// precomputed TDOA LUT.
type Scanner struct {
	lut       *geometry.LUT
	zeroLag   int
	n         int
	positions map[geometry.Pair][]float64 // N/2 + delaySamples, per pair
}

// New precomputes steering positions for every pair in lut over its grid.
func New(lut *geometry.LUT, pairs []geometry.Pair, zeroLagIndex, n int) *Scanner {
	s := &Scanner{
		lut:       lut,
		zeroLag:   zeroLagIndex,
		n:         n,
		positions: make(map[geometry.Pair][]float64, len(pairs)),
	}
	for _, p := range pairs {
		delays, ok := lut.DelaysSamples(p.I, p.J)
		if !ok {
			continue
		}
		pos := make([]float64, len(delays))
		for a, d := range delays {
			pos[a] = float64(zeroLagIndex) + d
		}
		s.positions[p] = pos
	}
	return s
}

// Scan accumulates P(theta) = sum_pairs weight_ij * R_ij[position(pair,theta)]
// over the LUT's grid. weights maps pair -> normalized weight; a nil map
// means weight 1 for every pair. Every pair referenced by the LUT must be
// present in rij, or this is a programming error (fail fast).
func (s *Scanner) Scan(rij map[geometry.Pair][]float64, weights map[geometry.Pair]float64) ([]float64, error) {
	grid := s.lut.Grid()
	p := make([]float64, len(grid))

	for pair, pos := range s.positions {
		r, ok := rij[pair]
		if !ok {
			return nil, fmt.Errorf("srp: missing GCC-PHAT correlation for pair (%d,%d)", pair.I, pair.J)
		}
		w := 1.0
		if weights != nil {
			w = weights[pair]
		}
		if w == 0 {
			continue
		}
		allInteger := true
		for _, pos := range pos {
			if math.Abs(pos-math.Round(pos)) > integerTolerance {
				allInteger = false
				break
			}
		}

		if allInteger {
			for a, x := range pos {
				idx := clampIndex(int(math.Round(x)), len(r))
				p[a] += w * r[idx]
			}
		} else {
			for a, x := range pos {
				lo := int(math.Floor(x))
				hi := lo + 1
				frac := x - float64(lo)
				loC := clampIndex(lo, len(r))
				hiC := clampIndex(hi, len(r))
				val := (1-frac)*r[loC] + frac*r[hiC]
				p[a] += w * val
			}
		}
	}

	return p, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

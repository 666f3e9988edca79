// Package peaks implements multi-source DOA peak extraction with circular
// non-maximum suppression (C6).
package peaks

import "github.com/arraytrack/doa/internal/dsp"

// Candidate is one extracted DOA peak.
type Candidate struct {
	AzimuthDeg float64 // in [0,360)
	Power      float64
	GridIndex  int
}

// Config holds the extractor's tuning parameters.
type Config struct {
	MaxSources      int
	MinPower        float64
	SuppressionDeg  float64
}

// Extract returns up to cfg.MaxSources candidates from p (indexed by grid,
// with azimuth values azDeg in [0,360)), sorted by descending power. Entries
// below cfg.MinPower stop extraction; non-finite input is sanitized to zero.
// p and azDeg must be the same length; Extract does not mutate its inputs.
func Extract(p []float64, azDeg []float64, cfg Config) []Candidate {
	work := make([]float64, len(p))
	for i, v := range p {
		work[i] = dsp.SanitizeFinite(v)
	}

	var out []Candidate
	for len(out) < cfg.MaxSources {
		idx := argmax(work)
		if idx < 0 || work[idx] < cfg.MinPower {
			break
		}
		out = append(out, Candidate{
			AzimuthDeg: azDeg[idx],
			Power:      work[idx],
			GridIndex:  idx,
		})

		chosen := azDeg[idx]
		for i := range work {
			if abs(dsp.CircDist(azDeg[i], chosen)) <= cfg.SuppressionDeg {
				work[i] = 0
			}
		}
	}

	return out
}

func argmax(x []float64) int {
	if len(x) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

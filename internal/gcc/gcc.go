// Package gcc implements GCC-PHAT: generalized cross-correlation with phase
// transform weighting, per microphone pair (C4).
package gcc

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/arraytrack/doa/internal/dsp"
	"github.com/arraytrack/doa/internal/geometry"
)

// Band limits GCC-PHAT to bins [KMin, KMax). A zero-value Band (KMax==0)
// means "use all bins".
type Band struct {
	KMin, KMax int
}

// Correlator computes PHAT-weighted cross-correlations for every configured
// microphone pair, producing a real correlation of length N = 2*(K-1) with
// zero lag at index N/2.
type Correlator struct {
	pairs   []geometry.Pair
	nBins   int
	n       int // 2*(K-1)
	ifft    *fourier.FFT
	epsilon float64
}

// New constructs a Correlator for the given pairs and bin count K.
func New(pairs []geometry.Pair, nBins int, epsilon float64) (*Correlator, error) {
	if nBins < 2 {
		return nil, fmt.Errorf("gcc: nBins must be >= 2, got %d", nBins)
	}
	n := 2 * (nBins - 1)
	return &Correlator{
		pairs:   append([]geometry.Pair(nil), pairs...),
		nBins:   nBins,
		n:       n,
		ifft:    fourier.NewFFT(n),
		epsilon: epsilon,
	}, nil
}

// ZeroLagIndex returns N/2, the index into each pair's result representing
// zero lag.
func (c *Correlator) ZeroLagIndex() int { return c.n / 2 }

// N returns the correlation length 2*(K-1).
func (c *Correlator) N() int { return c.n }

// Compute returns, for each configured pair, the PHAT-weighted real
// cross-correlation. spectra has shape (M, K); band restricts which bins
// contribute (zero value means "all bins"); freqWeight, if non-nil, must
// have length K and is multiplied in on top of the band mask.
func (c *Correlator) Compute(spectra [][]complex128, band Band, freqWeight []float64) (map[geometry.Pair][]float64, error) {
	kMax := band.KMax
	if kMax == 0 {
		kMax = c.nBins
	}
	kMin := band.KMin
	if kMin < 0 || kMax > c.nBins || kMin >= kMax {
		return nil, fmt.Errorf("gcc: invalid band [%d,%d) for %d bins", kMin, kMax, c.nBins)
	}
	if freqWeight != nil && len(freqWeight) != c.nBins {
		return nil, fmt.Errorf("gcc: freqWeight length %d != nBins %d", len(freqWeight), c.nBins)
	}

	out := make(map[geometry.Pair][]float64, len(c.pairs))
	cross := make([]complex128, c.nBins)

	for _, p := range c.pairs {
		if p.I >= len(spectra) || p.J >= len(spectra) {
			return nil, fmt.Errorf("gcc: pair (%d,%d) out of range for %d channels", p.I, p.J, len(spectra))
		}
		xi, xj := spectra[p.I], spectra[p.J]
		if len(xi) != c.nBins || len(xj) != c.nBins {
			return nil, fmt.Errorf("gcc: spectrum length mismatch for pair (%d,%d)", p.I, p.J)
		}

		for k := 0; k < c.nBins; k++ {
			if k < kMin || k >= kMax {
				cross[k] = 0
				continue
			}
			cij := xi[k] * cmplx.Conj(xj[k])
			mag := cmplx.Abs(cij)
			phat := cij / complex(mag+c.epsilon, 0)
			if freqWeight != nil {
				phat *= complex(freqWeight[k], 0)
			}
			phat = sanitizeComplex(phat)
			cross[k] = phat
		}

		seq := c.ifft.Sequence(nil, cross)
		r := fftshift(seq)
		out[p] = r
	}

	return out, nil
}

func sanitizeComplex(z complex128) complex128 {
	re, im := real(z), imag(z)
	return complex(dsp.SanitizeFinite(re), dsp.SanitizeFinite(im))
}

func fftshift(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	half := n / 2
	copy(out[:n-half], x[half:])
	copy(out[n-half:], x[:half])
	return out
}

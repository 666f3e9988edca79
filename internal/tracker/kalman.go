package tracker

import (
	"gonum.org/v1/gonum/mat"

	"github.com/arraytrack/doa/internal/dsp"
)

// kalmanPredict advances a constant-velocity [theta, thetaDot] state by one
// step: x' = F x, P' = F P F^T + Q, with
//
//	F = [[1, dt], [0, 1]]
//	Q = [[0.25*dt^2*q, 0.5*dt*q], [0.5*dt*q, q]]
//
// where q is the process noise variance.
func kalmanPredict(theta, thetaDot float64, p [2][2]float64, dt, q float64) (float64, float64, [2][2]float64) {
	x := mat.NewDense(2, 1, []float64{theta, thetaDot})
	f := mat.NewDense(2, 2, []float64{1, dt, 0, 1})
	pIn := mat.NewDense(2, 2, []float64{p[0][0], p[0][1], p[1][0], p[1][1]})

	var xOut mat.Dense
	xOut.Mul(f, x)
	xOut.Set(0, 0, dsp.WrapDeg(xOut.At(0, 0)))

	var fp, fpft mat.Dense
	fp.Mul(f, pIn)
	fpft.Mul(&fp, f.T())

	dt2 := dt * dt
	qMat := mat.NewDense(2, 2, []float64{
		0.25 * dt2 * q, 0.5 * dt * q,
		0.5 * dt * q, q,
	})
	var pOut mat.Dense
	pOut.Add(&fpft, qMat)

	var out [2][2]float64
	out[0][0], out[0][1] = pOut.At(0, 0), pOut.At(0, 1)
	out[1][0], out[1][1] = pOut.At(1, 0), pOut.At(1, 1)
	return xOut.At(0, 0), xOut.At(1, 0), out
}

// kalmanUpdate folds a scalar azimuth measurement z (H = [1, 0]) into the
// predicted state, returning the corrected state and covariance.
func kalmanUpdate(theta, thetaDot float64, p [2][2]float64, z, r float64) (float64, float64, [2][2]float64) {
	x := mat.NewDense(2, 1, []float64{theta, thetaDot})
	pIn := mat.NewDense(2, 2, []float64{p[0][0], p[0][1], p[1][0], p[1][1]})
	h := mat.NewDense(1, 2, []float64{1, 0})

	var hp mat.Dense
	hp.Mul(h, pIn)
	var hpht mat.Dense
	hpht.Mul(&hp, h.T())
	s := hpht.At(0, 0) + r

	var pht mat.Dense
	pht.Mul(pIn, h.T())
	k := mat.NewDense(2, 1, []float64{pht.At(0, 0) / s, pht.At(1, 0) / s})

	y := dsp.CircDist(z, x.At(0, 0))

	var correction mat.Dense
	correction.Scale(y, k)
	var xOut mat.Dense
	xOut.Add(x, &correction)
	xOut.Set(0, 0, dsp.WrapDeg(xOut.At(0, 0)))

	var kh mat.Dense
	kh.Mul(k, h)
	ident := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	var ikh mat.Dense
	ikh.Sub(ident, &kh)
	var pOut mat.Dense
	pOut.Mul(&ikh, pIn)

	var out [2][2]float64
	out[0][0], out[0][1] = pOut.At(0, 0), pOut.At(0, 1)
	out[1][0], out[1][1] = pOut.At(1, 0), pOut.At(1, 1)
	return xOut.At(0, 0), xOut.At(1, 0), out
}

func initialCovariance(measurementNoise, processNoise float64) [2][2]float64 {
	return [2][2]float64{
		{measurementNoise * measurementNoise, 0},
		{0, processNoise * processNoise},
	}
}

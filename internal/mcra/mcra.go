// Package mcra implements the minima-controlled recursive-averaging noise
// estimator (C3): a per-bin noise floor tracker with a speech-presence gate
// that freezes minima updates on active bins.
package mcra

// Config holds the MCRA tuning parameters.
type Config struct {
	AlphaS        float64 // smoothing coefficient for S, in (0,1)
	MinimaWindow  int     // W, size of the minima-tracking ring, >= 1
	Delta         float64 // bias factor applied to the ring minimum
	AlphaD        float64 // smoothing coefficient for speech-presence probability
	Epsilon       float64 // floor to avoid division/clamp to zero
}

// Estimator tracks the per-bin noise floor for a fixed number of bins.
type Estimator struct {
	cfg         Config
	initialized bool

	s       []float64 // smoothed power
	nHat    []float64 // current noise estimate
	p       []float64 // smoothed speech-presence probability
	ring    [][]float64 // ring[w][k], minima candidates
	ringIdx int
}

// New constructs an Estimator for nBins frequency bins.
func New(cfg Config, nBins int) *Estimator {
	if cfg.MinimaWindow < 1 {
		cfg.MinimaWindow = 1
	}
	e := &Estimator{
		cfg:  cfg,
		s:    make([]float64, nBins),
		nHat: make([]float64, nBins),
		p:    make([]float64, nBins),
		ring: make([][]float64, cfg.MinimaWindow),
	}
	for w := range e.ring {
		e.ring[w] = make([]float64, nBins)
	}
	return e
}

// Reset clears all state; the next Update re-initializes from its input.
func (e *Estimator) Reset() {
	e.initialized = false
	for k := range e.s {
		e.s[k] = 0
		e.nHat[k] = 0
		e.p[k] = 0
	}
	for w := range e.ring {
		for k := range e.ring[w] {
			e.ring[w][k] = 0
		}
	}
	e.ringIdx = 0
}

// Update consumes one frame of per-bin instantaneous power P[k] (must be
// non-negative and finite; sanitize upstream) and returns the updated noise
// estimate N-hat[k]. The returned slice is owned by the Estimator and is
// overwritten on the next call; callers that need to retain it should copy.
func (e *Estimator) Update(p []float64) []float64 {
	eps := e.cfg.Epsilon
	if !e.initialized {
		for k, v := range p {
			e.s[k] = v
			n := e.cfg.Delta * v
			if n < eps {
				n = eps
			}
			e.nHat[k] = n
			e.p[k] = 0
			for w := range e.ring {
				e.ring[w][k] = v
			}
		}
		e.initialized = true
		return e.nHat
	}

	alphaS := e.cfg.AlphaS
	alphaD := e.cfg.AlphaD
	delta := e.cfg.Delta

	for k, v := range p {
		e.s[k] = alphaS*e.s[k] + (1-alphaS)*v

		ratio := v / (e.nHat[k] + eps)
		pHat := (ratio - 1) / ratio
		if ratio == 0 {
			pHat = 0
		}
		if pHat < 0 {
			pHat = 0
		}
		if pHat > 1 {
			pHat = 1
		}
		e.p[k] = alphaD*e.p[k] + (1-alphaD)*pHat

		if e.p[k] < 0.5 {
			e.ring[e.ringIdx][k] = e.s[k]
		}
	}

	e.ringIdx = (e.ringIdx + 1) % len(e.ring)

	for k := range p {
		min := e.ring[0][k]
		for w := 1; w < len(e.ring); w++ {
			if e.ring[w][k] < min {
				min = e.ring[w][k]
			}
		}
		nNew := delta * min
		if nNew < eps {
			nNew = eps
		}
		e.nHat[k] = 0.8*e.nHat[k] + 0.2*nNew
	}

	return e.nHat
}

// Noise returns the current noise estimate without updating it.
func (e *Estimator) Noise() []float64 { return e.nHat }

// SpeechProbability returns the current per-bin smoothed speech-presence
// probability.
func (e *Estimator) SpeechProbability() []float64 { return e.p }

// Initialized reports whether Update has been called at least once since
// construction or the last Reset.
func (e *Estimator) Initialized() bool { return e.initialized }

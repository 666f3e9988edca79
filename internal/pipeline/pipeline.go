// Package pipeline orchestrates the per-frame DOA pipeline (C8): spectral
// analysis, noise tracking, GCC-PHAT, SRP-PHAT scanning, peak extraction, and
// multi-target tracking, publishing a deep-copyable snapshot after each
// processed frame.
package pipeline

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/arraytrack/doa/internal/dsp"
	"github.com/arraytrack/doa/internal/gcc"
	"github.com/arraytrack/doa/internal/geometry"
	"github.com/arraytrack/doa/internal/mcra"
	"github.com/arraytrack/doa/internal/peaks"
	"github.com/arraytrack/doa/internal/srp"
	"github.com/arraytrack/doa/internal/stft"
	"github.com/arraytrack/doa/internal/telemetry"
	"github.com/arraytrack/doa/internal/tracker"
)

// Config groups every sub-component's configuration plus the orchestration
// parameters that are pipeline-specific (smoothing, track boosting,
// orientation correction).
type Config struct {
	STFT    stft.Config
	MCRA    mcra.Config
	Tracker tracker.Config

	AzimuthGridDeg []float64 // strictly non-decreasing, [0,360)
	MinFreqHz      float64
	MaxFreqHz      float64
	GCCEpsilon     float64

	Peaks peaks.Config

	SmoothingAlpha float64 // exponential smoothing on the SRP power map, in [0,1)

	UseSNRMask    bool    // multiply each STFT bin by a dB-range-derived weight before GCC
	SNRMaskLowDB  float64
	SNRMaskHighDB float64

	UseFreqWeighting  bool // bell-curve frequency weight passed to GCC-PHAT, on top of the band mask
	FreqWeightPeakHz  float64
	FreqWeightWidthHz float64

	UsePairWeighting bool // per-pair SRP weight from per-mic noise estimates

	UseTrackingBoost      bool // multiplicative gaussian bump at each track's azimuth from the previous frame's snapshot
	TrackingBoostLambda   float64
	TrackingBoostSigmaDeg float64

	OrientationOffsetDeg float64 // added to every detection azimuth handed to the tracker, then wrapped to [0,360); Snapshot.Candidates stay un-offset
}

// Snapshot is a deep-copyable view of the pipeline's state after one
// processed frame.
type Snapshot struct {
	FrameIndex int
	WallClockTS time.Time
	Tracks     []tracker.TrackState
	Candidates []peaks.Candidate
	NoiseFloor []float64
	PowerMap   []float64 // smoothed P(theta), pre-boost, over AzimuthGridDeg
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		FrameIndex:  s.FrameIndex,
		WallClockTS: s.WallClockTS,
		Tracks:      append([]tracker.TrackState(nil), s.Tracks...),
		Candidates:  append([]peaks.Candidate(nil), s.Candidates...),
		NoiseFloor:  append([]float64(nil), s.NoiseFloor...),
		PowerMap:    append([]float64(nil), s.PowerMap...),
	}
	return out
}

// Pipeline owns every stage's state and the latest published Snapshot. All
// exported methods except Snapshot are intended to be called from a single
// processing goroutine; Snapshot is safe to call from any goroutine.
type Pipeline struct {
	cfg Config
	geo *geometry.Geometry
	lut *geometry.LUT
	sink telemetry.Sink

	stft   *stft.Streamer
	noise  *mcra.Estimator
	micNoise []*mcra.Estimator // per-mic noise estimators, used only when UsePairWeighting
	corr   *gcc.Correlator
	scan   *srp.Scanner
	trk    *tracker.Tracker
	kMin, kMax int
	freqWeightVec []float64 // precomputed bell-curve weight, nil unless UseFreqWeighting

	smoothed          []float64
	smoothInitialized bool
	frameIndex        int

	mu       sync.Mutex
	snapshot Snapshot
}

// New builds a Pipeline from geo and cfg. geo and its derived LUT are
// immutable and may be shared across Pipelines.
func New(geo *geometry.Geometry, cfg Config, sink telemetry.Sink) (*Pipeline, error) {
	if sink == nil {
		sink = telemetry.Discard{}
	}
	if len(cfg.AzimuthGridDeg) == 0 {
		return nil, fmt.Errorf("pipeline: azimuth grid must not be empty")
	}

	lut, err := geometry.NewLUT(geo, cfg.AzimuthGridDeg, false)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building LUT: %w", err)
	}

	streamer, err := stft.New(cfg.STFT)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building stft streamer: %w", err)
	}
	nBins := streamer.NumBins()

	corr, err := gcc.New(geo.Pairs, nBins, cfg.GCCEpsilon)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building gcc correlator: %w", err)
	}

	zeroLag := corr.ZeroLagIndex()
	scanner := srp.New(lut, geo.Pairs, zeroLag, corr.N())

	binHz := geo.SampleRate / float64(streamer.NumBins()*2-2)
	kMin := int(cfg.MinFreqHz / binHz)
	kMax := int(math.Ceil(cfg.MaxFreqHz / binHz))
	if kMin < 0 {
		kMin = 0
	}
	if kMax <= kMin || kMax > nBins {
		kMax = nBins
	}

	var freqWeightVec []float64
	if cfg.UseFreqWeighting {
		freqWeightVec = buildFreqWeight(nBins, binHz, cfg.FreqWeightPeakHz, cfg.FreqWeightWidthHz, kMin, kMax)
	}

	var micNoise []*mcra.Estimator
	if cfg.UsePairWeighting {
		micNoise = make([]*mcra.Estimator, geo.NumMics())
		for i := range micNoise {
			micNoise[i] = mcra.New(cfg.MCRA, nBins)
		}
	}

	p := &Pipeline{
		cfg:           cfg,
		geo:           geo,
		lut:           lut,
		sink:          sink,
		stft:          streamer,
		noise:         mcra.New(cfg.MCRA, nBins),
		micNoise:      micNoise,
		corr:          corr,
		scan:          scanner,
		trk:           tracker.New(cfg.Tracker),
		kMin:          kMin,
		kMax:          kMax,
		freqWeightVec: freqWeightVec,
		smoothed:      make([]float64, len(cfg.AzimuthGridDeg)),
	}
	return p, nil
}

// buildFreqWeight precomputes the bell-curve frequency weight centered at
// peakHz with FWHM-derived width widthHz, normalized to a max of 1 before
// being hard-masked to zero outside [kMin,kMax).
func buildFreqWeight(nBins int, binHz, peakHz, widthHz float64, kMin, kMax int) []float64 {
	w := make([]float64, nBins)
	if widthHz <= 0 {
		for k := range w {
			w[k] = 1
		}
	} else {
		sigma := widthHz / 2.355
		maxW := 0.0
		for k := range w {
			f := float64(k) * binHz
			d := (f - peakHz) / sigma
			w[k] = math.Exp(-0.5 * d * d)
			if w[k] > maxW {
				maxW = w[k]
			}
		}
		if maxW > 1e-8 {
			for k := range w {
				w[k] /= maxW
			}
		}
	}
	for k := range w {
		if k < kMin || k >= kMax {
			w[k] = 0
		}
	}
	return w
}

// ProcessBlock feeds one block of multichannel samples (shape M x n) through
// the pipeline, advancing zero or more analysis frames, and returns the
// number of frames processed.
func (p *Pipeline) ProcessBlock(block [][]float64) (int, error) {
	frames, err := p.stft.Process(block)
	if err != nil {
		return 0, fmt.Errorf("pipeline: stft: %w", err)
	}
	for _, f := range frames {
		if err := p.processFrame(f.Spectra); err != nil {
			return 0, err
		}
	}
	return len(frames), nil
}

func (p *Pipeline) processFrame(spectra [][]complex128) error {
	refPower := referencePower(spectra)
	noiseFloor := p.noise.Update(refPower)

	var pairWeights map[geometry.Pair]float64
	if p.cfg.UsePairWeighting {
		pairWeights = p.computePairWeights(spectra)
	}

	if p.cfg.UseSNRMask {
		p.applySNRMask(spectra, refPower, noiseFloor)
	}

	var freqWeight []float64
	if p.cfg.UseFreqWeighting {
		freqWeight = p.freqWeightVec
	}

	band := gcc.Band{KMin: p.kMin, KMax: p.kMax}
	rij, err := p.corr.Compute(spectra, band, freqWeight)
	if err != nil {
		return fmt.Errorf("pipeline: gcc: %w", err)
	}

	raw, err := p.scan.Scan(rij, pairWeights)
	if err != nil {
		return fmt.Errorf("pipeline: srp: %w", err)
	}

	if !p.smoothInitialized {
		for i, v := range raw {
			p.smoothed[i] = dsp.SanitizeFinite(v)
		}
		p.smoothInitialized = true
	} else {
		alpha := p.cfg.SmoothingAlpha
		for i, v := range raw {
			p.smoothed[i] = alpha*p.smoothed[i] + (1-alpha)*dsp.SanitizeFinite(v)
		}
	}

	boosted := append([]float64(nil), p.smoothed...)
	if p.cfg.UseTrackingBoost {
		p.boostTracks(boosted)
	}

	cands := peaks.Extract(boosted, p.cfg.AzimuthGridDeg, p.cfg.Peaks)
	cands = p.mergeWithTracks(cands)

	dets := make([]tracker.Detection, len(cands))
	for i, c := range cands {
		dets[i] = tracker.Detection{
			AzimuthDeg: dsp.WrapDeg0360(c.AzimuthDeg + p.cfg.OrientationOffsetDeg),
			Power:      c.Power,
		}
	}

	states := p.trk.Step(dets, p.frameIndex)

	snap := Snapshot{
		FrameIndex:  p.frameIndex,
		WallClockTS: time.Now(),
		Tracks:      states,
		Candidates:  cands,
		NoiseFloor:  append([]float64(nil), noiseFloor...),
		PowerMap:    append([]float64(nil), p.smoothed...),
	}
	p.publish(snap)

	p.sink.Event("pipeline.frame", "frame_index", p.frameIndex, "candidates", len(cands), "tracks", len(states))
	p.frameIndex++
	return nil
}

// computePairWeights updates the per-mic noise estimators from the unmasked
// spectra and derives a normalized per-pair SRP weight w_ij = (mean(N_i) +
// mean(N_j))^-1, combined with a pair reliability factor that is always 1
// (no dynamic reliability tracking is implemented, matching the reference
// pipeline's own static pair_reliability map).
func (p *Pipeline) computePairWeights(spectra [][]complex128) map[geometry.Pair]float64 {
	const eps = 1e-8

	for m, ch := range spectra {
		if m >= len(p.micNoise) {
			break
		}
		power := make([]float64, len(ch))
		for k, c := range ch {
			power[k] = real(c)*real(c) + imag(c)*imag(c)
		}
		p.micNoise[m].Update(power)
	}

	weights := make(map[geometry.Pair]float64, len(p.geo.Pairs))
	total := 0.0
	for _, pair := range p.geo.Pairs {
		nAvgI := meanOf(p.micNoise[pair.I].Noise())
		nAvgJ := meanOf(p.micNoise[pair.J].Noise())
		w := 1.0 / (nAvgI + nAvgJ + eps)
		weights[pair] = w
		total += w
	}
	if total > eps {
		for pair := range weights {
			weights[pair] /= total
		}
	}
	return weights
}

func meanOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// applySNRMask multiplies every microphone's spectrum in place by a per-bin
// weight derived from the mic-averaged power's SNR in dB, clipped and linearly
// mapped from [SNRMaskLowDB, SNRMaskHighDB] to [0,1].
func (p *Pipeline) applySNRMask(spectra [][]complex128, refPower, noiseFloor []float64) {
	const eps = 1e-8

	low := p.cfg.SNRMaskLowDB
	high := p.cfg.SNRMaskHighDB
	if high <= low {
		high = low + 1
	}

	w := make([]float64, len(refPower))
	for k, v := range refPower {
		snr := v / (noiseFloor[k] + eps)
		snrDB := 10 * math.Log10(snr+eps)
		x := (snrDB - low) / (high - low)
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		w[k] = x
	}

	for _, ch := range spectra {
		for k := range ch {
			ch[k] *= complex(w[k], 0)
		}
	}
}

// boostTracks applies a multiplicative gaussian bump around each confirmed
// track's last-known azimuth: B(theta) = 1 + lambda * sum(exp(...)),
// P_boost = P * B. Unlike an additive bump, this never injects power into
// regions far from every track.
func (p *Pipeline) boostTracks(power []float64) {
	tracks := p.lastTracks()
	sigma := p.cfg.TrackingBoostSigmaDeg
	if len(tracks) == 0 || sigma <= 0 {
		return
	}

	boost := make([]float64, len(power))
	for i := range boost {
		boost[i] = 1
	}
	for _, t := range tracks {
		for i, az := range p.cfg.AzimuthGridDeg {
			d := dsp.CircDist(az, t.AzimuthDeg)
			boost[i] += p.cfg.TrackingBoostLambda * math.Exp(-0.5*d*d/(sigma*sigma))
		}
	}
	for i := range power {
		power[i] *= boost[i]
	}
}

func (p *Pipeline) lastTracks() []tracker.TrackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot.Tracks
}

// mergeWithTracks groups candidates by their nearest active track (within
// gate_deg) and replaces each group with a single candidate at the
// confidence-weighted circular mean of its member angles and summed power,
// keeping the strongest member's grid index. Candidates with no track within
// range pass through unchanged.
func (p *Pipeline) mergeWithTracks(cands []peaks.Candidate) []peaks.Candidate {
	tracks := p.lastTracks()
	gate := p.cfg.Tracker.GateDeg
	if len(tracks) == 0 || gate <= 0 {
		return cands
	}

	groups := make(map[int][]peaks.Candidate)
	var passthrough []peaks.Candidate
	for _, c := range cands {
		best := -1
		bestDist := gate
		for ti, t := range tracks {
			d := math.Abs(dsp.CircDist(c.AzimuthDeg, t.AzimuthDeg))
			if d <= bestDist {
				bestDist = d
				best = ti
			}
		}
		if best < 0 {
			passthrough = append(passthrough, c)
			continue
		}
		groups[best] = append(groups[best], c)
	}

	out := append([]peaks.Candidate(nil), passthrough...)
	for ti, members := range groups {
		out = append(out, mergeGroup(members, tracks[ti].Confidence))
	}
	return out
}

// mergeGroup collapses members into one candidate at their confidence-
// weighted circular mean angle, with summed power and the strongest
// member's grid index.
func mergeGroup(members []peaks.Candidate, trackConfidence float64) peaks.Candidate {
	weight := trackConfidence
	if weight <= 0 {
		weight = 1
	}
	var sinSum, cosSum, powerSum float64
	strongest := members[0]
	for _, m := range members {
		rad := m.AzimuthDeg * math.Pi / 180
		sinSum += weight * math.Sin(rad)
		cosSum += weight * math.Cos(rad)
		powerSum += m.Power
		if m.Power > strongest.Power {
			strongest = m
		}
	}
	meanDeg := math.Atan2(sinSum, cosSum) * 180 / math.Pi
	return peaks.Candidate{
		AzimuthDeg: dsp.WrapDeg0360(meanDeg),
		Power:      powerSum,
		GridIndex:  strongest.GridIndex,
	}
}

func (p *Pipeline) publish(s Snapshot) {
	p.mu.Lock()
	p.snapshot = s.clone()
	p.mu.Unlock()
}

// Snapshot returns a deep copy of the most recently published state. Safe to
// call concurrently with ProcessBlock.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot.clone()
}

// Reset clears all per-frame state, as if the Pipeline were newly
// constructed, without rebuilding the geometry-derived LUT or correlator.
func (p *Pipeline) Reset() {
	p.stft.Reset()
	p.noise.Reset()
	for _, m := range p.micNoise {
		m.Reset()
	}
	p.trk = tracker.New(p.cfg.Tracker)
	p.frameIndex = 0
	p.smoothInitialized = false
	for i := range p.smoothed {
		p.smoothed[i] = 0
	}
	p.mu.Lock()
	p.snapshot = Snapshot{}
	p.mu.Unlock()
}

func referencePower(spectra [][]complex128) []float64 {
	if len(spectra) == 0 {
		return nil
	}
	k := len(spectra[0])
	out := make([]float64, k)
	for _, ch := range spectra {
		for i, c := range ch {
			mag := real(c)*real(c) + imag(c)*imag(c)
			out[i] += mag
		}
	}
	n := float64(len(spectra))
	for i := range out {
		out[i] = dsp.SanitizeFinite(out[i] / n)
	}
	return out
}

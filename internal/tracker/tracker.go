package tracker

import "github.com/arraytrack/doa/internal/dsp"

// Tracker maintains a set of confirmed tracks plus a pool of pending
// (unconfirmed) tracks. Track IDs increase monotonically and are never
// reused. Iteration over tracks and pendings always follows insertion
// order, so association is deterministic across runs.
type Tracker struct {
	cfg      Config
	tracks   []*track
	pendings []*pendingTrack
	nextID   int
}

// New builds an empty tracker.
func New(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// Step advances the tracker by one frame given the peak candidates detected
// in it, and returns a snapshot of every confirmed track after the step.
func (tr *Tracker) Step(dets []Detection, frameIndex int) []TrackState {
	for _, t := range tr.tracks {
		t.theta, t.thetaDot, t.p = kalmanPredict(t.theta, t.thetaDot, t.p, tr.cfg.Dt, tr.cfg.ProcessNoise*tr.cfg.ProcessNoise)
	}

	claimed := make([]bool, len(dets))
	for _, t := range tr.tracks {
		best := -1
		bestDist := tr.cfg.GateDeg
		for i, d := range dets {
			if claimed[i] {
				continue
			}
			dist := abs(dsp.CircDist(d.AzimuthDeg, t.theta))
			if dist <= bestDist {
				bestDist = dist
				best = i
			}
		}
		if best >= 0 {
			claimed[best] = true
			t.theta, t.thetaDot, t.p = kalmanUpdate(t.theta, t.thetaDot, t.p, dets[best].AzimuthDeg, tr.cfg.MeasurementNoise*tr.cfg.MeasurementNoise)
			t.hits++
			t.misses = 0
			t.age++
			t.lastUpdateFrame = frameIndex
		} else {
			t.misses++
			t.age++
		}
	}

	tr.updatePending(dets, claimed)
	tr.promoteAndExpirePending(frameIndex)
	tr.killDeadTracks()

	out := make([]TrackState, 0, len(tr.tracks))
	for _, t := range tr.tracks {
		out = append(out, t.snapshot())
	}
	return out
}

// updatePending matches unclaimed detections against pending tracks in
// insertion order, ages every pending track, and seeds new pending tracks
// from detections strong enough to clear the birth power threshold.
func (tr *Tracker) updatePending(dets []Detection, claimed []bool) {
	pendingClaimed := make([]bool, len(dets))
	for _, p := range tr.pendings {
		best := -1
		bestDist := tr.cfg.GateDeg
		for i, d := range dets {
			if claimed[i] || pendingClaimed[i] {
				continue
			}
			dist := abs(dsp.CircDist(d.AzimuthDeg, p.theta))
			if dist <= bestDist {
				bestDist = dist
				best = i
			}
		}
		p.age++
		if best >= 0 {
			pendingClaimed[best] = true
			p.theta = dets[best].AzimuthDeg
			if dets[best].Power > p.peakPower {
				p.peakPower = dets[best].Power
			}
			p.hits++
			p.misses = 0
		} else {
			p.misses++
		}
	}

	for i, d := range dets {
		if claimed[i] || pendingClaimed[i] {
			continue
		}
		if d.Power >= tr.cfg.PendingTrackPowerThreshold {
			tr.pendings = append(tr.pendings, &pendingTrack{
				theta:     d.AzimuthDeg,
				peakPower: d.Power,
				age:       1,
				hits:      1,
			})
		}
	}
}

// promoteAndExpirePending turns pending tracks that have earned confirmation
// into confirmed tracks, and drops ones that have aged out without doing so.
func (tr *Tracker) promoteAndExpirePending(frameIndex int) {
	var kept []*pendingTrack
	for _, p := range tr.pendings {
		hitRate := pendingHitRate(p)
		ageFactor := float64(p.age) / float64(tr.cfg.BirthFrames)
		if ageFactor > 1 {
			ageFactor = 1
		}
		pendingConfidence := hitRate * ageFactor
		if p.age >= tr.cfg.BirthFrames && hitRate >= tr.cfg.MinHitRateForPromotion && pendingConfidence >= tr.cfg.MinConfidenceForPromotion {
			tr.tracks = append(tr.tracks, &track{
				id:              tr.nextID,
				theta:           p.theta,
				thetaDot:        0,
				p:               initialCovariance(tr.cfg.MeasurementNoise, tr.cfg.ProcessNoise),
				age:             0,
				hits:            0,
				misses:          0,
				lastUpdateFrame: frameIndex,
			})
			tr.nextID++
			continue
		}
		if p.age > tr.cfg.PendingTrackMaxAge {
			continue
		}
		kept = append(kept, p)
	}
	tr.pendings = kept
}

// killDeadTracks removes confirmed tracks that have met any of the death
// conditions: too many consecutive misses, chronic misses on an old enough
// track, or a confidence score that has stayed low for too long. The
// low-confidence grace period shrinks once a track is also missing often.
func (tr *Tracker) killDeadTracks() {
	var kept []*track
	for _, t := range tr.tracks {
		if t.misses > tr.cfg.DeathFrames {
			continue
		}
		if t.misses >= 10 && t.age > 15 {
			continue
		}

		if confidence(t) < tr.cfg.MinConfidenceToKeep {
			t.lowConfidenceFrames++
		} else {
			t.lowConfidenceFrames = 0
		}

		threshold := tr.cfg.LowConfidenceFramesBeforeRemoval
		if t.misses >= 5 && threshold > 2 {
			threshold = 2
		}
		if t.lowConfidenceFrames >= threshold {
			continue
		}

		kept = append(kept, t)
	}
	tr.tracks = kept
}

// NumPending reports the number of unconfirmed pending tracks.
func (tr *Tracker) NumPending() int {
	return len(tr.pendings)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Package tracker implements the multi-target azimuth tracker (C7): 1D
// constant-velocity Kalman filters with nearest-neighbor gating, pending-
// track birth, and confidence-based death.
package tracker

import "github.com/arraytrack/doa/internal/dsp"

// Config holds the tracker's tuning parameters (spec.md §6, Tracker block).
type Config struct {
	Dt                               float64 // seconds per frame (hop_size / sample_rate)
	ProcessNoise                     float64 // standard deviation; q = ProcessNoise^2
	MeasurementNoise                 float64 // sigma_meas
	GateDeg                          float64
	BirthFrames                      int
	DeathFrames                      int
	PendingTrackPowerThreshold       float64
	PendingTrackMaxAge               int
	MinConfidenceForPromotion        float64
	MinHitRateForPromotion           float64
	MinConfidenceToKeep              float64
	LowConfidenceFramesBeforeRemoval int
}

// Detection is one DOA candidate handed to the tracker for a frame.
type Detection struct {
	AzimuthDeg float64
	Power      float64
}

// TrackState is the deep-copyable public view of one active track.
type TrackState struct {
	ID                  int
	AzimuthDeg          float64 // [0,360)
	AngularVelocity     float64 // deg/s
	Covariance          [2][2]float64
	Age                 int
	Hits                int
	Misses              int
	LastUpdateFrame     int
	LowConfidenceFrames int
	Confidence          float64
}

// track is the tracker's internal mutable representation. theta is kept in
// [-180,180) internally; TrackState.AzimuthDeg reports the [0,360) form.
type track struct {
	id                  int
	theta               float64
	thetaDot            float64
	p                   [2][2]float64
	age                 int
	hits                int
	misses              int
	lastUpdateFrame     int
	lowConfidenceFrames int
}

func (t *track) snapshot() TrackState {
	return TrackState{
		ID:                  t.id,
		AzimuthDeg:          dsp.WrapDeg0360(t.theta),
		AngularVelocity:     t.thetaDot,
		Covariance:          t.p,
		Age:                 t.age,
		Hits:                t.hits,
		Misses:              t.misses,
		LastUpdateFrame:     t.lastUpdateFrame,
		LowConfidenceFrames: t.lowConfidenceFrames,
		Confidence:          confidence(t),
	}
}

// pendingTrack is a birth candidate that has not yet met promotion criteria.
type pendingTrack struct {
	theta     float64
	peakPower float64
	age       int
	hits      int
	misses    int
}

package tracker

import "testing"

func defaultConfig() Config {
	return Config{
		Dt:                               0.016,
		ProcessNoise:                     4.0,
		MeasurementNoise:                 2.0,
		GateDeg:                          15,
		BirthFrames:                      3,
		DeathFrames:                      5,
		PendingTrackPowerThreshold:       0.3,
		PendingTrackMaxAge:               10,
		MinConfidenceForPromotion:        0.5,
		MinHitRateForPromotion:           0.6,
		MinConfidenceToKeep:              0.1,
		LowConfidenceFramesBeforeRemoval: 8,
	}
}

func stepN(tr *Tracker, theta float64, power float64, n, startFrame int) []TrackState {
	var out []TrackState
	for i := 0; i < n; i++ {
		out = tr.Step([]Detection{{AzimuthDeg: theta, Power: power}}, startFrame+i)
	}
	return out
}

func TestSourceIsConfirmedWithinBirthFrames(t *testing.T) {
	cfg := defaultConfig()
	tr := New(cfg)

	var states []TrackState
	for i := 0; i < cfg.BirthFrames+2; i++ {
		states = tr.Step([]Detection{{AzimuthDeg: 90, Power: 1.0}}, i)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 confirmed track after %d frames of a strong source, got %d", cfg.BirthFrames+2, len(states))
	}
	if got := states[0].AzimuthDeg; abs(got-90) > 1.0 {
		t.Fatalf("confirmed track azimuth = %v, want near 90", got)
	}
}

func TestWeakSourceNeverPromotes(t *testing.T) {
	cfg := defaultConfig()
	tr := New(cfg)
	for i := 0; i < 20; i++ {
		states := tr.Step([]Detection{{AzimuthDeg: 45, Power: 0.05}}, i)
		if len(states) != 0 {
			t.Fatalf("frame %d: weak source promoted to a confirmed track unexpectedly", i)
		}
	}
}

func TestTrackIDsAreStableAndNeverReused(t *testing.T) {
	cfg := defaultConfig()
	tr := New(cfg)

	states := stepN(tr, 0, 1.0, cfg.BirthFrames+1, 0)
	if len(states) != 1 {
		t.Fatalf("expected 1 track, got %d", len(states))
	}
	firstID := states[0].ID

	for i := 0; i < 10; i++ {
		states = tr.Step(nil, cfg.BirthFrames+1+i)
	}
	if len(states) != 0 {
		t.Fatalf("expected track to have died after %d missed frames, got %d still alive", 10, len(states))
	}

	states = stepN(tr, 0, 1.0, cfg.BirthFrames+1, 100)
	if len(states) != 1 {
		t.Fatalf("expected a fresh track after re-acquisition, got %d", len(states))
	}
	if states[0].ID == firstID {
		t.Fatalf("track ID %d was reused after death, want a new ID", firstID)
	}
}

func TestTrackDiesWithinDeathFramesOfSilence(t *testing.T) {
	cfg := defaultConfig()
	tr := New(cfg)

	states := stepN(tr, 180, 1.0, cfg.BirthFrames+1, 0)
	if len(states) != 1 {
		t.Fatalf("expected 1 track, got %d", len(states))
	}

	frame := cfg.BirthFrames + 1
	alive := true
	for i := 0; i <= cfg.DeathFrames+1; i++ {
		states = tr.Step(nil, frame+i)
		if len(states) == 0 {
			alive = false
			if i > cfg.DeathFrames {
				t.Fatalf("track survived %d missed frames, want death within death_frames=%d", i, cfg.DeathFrames)
			}
			break
		}
	}
	if alive {
		t.Fatalf("track never died after %d consecutive missed frames", cfg.DeathFrames+1)
	}
}

func TestTwoSourcesTrackedIndependently(t *testing.T) {
	cfg := defaultConfig()
	tr := New(cfg)

	var states []TrackState
	for i := 0; i < cfg.BirthFrames+2; i++ {
		states = tr.Step([]Detection{
			{AzimuthDeg: 10, Power: 1.0},
			{AzimuthDeg: 200, Power: 1.0},
		}, i)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 confirmed tracks, got %d", len(states))
	}
	if states[0].ID == states[1].ID {
		t.Fatalf("two independent sources were assigned the same track ID")
	}
}

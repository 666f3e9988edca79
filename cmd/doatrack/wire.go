package main

import (
	"fmt"

	"github.com/arraytrack/doa/internal/config"
	"github.com/arraytrack/doa/internal/dsp"
	"github.com/arraytrack/doa/internal/mcra"
	"github.com/arraytrack/doa/internal/peaks"
	"github.com/arraytrack/doa/internal/prefilter"
	"github.com/arraytrack/doa/internal/stft"
	"github.com/arraytrack/doa/internal/tracker"
)

func stftConfig(p config.Pipeline, window dsp.WindowType) stft.Config {
	return stft.Config{
		FrameSize: p.STFT.FrameSize,
		HopSize:   p.STFT.HopSize,
		Window:    window,
		FFTSize:   p.STFT.FFTSize,
	}
}

func mcraConfig(p config.Pipeline) mcra.Config {
	return mcra.Config{
		AlphaS:       p.MCRA.AlphaS,
		MinimaWindow: p.MCRA.MinimaWindow,
		Delta:        p.MCRA.Delta,
		AlphaD:       p.MCRA.AlphaD,
		Epsilon:      p.MCRA.Epsilon,
	}
}

func trackerConfig(p config.Pipeline, dt float64) tracker.Config {
	t := p.Tracker
	return tracker.Config{
		Dt:                               dt,
		ProcessNoise:                     t.ProcessNoise,
		MeasurementNoise:                 t.MeasurementNoise,
		GateDeg:                          t.GateDeg,
		BirthFrames:                      t.BirthFrames,
		DeathFrames:                      t.DeathFrames,
		PendingTrackPowerThreshold:       t.PendingTrackPowerThreshold,
		PendingTrackMaxAge:               t.PendingTrackMaxAge,
		MinConfidenceForPromotion:        t.MinConfidenceForPromotion,
		MinHitRateForPromotion:           t.MinHitRateForPromotion,
		MinConfidenceToKeep:              t.MinConfidenceToKeep,
		LowConfidenceFramesBeforeRemoval: t.LowConfidenceFramesBeforeRemoval,
	}
}

func sslPeaksConfig(p config.Pipeline) peaks.Config {
	return peaks.Config{
		MaxSources:     p.SSL.MaxSources,
		MinPower:       p.SSL.MinPeakPower,
		SuppressionDeg: p.SSL.SuppressionDeg,
	}
}

// prefilterConfig builds a *prefilter.Filter from p, or nil if the pipeline
// config doesn't enable a pre-filter stage.
func prefilterConfig(p config.Pipeline, numChannels int) (*prefilter.Filter, error) {
	if !p.Prefilter.Enabled {
		return nil, nil
	}
	kind, ok := prefilter.ParseKind(p.Prefilter.Kind)
	if !ok {
		return nil, fmt.Errorf("prefilter: unknown kind %q", p.Prefilter.Kind)
	}
	cfg := prefilter.Config{
		Kind:       kind,
		CutoffHz:   p.Prefilter.CutoffHz,
		Bandwidth:  p.Prefilter.Bandwidth,
		SampleRate: p.SampleRate,
		Q:          p.Prefilter.Q,
	}
	return prefilter.New(cfg, numChannels), nil
}

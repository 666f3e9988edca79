// Package config defines the typed configuration records for the tracking
// engine and loads the external geometry document.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arraytrack/doa/internal/geometry"
)

// STFT mirrors internal/stft.Config in config-file terms.
type STFT struct {
	FrameSize  int    `yaml:"frame_size"`
	HopSize    int    `yaml:"hop_size"`
	Window     string `yaml:"window"`
	FFTSize    int    `yaml:"fft_size"`
}

// MCRA mirrors internal/mcra.Config.
type MCRA struct {
	AlphaS       float64 `yaml:"alpha_s"`
	MinimaWindow int     `yaml:"minima_window"`
	Delta        float64 `yaml:"delta"`
	AlphaD       float64 `yaml:"alpha_d"`
	Epsilon      float64 `yaml:"epsilon"`
}

// SSL groups the source-localization stage parameters: GCC-PHAT banding,
// the azimuth grid resolution, and peak extraction.
type SSL struct {
	AzimuthResDeg    float64 `yaml:"azimuth_res_deg"`
	MinFreqHz        float64 `yaml:"min_freq_hz"`
	MaxFreqHz        float64 `yaml:"max_freq_hz"`
	GCCEpsilon       float64 `yaml:"gcc_epsilon"`
	MaxSources       int     `yaml:"max_sources"`
	MinPeakPower     float64 `yaml:"min_peak_power"`
	SuppressionDeg   float64 `yaml:"suppression_deg"`
	NearFieldEnabled bool    `yaml:"near_field_enabled"`

	UseSNRMask     bool    `yaml:"use_snr_mask"`
	SNRMaskLowDB   float64 `yaml:"snr_mask_low_db"`
	SNRMaskHighDB  float64 `yaml:"snr_mask_high_db"`

	UseFreqWeighting  bool    `yaml:"use_freq_weighting"`
	FreqWeightPeakHz  float64 `yaml:"freq_weight_peak_hz"`
	FreqWeightWidthHz float64 `yaml:"freq_weight_width_hz"`

	UsePairWeighting bool `yaml:"use_pair_weighting"`

	UseTrackingBoost      bool    `yaml:"use_tracking_boost"`
	TrackingBoostLambda   float64 `yaml:"tracking_boost_lambda"`
	TrackingBoostSigmaDeg float64 `yaml:"tracking_boost_sigma_deg"`
}

// Tracker mirrors internal/tracker.Config.
type Tracker struct {
	ProcessNoise                     float64 `yaml:"process_noise"`
	MeasurementNoise                 float64 `yaml:"measurement_noise"`
	GateDeg                          float64 `yaml:"gate_deg"`
	BirthFrames                      int     `yaml:"birth_frames"`
	DeathFrames                      int     `yaml:"death_frames"`
	PendingTrackPowerThreshold       float64 `yaml:"pending_track_power_threshold"`
	PendingTrackMaxAge               int     `yaml:"pending_track_max_age"`
	MinConfidenceForPromotion        float64 `yaml:"min_confidence_for_promotion"`
	MinHitRateForPromotion           float64 `yaml:"min_hit_rate_for_promotion"`
	MinConfidenceToKeep              float64 `yaml:"min_confidence_to_keep"`
	LowConfidenceFramesBeforeRemoval int     `yaml:"low_confidence_frames_before_removal"`
}

// Prefilter mirrors internal/prefilter.Config. Enabled defaults to false, so
// an absent or zero-value block leaves the raw signal untouched.
type Prefilter struct {
	Enabled   bool    `yaml:"enabled"`
	Kind      string  `yaml:"kind"` // "highpass" or "bandpass"
	CutoffHz  float64 `yaml:"cutoff_hz"`
	Bandwidth float64 `yaml:"bandwidth_hz"` // bandpass only
	Q         float64 `yaml:"q"`            // highpass only, 0 -> default
}

// Pipeline is the full top-level engine configuration.
type Pipeline struct {
	GeometryPath string  `yaml:"geometry_path"`
	SampleRate   float64 `yaml:"sample_rate"`
	OrientationOffsetDeg float64 `yaml:"orientation_offset_deg"`
	STFT         STFT    `yaml:"stft"`
	MCRA         MCRA    `yaml:"mcra"`
	SSL          SSL     `yaml:"ssl"`
	Tracker      Tracker `yaml:"tracker"`
	Prefilter    Prefilter `yaml:"prefilter"`
}

// LoadPipeline reads and validates a Pipeline config from a YAML file.
func LoadPipeline(path string) (Pipeline, error) {
	var p Pipeline
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if p.SampleRate <= 0 {
		return p, fmt.Errorf("config: sample_rate must be positive")
	}
	if p.STFT.FrameSize <= 0 || p.STFT.HopSize <= 0 {
		return p, fmt.Errorf("config: stft.frame_size and stft.hop_size must be positive")
	}
	return p, nil
}

// GeometryFile is the on-disk schema for an array's microphone layout.
type GeometryFile struct {
	SampleRate float64             `yaml:"sample_rate"`
	SoundSpeed float64             `yaml:"sound_speed"`
	Mics       []GeometryFileMic   `yaml:"mics"`
}

// GeometryFileMic is one microphone entry in a GeometryFile.
type GeometryFileMic struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// LoadGeometry reads a GeometryFile and builds a geometry.Geometry from it.
func LoadGeometry(path string) (*geometry.Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading geometry file %s: %w", path, err)
	}
	var gf GeometryFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("config: parsing geometry file %s: %w", path, err)
	}

	mics := make([]geometry.MicPosition, len(gf.Mics))
	for i, m := range gf.Mics {
		mics[i] = geometry.MicPosition{X: m.X, Y: m.Y, Z: m.Z}
	}

	cfg := geometry.Config{
		Mics:       mics,
		SampleRate: gf.SampleRate,
		SoundSpeed: gf.SoundSpeed,
	}
	return geometry.New(cfg)
}

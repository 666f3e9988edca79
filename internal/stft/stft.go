// Package stft implements the streaming overlap-advance short-time Fourier
// transform front end (C2). A Streamer is single-threaded: process must not
// be called concurrently, matching the pipeline's single processing thread.
package stft

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/arraytrack/doa/internal/dsp"
)

// Frame is one hop's worth of spectra across all channels: shape (M, K)
// where K = fftSize/2 + 1.
type Frame struct {
	Spectra [][]complex128 // len M, each len K
}

// Config configures a Streamer.
type Config struct {
	FrameSize  int // analysis window length in samples
	HopSize    int // 0 < hop <= frame
	Window     dsp.WindowType
	FFTSize    int // zero-padded FFT size, >= FrameSize; 0 means = FrameSize
}

// Streamer buffers per-channel samples and emits analysis frames once enough
// samples have accumulated.
type Streamer struct {
	cfg     Config
	fftSize int
	window  []float64
	fft     *fourier.FFT

	numChannels int
	channelsSet bool
	buf         [][]float64 // per-channel ring of unconsumed samples
}

// New validates cfg and constructs a Streamer. Channel count is fixed on the
// first call to Process.
func New(cfg Config) (*Streamer, error) {
	if cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("stft: frame size must be positive, got %d", cfg.FrameSize)
	}
	if cfg.HopSize <= 0 || cfg.HopSize > cfg.FrameSize {
		return nil, fmt.Errorf("stft: hop size must satisfy 0 < hop <= frame, got hop=%d frame=%d", cfg.HopSize, cfg.FrameSize)
	}
	fftSize := cfg.FFTSize
	if fftSize == 0 {
		fftSize = cfg.FrameSize
	}
	if fftSize < cfg.FrameSize {
		return nil, fmt.Errorf("stft: fft size %d must be >= frame size %d", fftSize, cfg.FrameSize)
	}

	s := &Streamer{
		cfg:     cfg,
		fftSize: fftSize,
		window:  dsp.MakeWindow(cfg.Window, cfg.FrameSize),
		fft:     fourier.NewFFT(fftSize),
	}
	return s, nil
}

// NumBins returns K = fftSize/2 + 1.
func (s *Streamer) NumBins() int { return s.fftSize/2 + 1 }

// Reset clears the internal buffer; channel count is re-learned on the next
// call to Process.
func (s *Streamer) Reset() {
	s.channelsSet = false
	s.numChannels = 0
	s.buf = nil
}

// Process appends block (shape M x n_new) to the internal buffer and emits
// every complete hop as a Frame. Channel count must stay constant across
// calls once established; a mismatch is a fail-fast error.
func (s *Streamer) Process(block [][]float64) ([]Frame, error) {
	m := len(block)
	if !s.channelsSet {
		s.numChannels = m
		s.channelsSet = true
		s.buf = make([][]float64, m)
	}
	if m != s.numChannels {
		return nil, fmt.Errorf("stft: channel count changed from %d to %d", s.numChannels, m)
	}

	for c := 0; c < m; c++ {
		s.buf[c] = append(s.buf[c], block[c]...)
	}

	if m == 0 {
		return nil, nil
	}

	var frames []Frame
	frame := s.cfg.FrameSize
	hop := s.cfg.HopSize
	for len(s.buf[0]) >= frame {
		spectra := make([][]complex128, m)
		padded := make([]float64, s.fftSize)
		for c := 0; c < m; c++ {
			for i := 0; i < frame; i++ {
				padded[i] = s.buf[c][i] * s.window[i]
			}
			for i := frame; i < s.fftSize; i++ {
				padded[i] = 0
			}
			spectra[c] = s.fft.Coefficients(nil, padded)
		}
		frames = append(frames, Frame{Spectra: spectra})

		for c := 0; c < m; c++ {
			s.buf[c] = s.buf[c][hop:]
		}
	}

	return frames, nil
}

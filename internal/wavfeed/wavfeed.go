// Package wavfeed reads a multichannel WAV file and yields it as sequential
// blocks of per-channel float64 samples, for offline testing of the
// streaming pipeline against recorded array captures.
package wavfeed

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Feed wraps a decoded WAV file and hands out fixed-size blocks.
type Feed struct {
	file       *os.File
	decoder    *wav.Decoder
	numChans   int
	sampleRate int
	blockSize  int
}

// Open opens path and validates it against expectedChannels (0 means "any").
// The returned Feed owns the underlying file and must be closed by the
// caller.
func Open(path string, expectedChannels int, blockSize int) (*Feed, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("wavfeed: block size must be positive, got %d", blockSize)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavfeed: opening %s: %w", path, err)
	}
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("wavfeed: %s is not a valid WAV file", path)
	}
	n := int(dec.NumChans)
	if expectedChannels != 0 && n != expectedChannels {
		f.Close()
		return nil, fmt.Errorf("wavfeed: %s has %d channels, expected %d", path, n, expectedChannels)
	}
	return &Feed{
		file:       f,
		decoder:    dec,
		numChans:   n,
		sampleRate: int(dec.SampleRate),
		blockSize:  blockSize,
	}, nil
}

// NumChannels returns the WAV file's channel count.
func (fd *Feed) NumChannels() int { return fd.numChans }

// SampleRate returns the WAV file's sample rate in Hz.
func (fd *Feed) SampleRate() int { return fd.sampleRate }

// Close releases the underlying file.
func (fd *Feed) Close() error { return fd.file.Close() }

// Next reads the next block of up to blockSize frames, deinterleaved into
// per-channel float64 slices in [-1, 1]. It returns io.EOF once the file is
// exhausted, possibly together with a final short block.
func (fd *Feed) Next() ([][]float64, error) {
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: fd.numChans, SampleRate: fd.sampleRate},
		Data:   make([]int, fd.blockSize*fd.numChans),
	}
	err := fd.decoder.PCMBuffer(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("wavfeed: reading PCM: %w", err)
	}
	n := len(buf.Data)
	frames := n / fd.numChans
	if frames == 0 {
		return nil, io.EOF
	}

	scale := bitDepthScale(buf.SourceBitDepth)

	out := make([][]float64, fd.numChans)
	for c := range out {
		out[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < fd.numChans; c++ {
			out[c][i] = float64(buf.Data[i*fd.numChans+c]) / scale
		}
	}

	if frames < fd.blockSize {
		return out, io.EOF
	}
	return out, nil
}

// bitDepthScale returns the full-scale divisor for 8/16/24/32 bit source
// material; any other bit depth uses the 16-bit divisor.
func bitDepthScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 0x7F
	case 16:
		return 0x7FFF
	case 24:
		return 0x7FFFFF
	case 32:
		return 0x7FFFFFFF
	default:
		return 0x7FFF
	}
}

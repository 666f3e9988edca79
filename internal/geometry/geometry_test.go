package geometry

import (
	"math"
	"testing"
)

func circularArray(n int, radiusM float64) []MicPosition {
	mics := make([]MicPosition, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		mics[i] = MicPosition{X: radiusM * math.Cos(theta), Y: radiusM * math.Sin(theta)}
	}
	return mics
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero sample rate", Config{Mics: circularArray(4, 0.032), SampleRate: 0}},
		{"negative sample rate", Config{Mics: circularArray(4, 0.032), SampleRate: -16000}},
		{"too few mics", Config{Mics: circularArray(1, 0.032), SampleRate: 16000}},
		{"negative sound speed", Config{Mics: circularArray(4, 0.032), SampleRate: 16000, SoundSpeed: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

func TestApertureWarnings(t *testing.T) {
	g, err := New(Config{Mics: circularArray(4, 0.001), SampleRate: 16000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Warnings) == 0 {
		t.Fatal("expected aperture-too-small warning")
	}
}

func Test4MicCircularArrayPairs(t *testing.T) {
	g, err := New(Config{Mics: circularArray(4, 0.032), SampleRate: 16000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Pairs) != 6 {
		t.Fatalf("expected 6 pairs for 4 mics, got %d", len(g.Pairs))
	}
}

func TestTDOASymmetry(t *testing.T) {
	g, err := New(Config{Mics: circularArray(4, 0.032), SampleRate: 16000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	grid := make([]float64, 360)
	for i := range grid {
		grid[i] = float64(i)
	}
	lut, err := NewLUT(g, grid, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range g.Pairs {
		ij, _ := lut.DelaysSeconds(p.I, p.J)
		ji, _ := lut.DelaysSeconds(p.J, p.I)
		for a := range grid {
			if math.Abs(ij[a]+ji[a]) > 1e-4 {
				t.Fatalf("pair (%d,%d) grid[%d]: tau_ij=%v tau_ji=%v not antisymmetric", p.I, p.J, a, ij[a], ji[a])
			}
		}
	}
}

func TestLUTRejectsBadGrid(t *testing.T) {
	g, _ := New(Config{Mics: circularArray(4, 0.032), SampleRate: 16000})
	if _, err := NewLUT(g, nil, false); err == nil {
		t.Fatal("expected error for empty grid")
	}
	if _, err := NewLUT(g, []float64{10, 5}, false); err == nil {
		t.Fatal("expected error for non-monotonic grid")
	}
	if _, err := NewLUT(g, []float64{-1, 10}, false); err == nil {
		t.Fatal("expected error for out-of-range grid value")
	}
}

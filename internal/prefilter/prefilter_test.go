package prefilter

import (
	"math"
	"testing"
)

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func tone(freqHz, fs float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freqHz * float64(i) / fs)
	}
	return out
}

func TestHighpassAttenuatesLowFrequency(t *testing.T) {
	fs := 16000.0
	f := New(Config{Kind: KindHighpass, CutoffHz: 300, SampleRate: fs}, 1)

	low := tone(50, fs, 8000)
	high := tone(2000, fs, 8000)

	block := [][]float64{append([]float64(nil), low...)}
	f.Process(block)
	lowOut := rms(block[len(block)-1][2000:]) // skip transient

	f2 := New(Config{Kind: KindHighpass, CutoffHz: 300, SampleRate: fs}, 1)
	block2 := [][]float64{append([]float64(nil), high...)}
	f2.Process(block2)
	highOut := rms(block2[0][2000:])

	if lowOut >= 0.2*rms(low[2000:]) {
		t.Fatalf("50 Hz tone insufficiently attenuated: in rms %v, out rms %v", rms(low[2000:]), lowOut)
	}
	if highOut <= 0.7*rms(high[2000:]) {
		t.Fatalf("2000 Hz tone over-attenuated: in rms %v, out rms %v", rms(high[2000:]), highOut)
	}
}

func TestResetClearsState(t *testing.T) {
	f := New(Config{Kind: KindHighpass, CutoffHz: 300, SampleRate: 16000}, 1)
	block := [][]float64{tone(50, 16000, 100)}
	f.Process(block)
	f.Reset()
	if f.states[0] != ([2]float64{}) {
		t.Fatalf("expected zeroed state after Reset, got %v", f.states[0])
	}
}

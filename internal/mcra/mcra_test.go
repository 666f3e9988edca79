package mcra

import "testing"

func defaultConfig() Config {
	return Config{AlphaS: 0.8, MinimaWindow: 8, Delta: 1.5, AlphaD: 0.95, Epsilon: 1e-10}
}

func TestFirstCallInitializes(t *testing.T) {
	e := New(defaultConfig(), 4)
	p := []float64{1, 2, 3, 4}
	n := e.Update(p)
	for k := range p {
		want := defaultConfig().Delta * p[k]
		if n[k] != want {
			t.Fatalf("bin %d: got %v want %v", k, n[k], want)
		}
	}
	if !e.Initialized() {
		t.Fatal("expected Initialized() true after first Update")
	}
}

func TestSteadyStateTracksQuietFloor(t *testing.T) {
	e := New(defaultConfig(), 1)
	for i := 0; i < 200; i++ {
		e.Update([]float64{1.0})
	}
	n := e.Noise()[0]
	if n < 0.5 || n > 3.0 {
		t.Fatalf("noise estimate %v drifted far from steady input level 1.0", n)
	}
}

func TestTransientDoesNotCollapseNoiseFloor(t *testing.T) {
	e := New(defaultConfig(), 1)
	for i := 0; i < 50; i++ {
		e.Update([]float64{1.0})
	}
	before := e.Noise()[0]
	// A burst shorter than the minima window (8 frames) leaves older minima
	// candidates in the ring, so the ring minimum stays at the quiet floor.
	for i := 0; i < 5; i++ {
		e.Update([]float64{100.0}) // transient burst
	}
	after := e.Noise()[0]
	if after > before*3 {
		t.Fatalf("noise floor jumped from %v to %v during a short transient", before, after)
	}
}

func TestReset(t *testing.T) {
	e := New(defaultConfig(), 2)
	e.Update([]float64{5, 5})
	e.Update([]float64{5, 5})
	e.Reset()
	if e.Initialized() {
		t.Fatal("expected Initialized() false after Reset")
	}
	n := e.Update([]float64{2, 2})
	if n[0] != defaultConfig().Delta*2 {
		t.Fatalf("expected re-initialization behavior after reset, got %v", n[0])
	}
}

package dsp

import (
	"math"
	"testing"
)

func TestWrapDegRange(t *testing.T) {
	for _, x := range []float64{-725, -360, -180.0001, -1, 0, 179.999, 180, 360, 725, 1e6} {
		w := WrapDeg(x)
		if w < -180 || w >= 180 {
			t.Fatalf("WrapDeg(%v) = %v out of [-180,180)", x, w)
		}
	}
}

func TestWrapDeg0360Range(t *testing.T) {
	for _, x := range []float64{-725, -360, -1, 0, 359.999, 360, 725, 1e6} {
		w := WrapDeg0360(x)
		if w < 0 || w >= 360 {
			t.Fatalf("WrapDeg0360(%v) = %v out of [0,360)", x, w)
		}
	}
}

func TestWrapIdentity(t *testing.T) {
	for _, x := range []float64{-725, -360, -1, 0, 179.999, 180, 360, 725} {
		got := WrapDeg0360(WrapDeg(x))
		want := WrapDeg0360(x)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("WrapDeg0360(WrapDeg(%v)) = %v, want %v", x, got, want)
		}
	}
}

func TestCircDistBound(t *testing.T) {
	cases := [][2]float64{{0, 0}, {10, 350}, {-170, 170}, {0, 180}, {45, 225}}
	for _, c := range cases {
		d := CircDist(c[0], c[1])
		if math.Abs(d) > 180.0001 {
			t.Fatalf("CircDist(%v,%v) = %v, |d| > 180", c[0], c[1], d)
		}
	}
}

func TestCircDistAntisymmetric(t *testing.T) {
	cases := [][2]float64{{0, 0}, {10, 350}, {-170, 170}, {30, 100}}
	for _, c := range cases {
		d1 := CircDist(c[0], c[1])
		d2 := CircDist(c[1], c[0])
		// antisymmetric except at the -180/180 edge, where both sides report +180.
		if math.Abs(d1+d2) > 1e-9 && math.Abs(math.Abs(d1)-180) > 1e-9 {
			t.Fatalf("CircDist(%v,%v)=%v not antisymmetric with CircDist(%v,%v)=%v", c[0], c[1], d1, c[1], c[0], d2)
		}
	}
}

func TestSanitizeFinite(t *testing.T) {
	if SanitizeFinite(math.NaN()) != 0 {
		t.Fatal("NaN not sanitized")
	}
	if SanitizeFinite(math.Inf(1)) != 0 {
		t.Fatal("+Inf not sanitized")
	}
	if SanitizeFinite(math.Inf(-1)) != 0 {
		t.Fatal("-Inf not sanitized")
	}
	if SanitizeFinite(3.5) != 3.5 {
		t.Fatal("finite value altered")
	}
}

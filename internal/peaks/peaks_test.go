package peaks

import (
	"math"
	"testing"

	"github.com/arraytrack/doa/internal/dsp"
)

func gridAndPower(n int, peaksDeg []float64, peakHeight float64, width float64) ([]float64, []float64) {
	az := make([]float64, n)
	p := make([]float64, n)
	for i := 0; i < n; i++ {
		az[i] = float64(i) * 360.0 / float64(n)
	}
	for i := 0; i < n; i++ {
		for _, pk := range peaksDeg {
			d := dsp.CircDist(az[i], pk)
			p[i] += peakHeight * math.Exp(-0.5*d*d/(width*width))
		}
	}
	return p, az
}

func TestNoTwoCandidatesWithinSuppression(t *testing.T) {
	p, az := gridAndPower(360, []float64{10, 15, 90, 200}, 1.0, 3.0)
	cands := Extract(p, az, Config{MaxSources: 8, MinPower: 0.01, SuppressionDeg: 20})
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			d := dsp.CircDist(cands[i].AzimuthDeg, cands[j].AzimuthDeg)
			if math.Abs(d) <= 20 {
				t.Fatalf("candidates %v and %v are within suppression distance (%v deg)", cands[i], cands[j], d)
			}
		}
	}
}

func TestMinPowerStopsExtraction(t *testing.T) {
	p, az := gridAndPower(360, []float64{45}, 0.5, 3.0)
	cands := Extract(p, az, Config{MaxSources: 5, MinPower: 10.0, SuppressionDeg: 5})
	if len(cands) != 0 {
		t.Fatalf("expected no candidates above an unreachable min power, got %d", len(cands))
	}
}

func TestMaxSourcesRespected(t *testing.T) {
	p, az := gridAndPower(360, []float64{0, 60, 120, 180, 240, 300}, 1.0, 2.0)
	cands := Extract(p, az, Config{MaxSources: 3, MinPower: 0.01, SuppressionDeg: 5})
	if len(cands) != 3 {
		t.Fatalf("expected exactly 3 candidates, got %d", len(cands))
	}
}

func TestSortedDescendingPower(t *testing.T) {
	p, az := gridAndPower(360, []float64{0, 90}, 1.0, 2.0)
	p[90] *= 2 // make the second peak stronger
	cands := Extract(p, az, Config{MaxSources: 5, MinPower: 0.01, SuppressionDeg: 5})
	for i := 1; i < len(cands); i++ {
		if cands[i].Power > cands[i-1].Power {
			t.Fatalf("candidates not sorted descending: %v", cands)
		}
	}
}

func TestSanitizesNonFiniteInput(t *testing.T) {
	p := []float64{math.NaN(), math.Inf(1), 5.0, math.Inf(-1)}
	az := []float64{0, 90, 180, 270}
	cands := Extract(p, az, Config{MaxSources: 5, MinPower: 0.01, SuppressionDeg: 5})
	if len(cands) != 1 || cands[0].AzimuthDeg != 180 {
		t.Fatalf("expected a single candidate at 180 deg, got %v", cands)
	}
}

func TestEmptyResultPermitted(t *testing.T) {
	p := make([]float64, 10)
	az := make([]float64, 10)
	cands := Extract(p, az, Config{MaxSources: 5, MinPower: 0.01, SuppressionDeg: 5})
	if cands != nil {
		t.Fatalf("expected nil/empty result for all-zero power, got %v", cands)
	}
}

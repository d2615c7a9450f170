package quant

import (
	"math/rand"
	"testing"

	"PairScout/internal/domain/models"
)

func TestHurstRandomWalkNearHalf(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	xs := make([]float64, 1000)
	for i := 1; i < len(xs); i++ {
		xs[i] = xs[i-1] + rng.NormFloat64()
	}

	res := Hurst(xs)
	if !res.Valid {
		t.Fatalf("expected valid result")
	}
	if res.H < 0.42 || res.H > 0.62 {
		t.Fatalf("random walk H = %v, want near 0.5", res.H)
	}
}

func TestHurstMeanRevertingBelowRandomWalk(t *testing.T) {
	ou := ar1Series(0.5, 1, 1000, 22)

	rng := rand.New(rand.NewSource(23))
	rw := make([]float64, 1000)
	for i := 1; i < len(rw); i++ {
		rw[i] = rw[i-1] + rng.NormFloat64()
	}

	ouRes := Hurst(ou)
	rwRes := Hurst(rw)
	if !ouRes.Valid || !rwRes.Valid {
		t.Fatalf("expected valid results")
	}
	if ouRes.H >= 0.45 {
		t.Fatalf("OU spread H = %v, want < 0.45", ouRes.H)
	}
	if ouRes.H >= rwRes.H {
		t.Fatalf("OU H %v should be below random walk H %v", ouRes.H, rwRes.H)
	}
}

func TestHurstTooShort(t *testing.T) {
	if res := Hurst(make([]float64, 15)); res.Valid {
		t.Fatalf("expected invalid result for short series")
	}
}

func TestHurstFlatSeries(t *testing.T) {
	xs := make([]float64, 200)
	for i := range xs {
		xs[i] = 1
	}
	if res := Hurst(xs); res.Valid {
		t.Fatalf("expected invalid result for flat series, got H=%v", res.H)
	}
}

func TestClassifyHurstBands(t *testing.T) {
	cases := []struct {
		h          float64
		want       string
		borderline bool
	}{
		{0.30, models.HurstStrongReversion, false},
		{0.42, models.HurstMeanReverting, false},
		{0.47, models.HurstMeanReverting, true},
		{0.52, models.HurstRandomWalk, false},
		{0.60, models.HurstWeakTrend, false},
		{0.75, models.HurstTrending, false},
	}
	for _, c := range cases {
		cls, borderline := classifyHurst(c.h)
		if cls != c.want || borderline != c.borderline {
			t.Fatalf("classifyHurst(%v) = %q/%v, want %q/%v", c.h, cls, borderline, c.want, c.borderline)
		}
	}
}

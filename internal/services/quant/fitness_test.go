package quant

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestAnalyzeFitnessIdenticalSeries(t *testing.T) {
	p := make([]float64, 60)
	rng := rand.New(rand.NewSource(7))
	p[0] = 100
	for i := 1; i < len(p); i++ {
		p[i] = p[i-1] * (1 + 0.01*rng.NormFloat64())
	}

	f, err := AnalyzeFitness(p, p, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(f.Correlation-1) > 1e-9 {
		t.Fatalf("correlation = %v, want 1", f.Correlation)
	}
	if math.Abs(f.Beta-1) > 1e-9 {
		t.Fatalf("beta = %v, want 1", f.Beta)
	}
}

func TestAnalyzeFitnessCorrelationBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 20; trial++ {
		p1 := randomWalkPrices(rng, 80)
		p2 := randomWalkPrices(rng, 80)
		f, err := AnalyzeFitness(p1, p2, 30)
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		if f.Correlation < -1 || f.Correlation > 1 {
			t.Fatalf("trial %d: correlation %v out of [-1,1]", trial, f.Correlation)
		}
	}
}

func TestAnalyzeFitnessConstantAsset2(t *testing.T) {
	p1 := randomWalkPrices(rand.New(rand.NewSource(3)), 50)
	p2 := make([]float64, 50)
	for i := range p2 {
		p2[i] = 42.0
	}

	f, err := AnalyzeFitness(p1, p2, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Beta != 0 {
		t.Fatalf("beta = %v, want 0 for zero-variance reference", f.Beta)
	}
	if math.IsNaN(f.Beta) || math.IsNaN(f.Correlation) {
		t.Fatalf("NaN leaked: beta=%v corr=%v", f.Beta, f.Correlation)
	}
}

func TestAnalyzeFitnessTooShort(t *testing.T) {
	p := []float64{1, 2, 3}
	_, err := AnalyzeFitness(p, p, 30)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestAnalyzeFitnessLengthMismatch(t *testing.T) {
	p1 := make([]float64, 20)
	p2 := make([]float64, 19)
	for i := range p1 {
		p1[i] = float64(i + 1)
	}
	for i := range p2 {
		p2[i] = float64(i + 1)
	}
	if _, err := AnalyzeFitness(p1, p2, 30); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestAnalyzeFitnessNonPositivePrice(t *testing.T) {
	p1 := randomWalkPrices(rand.New(rand.NewSource(5)), 30)
	p2 := randomWalkPrices(rand.New(rand.NewSource(6)), 30)
	p2[10] = 0
	if _, err := AnalyzeFitness(p1, p2, 30); !errors.Is(err, ErrDegenerateSeries) {
		t.Fatalf("err = %v, want ErrDegenerateSeries", err)
	}
}

func TestRollingZFlatSpread(t *testing.T) {
	spread := make([]float64, 40)
	for i := range spread {
		spread[i] = 0.5
	}
	if _, valid := RollingZ(spread, 30); valid {
		t.Fatalf("z-score reported valid for zero-variance spread")
	}
}

func TestRollingZSignConvention(t *testing.T) {
	spread := make([]float64, 30)
	for i := range spread {
		spread[i] = float64(i%5) * 0.01
	}
	spread[len(spread)-1] = -1 // far below the window mean
	z, valid := RollingZ(spread, 30)
	if !valid {
		t.Fatalf("expected valid z")
	}
	if z >= 0 {
		t.Fatalf("z = %v, want negative for point below the mean", z)
	}
}

func TestRollingZSeriesLengthAndFlat(t *testing.T) {
	spread := []float64{1, 1, 1, 1, 1}
	zs := RollingZSeries(spread, 3)
	if len(zs) != len(spread) {
		t.Fatalf("len = %d, want %d", len(zs), len(spread))
	}
	for i, z := range zs {
		if z != 0 {
			t.Fatalf("index %d: z = %v, want 0 for flat spread", i, z)
		}
	}
}

func randomWalkPrices(rng *rand.Rand, n int) []float64 {
	p := make([]float64, n)
	p[0] = 100
	for i := 1; i < n; i++ {
		p[i] = p[i-1] * (1 + 0.005*rng.NormFloat64())
	}
	return p
}

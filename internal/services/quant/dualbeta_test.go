package quant

import (
	"math"
	"math/rand"
	"testing"
)

func TestDualBetaStableRelationship(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	n := 120
	p2 := randomWalkPrices(rng, n)
	p1 := make([]float64, n)
	p1[0] = 50
	for i := 1; i < n; i++ {
		r2 := p2[i]/p2[i-1] - 1
		p1[i] = p1[i-1] * (1 + 1.5*r2 + 0.0005*rng.NormFloat64())
	}

	res := DualBeta(p1, p2, 120, 30)
	if !res.Valid {
		t.Fatalf("expected valid result")
	}
	if math.Abs(res.StructuralBeta-1.5) > 0.15 {
		t.Fatalf("structural beta = %v, want ~1.5", res.StructuralBeta)
	}
	if res.Drift > 0.15 {
		t.Fatalf("drift = %v, want small for a stable relationship", res.Drift)
	}
	if res.RSquared < 0.9 {
		t.Fatalf("r-squared = %v, want high for a near-deterministic link", res.RSquared)
	}
}

func TestDualBetaDetectsRegimeShift(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 120
	p2 := randomWalkPrices(rng, n)
	p1 := make([]float64, n)
	p1[0] = 50
	for i := 1; i < n; i++ {
		r2 := p2[i]/p2[i-1] - 1
		beta := 1.0
		if i > n-25 { // hedge ratio doubles in the recent window
			beta = 2.0
		}
		p1[i] = p1[i-1] * (1 + beta*r2)
	}

	res := DualBeta(p1, p2, 120, 25)
	if !res.Valid {
		t.Fatalf("expected valid result")
	}
	if res.Drift < 0.2 {
		t.Fatalf("drift = %v, want substantial after a hedge-ratio shift", res.Drift)
	}
	if res.DynamicBeta <= res.StructuralBeta {
		t.Fatalf("dynamic %v should exceed structural %v", res.DynamicBeta, res.StructuralBeta)
	}
}

func TestDualBetaDegenerateInput(t *testing.T) {
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 10
	}
	p1 := randomWalkPrices(rand.New(rand.NewSource(43)), 60)
	if res := DualBeta(p1, flat, 60, 20); res.Valid {
		t.Fatalf("expected invalid result for zero-variance reference")
	}
	if res := DualBeta(p1[:5], flat[:5], 60, 20); res.Valid {
		t.Fatalf("expected invalid result for short input")
	}
}

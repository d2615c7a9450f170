package quant

import (
	"math"
	"math/rand"
	"testing"
)

func ar1Series(phi float64, sigma float64, n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	xs := make([]float64, n)
	xs[0] = 1
	for i := 1; i < n; i++ {
		xs[i] = phi*xs[i-1] + sigma*rng.NormFloat64()
	}
	return xs
}

func TestEstimateHalfLifeAR1Phi08(t *testing.T) {
	spread := ar1Series(0.8, 0, 50, 1)
	hl := EstimateHalfLife([]SpreadWindow{{Days: 50, Spread: spread}})
	if !hl.Valid {
		t.Fatalf("expected valid half-life")
	}
	want := -math.Ln2 / math.Log(0.8) // ~3.106
	if math.Abs(hl.Days-want) > 0.05 {
		t.Fatalf("half-life = %v, want ~%v", hl.Days, want)
	}
	if hl.Method != "ar1" {
		t.Fatalf("method = %q, want ar1", hl.Method)
	}
}

func TestEstimateHalfLifeNoisyAR1(t *testing.T) {
	spread := ar1Series(0.8, 0.2, 600, 2)
	hl := EstimateHalfLife([]SpreadWindow{{Days: 600, Spread: spread}})
	if !hl.Valid {
		t.Fatalf("expected valid half-life")
	}
	if hl.Days < 2 || hl.Days > 5 {
		t.Fatalf("half-life = %v, want within [2,5] for phi=0.8", hl.Days)
	}
}

func TestEstimateHalfLifeStructuralWindowFirst(t *testing.T) {
	spread := ar1Series(0.7, 0.1, 200, 3)
	hl := EstimateHalfLife([]SpreadWindow{
		{Days: 200, Spread: spread},
		{Days: 60, Spread: tail(spread, 60)},
	})
	if !hl.Valid {
		t.Fatalf("expected valid half-life")
	}
	if hl.Window != 200 {
		t.Fatalf("window = %d, want the structural window 200", hl.Window)
	}
}

func TestEstimateHalfLifeNeverNaN(t *testing.T) {
	cases := [][]float64{
		nil,
		{1, 2},
		make([]float64, 40), // all zeros
		ar1Series(1.0, 0.3, 100, 4),  // random walk, no reversion expected
		ar1Series(0.99, 0.0, 100, 5), // near unit root, clean
	}
	for i, spread := range cases {
		hl := EstimateHalfLife([]SpreadWindow{{Days: len(spread), Spread: spread}})
		if math.IsNaN(hl.Days) || math.IsInf(hl.Days, 0) {
			t.Fatalf("case %d: half-life is not finite: %v", i, hl.Days)
		}
		if hl.Valid && hl.Days <= 0 {
			t.Fatalf("case %d: valid result with non-positive days %v", i, hl.Days)
		}
	}
}

func TestEstimateHalfLifeSentinelOnNoReversion(t *testing.T) {
	// sign-flipping growing series: phi is negative for every estimator
	xs := make([]float64, 60)
	for i := range xs {
		xs[i] = float64(1 + i)
		if i%2 == 1 {
			xs[i] = -xs[i]
		}
	}
	hl := EstimateHalfLife([]SpreadWindow{{Days: 60, Spread: xs}})
	if hl.Valid {
		t.Fatalf("expected no-reversion sentinel, got %+v", hl)
	}
}

func TestSimpleHalfLifeFastPath(t *testing.T) {
	spread := ar1Series(0.85, 0, 40, 6)
	hl := SimpleHalfLife(spread)
	if !hl.Valid {
		t.Fatalf("expected valid result")
	}
	want := -math.Ln2 / math.Log(0.85)
	if math.Abs(hl.Days-want) > 0.1 {
		t.Fatalf("half-life = %v, want ~%v", hl.Days, want)
	}
}

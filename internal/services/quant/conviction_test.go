package quant

import (
	"testing"

	"PairScout/internal/domain/models"
)

func TestScoreConvictionClampedToRange(t *testing.T) {
	w := DefaultConvictionWeights()

	best := ConvictionInput{
		Correlation:  1,
		RSquared:     1,
		HalfLife:     models.HalfLife{Days: 1, Valid: true},
		Hurst:        models.HurstResult{H: 0, Valid: true},
		Cointegrated: true,
	}
	c := ScoreConviction(best, w)
	if c.Score < 0 || c.Score > 100 {
		t.Fatalf("score %v out of [0,100]", c.Score)
	}

	worst := ConvictionInput{
		Correlation: 0,
		Hurst:       models.HurstResult{H: 1, Valid: true},
		BetaDrift:   10,
	}
	c = ScoreConviction(worst, w)
	if c.Score != 0 {
		t.Fatalf("score %v, want 0 after clamping", c.Score)
	}
}

func TestScoreConvictionFactorSigns(t *testing.T) {
	w := DefaultConvictionWeights()
	in := ConvictionInput{
		Correlation:  0.8,
		RSquared:     0.6,
		HalfLife:     models.HalfLife{Days: 10, Valid: true},
		Hurst:        models.HurstResult{H: 0.35, Valid: true},
		Cointegrated: true,
		BetaDrift:    0.2,
	}
	c := ScoreConviction(in, w)
	f := c.Factors
	if f.Correlation <= 0 || f.RSquared <= 0 || f.HalfLife <= 0 || f.Hurst <= 0 || f.Cointegration <= 0 {
		t.Fatalf("positive signals scored non-positive: %+v", f)
	}
	if f.BetaDrift >= 0 {
		t.Fatalf("drift penalty should be negative, got %v", f.BetaDrift)
	}
	sum := f.Correlation + f.RSquared + f.HalfLife + f.Hurst + f.Cointegration + f.BetaDrift
	if sum != c.Score {
		t.Fatalf("breakdown sum %v != score %v", sum, c.Score)
	}
}

func TestScoreConvictionInvalidInputsScoreZeroFactor(t *testing.T) {
	w := DefaultConvictionWeights()
	in := ConvictionInput{
		Correlation: 0.5,
		HalfLife:    models.HalfLife{},   // no detectable reversion
		Hurst:       models.HurstResult{}, // invalid
	}
	c := ScoreConviction(in, w)
	if c.Factors.HalfLife != 0 {
		t.Fatalf("invalid half-life contributed %v", c.Factors.HalfLife)
	}
	if c.Factors.Hurst != 0 {
		t.Fatalf("invalid hurst contributed %v", c.Factors.Hurst)
	}
}

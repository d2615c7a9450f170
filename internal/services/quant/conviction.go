package quant

import (
	"math"

	"PairScout/internal/domain/models"
)

// ConvictionInput are the fitness signals feeding the composite score.
type ConvictionInput struct {
	Correlation  float64
	RSquared     float64
	HalfLife     models.HalfLife
	Hurst        models.HurstResult
	Cointegrated bool
	BetaDrift    float64
}

// ConvictionWeights sizes each factor's contribution. They are configuration,
// not derived constants.
type ConvictionWeights struct {
	Correlation   float64 `yaml:"correlation"`
	RSquared      float64 `yaml:"r_squared"`
	HalfLife      float64 `yaml:"half_life"`
	Hurst         float64 `yaml:"hurst"`
	Cointegration float64 `yaml:"cointegration"`
	BetaDrift     float64 `yaml:"beta_drift"`

	HalfLifeCap float64 `yaml:"half_life_cap"` // days where the half-life factor reaches zero
	DriftCap    float64 `yaml:"drift_cap"`     // drift where the penalty saturates
}

// DefaultConvictionWeights mirror the tuned production values.
func DefaultConvictionWeights() ConvictionWeights {
	return ConvictionWeights{
		Correlation:   25,
		RSquared:      15,
		HalfLife:      20,
		Hurst:         20,
		Cointegration: 10,
		BetaDrift:     15,
		HalfLifeCap:   30,
		DriftCap:      0.3,
	}
}

// ScoreConviction combines the signals into a 0-100 score and keeps the
// signed per-factor breakdown for explainability.
func ScoreConviction(in ConvictionInput, w ConvictionWeights) models.Conviction {
	var f models.ConvictionFactors

	f.Correlation = w.Correlation * clamp(math.Abs(in.Correlation), 0, 1)
	f.RSquared = w.RSquared * clamp(in.RSquared, 0, 1)

	if in.HalfLife.Valid && w.HalfLifeCap > 0 {
		f.HalfLife = w.HalfLife * clamp(1-in.HalfLife.Days/w.HalfLifeCap, 0, 1)
	}

	if in.Hurst.Valid {
		// distance below 0.5 scores positively, above negatively
		f.Hurst = w.Hurst * clamp((0.5-in.Hurst.H)/0.5, -1, 1)
	}

	if in.Cointegrated {
		f.Cointegration = w.Cointegration
	}

	if w.DriftCap > 0 {
		f.BetaDrift = -w.BetaDrift * clamp(in.BetaDrift/w.DriftCap, 0, 1)
	}

	score := f.Correlation + f.RSquared + f.HalfLife + f.Hurst + f.Cointegration + f.BetaDrift
	return models.Conviction{Score: clamp(score, 0, 100), Factors: f}
}

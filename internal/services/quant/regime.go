package quant

import (
	"math"

	"PairScout/internal/domain/models"
)

// RegimeInput carries everything the classifier looks at: the current
// z-score, the pair's calibrated entry threshold, a short recent z history
// (oldest first) and the current Hurst estimate.
type RegimeInput struct {
	Z          float64
	ZValid     bool
	Threshold  float64
	RecentZ    []float64
	Hurst      float64
	HurstValid bool
}

// ClassifyRegime maps the z-score trajectory to a qualitative state with a
// recommended action, confirmed or contradicted by Hurst.
func ClassifyRegime(in RegimeInput) models.Regime {
	if !in.ZValid || in.Threshold <= 0 {
		return models.Regime{State: models.RegimeIdle, Action: "wait", Risk: "low"}
	}

	absZ := math.Abs(in.Z)
	trending := in.HurstValid && in.Hurst >= 0.5
	moving := zMovement(in.RecentZ)

	switch {
	case absZ < 0.5*in.Threshold:
		return models.Regime{State: models.RegimeIdle, Action: "wait", Risk: "low"}

	case absZ < in.Threshold:
		if trending {
			return models.Regime{State: models.RegimeTrending, Action: "caution", Risk: "high"}
		}
		return models.Regime{State: models.RegimeMildReversion, Action: "wait", Risk: "medium"}

	default:
		if trending {
			return models.Regime{State: models.RegimeTrending, Action: "caution", Risk: "high"}
		}
		if moving > 0 {
			// still diverging past the threshold
			return models.Regime{State: models.RegimePeakDivergence, Action: "wait", Risk: "high"}
		}
		return models.Regime{State: models.RegimeStrongReversion, Action: "enter", Risk: "medium"}
	}
}

// zMovement returns >0 when |z| has been growing over the recent history,
// <0 when shrinking.
func zMovement(recent []float64) float64 {
	if len(recent) < 2 {
		return 0
	}
	first := math.Abs(recent[0])
	last := math.Abs(recent[len(recent)-1])
	return last - first
}

package quant

import (
	"math"

	"PairScout/internal/domain/models"
)

// DualBeta fits a structural hedge ratio over the long window with equal
// weighting and a dynamic one over the short window with recency weighting,
// then reports their normalized gap as drift. Drift is informational at scan
// time and a continuously-recomputed risk signal while a trade is open.
func DualBeta(p1, p2 []float64, structuralWindow, dynamicWindow int) models.DualBetaResult {
	var res models.DualBetaResult
	if len(p1) != len(p2) || len(p1) < minHalfLifePoints {
		return res
	}

	r1 := SimpleReturns(tail(p1, structuralWindow))
	r2 := SimpleReturns(tail(p2, structuralWindow))
	slope, _, r2fit, ok := olsFit(r2, r1)
	if !ok {
		return res
	}
	res.StructuralBeta = slope
	res.RSquared = r2fit

	d1 := SimpleReturns(tail(p1, dynamicWindow))
	d2 := SimpleReturns(tail(p2, dynamicWindow))
	dyn, ok := recencyWeightedBeta(d1, d2)
	if !ok {
		return res
	}
	res.DynamicBeta = dyn

	denom := math.Abs(res.StructuralBeta)
	if denom < 1e-9 {
		denom = 1e-9
	}
	res.Drift = math.Abs(res.DynamicBeta-res.StructuralBeta) / denom
	res.Valid = true
	return res
}

// recencyWeightedBeta fits the hedge ratio with exponentially increasing
// weight toward the latest observations.
func recencyWeightedBeta(r1, r2 []float64) (float64, bool) {
	n := len(r1)
	if n < 2 || n != len(r2) {
		return 0, false
	}
	const decay = 0.94
	w := make([]float64, n)
	wt := 1.0
	for i := n - 1; i >= 0; i-- {
		w[i] = wt
		wt *= decay
	}
	return weightedSlope(r2, r1, w)
}

package quant

import (
	"math"

	"PairScout/internal/domain/models"
)

// SpreadWindow is one beta window's spread series for the estimator chain.
// Windows are tried longest (structural) first.
type SpreadWindow struct {
	Days   int
	Spread []float64
}

const minHalfLifePoints = 10

// halfLifeMethod is one independent pure estimator in the fallback chain.
type halfLifeMethod struct {
	name string
	fn   func(spread []float64) (float64, bool)
}

var halfLifeMethods = []halfLifeMethod{
	{"ar1", halfLifeAR1},
	{"acf_norm", halfLifeACFNorm},
	{"acf_diff", halfLifeACFDiff},
}

// EstimateHalfLife runs the estimator chain: for each window (structural
// first) each method is tried in priority order and the first valid result
// wins. When nothing converges the fast-path single-method computation is
// attempted on the longest window, else the "no detectable reversion"
// sentinel is returned. The result is never NaN.
func EstimateHalfLife(windows []SpreadWindow) models.HalfLife {
	for _, w := range windows {
		if len(w.Spread) < minHalfLifePoints {
			continue
		}
		for _, m := range halfLifeMethods {
			if days, ok := m.fn(w.Spread); ok {
				return models.HalfLife{Days: days, Method: m.name, Window: w.Days, Valid: true}
			}
		}
	}
	if len(windows) > 0 {
		if hl := SimpleHalfLife(windows[0].Spread); hl.Valid {
			hl.Window = windows[0].Days
			return hl
		}
	}
	return models.HalfLife{}
}

// SimpleHalfLife is the single-method fast path: AR(1) on the whole series.
func SimpleHalfLife(spread []float64) models.HalfLife {
	if len(spread) < minHalfLifePoints {
		return models.HalfLife{}
	}
	if days, ok := halfLifeAR1(spread); ok {
		return models.HalfLife{Days: days, Method: "ar1", Window: len(spread), Valid: true}
	}
	return models.HalfLife{}
}

// halfLifeAR1 regresses spread[t] on spread[t-1]; the slope phi maps to
// half-life -ln2/ln(phi), valid only for 0 < phi < 1.
func halfLifeAR1(spread []float64) (float64, bool) {
	n := len(spread)
	x := spread[:n-1]
	y := spread[1:]
	phi, _, _, ok := olsFit(x, y)
	if !ok {
		return 0, false
	}
	return phiToHalfLife(phi)
}

// halfLifeACFNorm uses the full-variance-normalized lag-1 autocorrelation of
// the spread itself as the AR coefficient.
func halfLifeACFNorm(spread []float64) (float64, bool) {
	rho, ok := lag1Autocorr(spread)
	if !ok {
		return 0, false
	}
	return phiToHalfLife(rho)
}

// halfLifeACFDiff recovers phi from the lag-1 autocorrelation of the first
// differences: for an AR(1) spread, corr(dx_t, dx_{t-1}) = -(1-phi)/2.
func halfLifeACFDiff(spread []float64) (float64, bool) {
	d := diff(spread)
	rho, ok := lag1Autocorr(d)
	if !ok {
		return 0, false
	}
	return phiToHalfLife(1 + 2*rho)
}

func phiToHalfLife(phi float64) (float64, bool) {
	if phi <= 0 || phi >= 1 {
		return 0, false
	}
	hl := -math.Ln2 / math.Log(phi)
	if math.IsNaN(hl) || math.IsInf(hl, 0) || hl <= 0 {
		return 0, false
	}
	return hl, true
}

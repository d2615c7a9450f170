package quant

import (
	"fmt"
	"math"

	"PairScout/internal/domain/models"
)

// MinFitnessPoints is the hard floor on aligned observations; 30 or more is
// recommended for stable estimates.
const MinFitnessPoints = 10

// SimpleReturns computes simple percentage changes r_t = p_t/p_{t-1} - 1.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, prices[i]/prices[i-1]-1)
	}
	return out
}

// AnalyzeFitness computes the pair relationship snapshot: Pearson correlation
// of simple returns, OLS hedge ratio, beta-adjusted log spread, rolling
// z-score and a simplified cointegration test.
//
// Beta is Cov(r1, r2)/Var(r2) and is defined as 0 when Var(r2) is zero. The
// z-score uses the last min(window, len) spread points and is flagged invalid
// when the rolling standard deviation is zero.
func AnalyzeFitness(p1, p2 []float64, window int) (models.Fitness, error) {
	var f models.Fitness
	if len(p1) != len(p2) {
		return f, fmt.Errorf("series length mismatch %d vs %d: %w", len(p1), len(p2), ErrInsufficientData)
	}
	if len(p1) < MinFitnessPoints {
		return f, fmt.Errorf("have %d points, need %d: %w", len(p1), MinFitnessPoints, ErrInsufficientData)
	}
	for i := range p1 {
		if p1[i] <= 0 || p2[i] <= 0 {
			return f, fmt.Errorf("non-positive price at index %d: %w", i, ErrDegenerateSeries)
		}
	}

	r1 := SimpleReturns(p1)
	r2 := SimpleReturns(p2)

	f.Correlation = pearson(r1, r2)

	v2 := variance(r2)
	if v2 == 0 {
		f.Beta = 0
	} else {
		f.Beta = covariance(r1, r2) / v2
	}

	f.LogSpread = LogSpread(p1, p2, f.Beta)

	f.ZScore, f.ZValid = RollingZ(f.LogSpread, window)

	f.Cointegrated, f.ADFStat, f.ReversionRate = cointegrationTest(f.LogSpread, window)

	if hl := SimpleHalfLife(f.LogSpread); hl.Valid {
		f.HalfLifeDays = hl.Days
	}
	if rho, ok := lag1Autocorr(f.LogSpread); ok {
		f.Theta = 1 - rho
	}
	f.Gamma = betaInstability(r1, r2, f.Beta)

	return f, nil
}

// LogSpread builds spread[i] = ln(p1[i]) - beta*ln(p2[i]). Callers must have
// validated that prices are positive.
func LogSpread(p1, p2 []float64, beta float64) []float64 {
	n := len(p1)
	if len(p2) < n {
		n = len(p2)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Log(p1[i]) - beta*math.Log(p2[i])
	}
	return out
}

// RollingZ returns the z-score of the last spread point against the rolling
// window. The second return is false when the window standard deviation is
// zero, the explicit "undefined" sentinel.
func RollingZ(spread []float64, window int) (float64, bool) {
	if len(spread) == 0 {
		return 0, false
	}
	w := tail(spread, window)
	sd := sampleStdDev(w)
	if sd == 0 {
		return 0, false
	}
	return (spread[len(spread)-1] - mean(w)) / sd, true
}

// RollingZSeries computes the z-score at every index using the trailing
// window, for divergence calibration. Points with an undefined z (zero
// rolling deviation) are emitted as 0 and excluded from episode detection by
// never crossing a positive threshold.
func RollingZSeries(spread []float64, window int) []float64 {
	out := make([]float64, len(spread))
	for i := range spread {
		lo := i + 1 - window
		if lo < 0 {
			lo = 0
		}
		w := spread[lo : i+1]
		sd := sampleStdDev(w)
		if sd == 0 {
			out[i] = 0
			continue
		}
		out[i] = (spread[i] - mean(w)) / sd
	}
	return out
}

// cointegrationTest applies an ADF-style statistic -rho*sqrt(n) on the lag-1
// autocorrelation of the spread first differences, with a mean-reversion-rate
// escape hatch: the fraction of steps where the deviation from the rolling
// mean shrank versus the prior step.
func cointegrationTest(spread []float64, window int) (bool, float64, float64) {
	d := diff(spread)
	if len(d) < 3 {
		return false, 0, 0
	}
	rho, ok := lag1Autocorr(d)
	if !ok {
		return false, 0, 0
	}
	adf := -rho * math.Sqrt(float64(len(d)))

	revRate := meanReversionRate(spread, window)

	cointegrated := adf < -2.5 || (revRate > 0.5 && math.Abs(rho) < 0.3)
	return cointegrated, adf, revRate
}

func meanReversionRate(spread []float64, window int) float64 {
	if len(spread) < 3 {
		return 0
	}
	shrank, steps := 0, 0
	prevDev := math.NaN()
	for i := range spread {
		lo := i + 1 - window
		if lo < 0 {
			lo = 0
		}
		dev := math.Abs(spread[i] - mean(spread[lo:i+1]))
		if !math.IsNaN(prevDev) {
			steps++
			if dev < prevDev {
				shrank++
			}
		}
		prevDev = dev
	}
	if steps == 0 {
		return 0
	}
	return float64(shrank) / float64(steps)
}

// betaInstability estimates gamma as the normalized gap between the hedge
// ratio fitted on the first and second halves of the return window.
func betaInstability(r1, r2 []float64, beta float64) float64 {
	n := len(r1)
	if n < 8 {
		return 0
	}
	half := n / 2
	b1, ok1 := halfBeta(r1[:half], r2[:half])
	b2, ok2 := halfBeta(r1[half:], r2[half:])
	if !ok1 || !ok2 {
		return 0
	}
	denom := math.Abs(beta)
	if denom < 1e-9 {
		denom = 1e-9
	}
	return math.Abs(b1-b2) / denom
}

func halfBeta(r1, r2 []float64) (float64, bool) {
	v := variance(r2)
	if v == 0 {
		return 0, false
	}
	return covariance(r1, r2) / v, true
}

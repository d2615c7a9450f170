package quant

import (
	"math"

	"PairScout/internal/domain/models"
)

const minHurstPoints = 20

// Hurst computes the rescaled-range exponent of the given spread series.
// It must be fed the beta-adjusted spread, never a single leg's prices: an
// individual asset's own mean reversion says nothing about the pair
// relationship.
func Hurst(spread []float64) models.HurstResult {
	n := len(spread)
	if n < minHurstPoints {
		return models.HurstResult{}
	}

	var logLags, logRS []float64
	for _, lag := range hurstLags(n) {
		rs, ok := avgRescaledRange(spread, lag)
		if !ok {
			continue
		}
		logLags = append(logLags, math.Log(float64(lag)))
		logRS = append(logRS, math.Log(rs))
	}
	if len(logLags) < 2 {
		return models.HurstResult{}
	}

	h, _, _, ok := olsFit(logLags, logRS)
	if !ok || math.IsNaN(h) {
		return models.HurstResult{}
	}

	cls, borderline := classifyHurst(h)
	return models.HurstResult{H: h, Valid: true, Classification: cls, Borderline: borderline}
}

// hurstLags spans block sizes from 10 up to half the series length.
func hurstLags(n int) []int {
	maxLag := n / 2
	if maxLag < 10 {
		return nil
	}
	step := (maxLag - 10) / 6
	if step < 1 {
		step = 1
	}
	var lags []int
	for lag := 10; lag <= maxLag; lag += step {
		lags = append(lags, lag)
	}
	return lags
}

// avgRescaledRange averages R/S over the non-overlapping blocks of one lag
// size. Blocks with zero deviation are skipped.
func avgRescaledRange(xs []float64, lag int) (float64, bool) {
	blocks := len(xs) / lag
	if blocks == 0 {
		return 0, false
	}
	sum := 0.0
	count := 0
	for b := 0; b < blocks; b++ {
		block := xs[b*lag : (b+1)*lag]
		m := mean(block)
		s := sampleStdDev(block)
		if s == 0 {
			continue
		}
		cum, lo, hi := 0.0, 0.0, 0.0
		for _, x := range block {
			cum += x - m
			if cum < lo {
				lo = cum
			}
			if cum > hi {
				hi = cum
			}
		}
		r := hi - lo
		if r <= 0 {
			continue
		}
		sum += r / s
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func classifyHurst(h float64) (string, bool) {
	switch {
	case h < 0.4:
		return models.HurstStrongReversion, false
	case h < 0.45:
		return models.HurstMeanReverting, false
	case h < 0.5:
		// watch band: still admissible but close to the boundary
		return models.HurstMeanReverting, true
	case h < 0.55:
		return models.HurstRandomWalk, false
	case h < 0.65:
		return models.HurstWeakTrend, false
	default:
		return models.HurstTrending, false
	}
}

package features

import (
	"math"
	"time"

	"PairScout/internal/domain/models"
)

// AlignCandles intersects two candle series on their bucket timestamps and
// returns the close prices in matching order. Candles present on only one
// side are dropped so every index refers to the same instant on both legs.
func AlignCandles(c1, c2 []models.Candle) (p1, p2 []float64) {
	if len(c1) == 0 || len(c2) == 0 {
		return nil, nil
	}
	byBucket := make(map[int64]float64, len(c2))
	for _, c := range c2 {
		byBucket[c.Bucket.Unix()] = c.Close
	}
	p1 = make([]float64, 0, len(c1))
	p2 = make([]float64, 0, len(c1))
	for _, c := range c1 {
		close2, ok := byBucket[c.Bucket.Unix()]
		if !ok || c.Close <= 0 || close2 <= 0 {
			continue
		}
		p1 = append(p1, c.Close)
		p2 = append(p2, close2)
	}
	return p1, p2
}

// Closes extracts the close column from a candle series, skipping
// non-positive prints.
func Closes(candles []models.Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		if c.Close <= 0 {
			continue
		}
		out = append(out, c.Close)
	}
	return out
}

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(candles)-1, or nil if insufficient data.
func ComputeLogReturns(candles []models.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		cur := candles[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// AlignFromTo rounds a time range to candle boundaries for a timeframe.
func AlignFromTo(from, to time.Time, tf string) (time.Time, time.Time) {
	var d time.Duration
	switch tf {
	case "1m":
		d = time.Minute
	case "1h":
		d = time.Hour
	case "1d":
		d = 24 * time.Hour
	default:
		d = 24 * time.Hour
	}
	return from.Truncate(d), to.Truncate(d)
}

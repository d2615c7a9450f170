package quant

import "math"

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev returns the (n-1)-normalized standard deviation.
func sampleStdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	v := sum2 / float64(n-1)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

func covariance(x, y []float64) float64 {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0
	}
	mx, my := mean(x), mean(y)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += (x[i] - mx) * (y[i] - my)
	}
	return sum / float64(n-1)
}

func variance(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	sum2 := 0.0
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	return sum2 / float64(n-1)
}

// pearson computes the Pearson correlation, clamped to [-1, 1].
// Returns 0 when either series has zero variance.
func pearson(x, y []float64) float64 {
	sx, sy := sampleStdDev(x), sampleStdDev(y)
	if sx == 0 || sy == 0 {
		return 0
	}
	r := covariance(x, y) / (sx * sy)
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r
}

// olsFit regresses y on x and returns slope, intercept and R².
func olsFit(x, y []float64) (slope, intercept, r2 float64, ok bool) {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0, 0, 0, false
	}
	vx := variance(x)
	if vx == 0 {
		return 0, 0, 0, false
	}
	slope = covariance(x, y) / vx
	intercept = mean(y) - slope*mean(x)
	vy := variance(y)
	if vy > 0 {
		r := covariance(x, y) / math.Sqrt(vx*vy)
		r2 = r * r
	}
	return slope, intercept, r2, true
}

// weightedSlope regresses y on x with per-point weights.
func weightedSlope(x, y, w []float64) (float64, bool) {
	n := len(x)
	if n < 2 || n != len(y) || n != len(w) {
		return 0, false
	}
	var sw, swx, swy float64
	for i := 0; i < n; i++ {
		sw += w[i]
		swx += w[i] * x[i]
		swy += w[i] * y[i]
	}
	if sw == 0 {
		return 0, false
	}
	mx, my := swx/sw, swy/sw
	var num, den float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		num += w[i] * dx * (y[i] - my)
		den += w[i] * dx * dx
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

// lag1Autocorr computes the lag-1 autocorrelation coefficient, normalizing
// by the full-series variance.
func lag1Autocorr(xs []float64) (float64, bool) {
	n := len(xs)
	if n < 3 {
		return 0, false
	}
	m := mean(xs)
	var num, den float64
	for i := 0; i < n; i++ {
		d := xs[i] - m
		den += d * d
		if i > 0 {
			num += d * (xs[i-1] - m)
		}
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

func diff(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

func tail(xs []float64, n int) []float64 {
	if n <= 0 || len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

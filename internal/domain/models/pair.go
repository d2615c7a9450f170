package models

import "time"

// Fitness holds the statistical relationship of a pair at one instant.
// ZValid is false when the rolling standard deviation of the spread is zero;
// downstream gates must treat an invalid z-score as failing.
type Fitness struct {
	Correlation   float64
	Beta          float64
	LogSpread     []float64
	ZScore        float64
	ZValid        bool
	Cointegrated  bool
	ADFStat       float64
	ReversionRate float64
	HalfLifeDays  float64
	Gamma         float64 // beta instability (normalized structural vs dynamic gap)
	Theta         float64 // reversion speed, 1 - lag-1 autocorrelation of the spread
}

// HalfLife is the output of the half-life estimator chain. Valid is false
// when no method detected mean reversion; Days is meaningless in that case.
type HalfLife struct {
	Days   float64
	Method string
	Window int
	Valid  bool
}

// Hurst exponent classification bands.
const (
	HurstStrongReversion = "STRONG_REVERSION"
	HurstMeanReverting   = "MEAN_REVERTING"
	HurstRandomWalk      = "RANDOM_WALK"
	HurstWeakTrend       = "WEAK_TREND"
	HurstTrending        = "TRENDING"
)

// HurstResult carries the rescaled-range exponent of the beta-adjusted
// spread. Valid is false when the series is too short to regress.
type HurstResult struct {
	H              float64
	Valid          bool
	Classification string
	Borderline     bool // 0.45-0.50 watch band
}

// DualBetaResult compares the long-window structural hedge ratio against a
// recency-weighted dynamic one. Drift is the normalized gap between them.
type DualBetaResult struct {
	StructuralBeta float64
	DynamicBeta    float64
	Drift          float64
	RSquared       float64
	Valid          bool
}

// Regime states derived from z-score trajectory and Hurst.
const (
	RegimeIdle            = "idle"
	RegimeMildReversion   = "mild_reversion"
	RegimeStrongReversion = "strong_reversion"
	RegimePeakDivergence  = "peak_divergence"
	RegimeTrending        = "trending"
)

// Regime is a qualitative classification of the pair's current state.
type Regime struct {
	State  string
	Action string // "enter", "wait", "caution"
	Risk   string // "low", "medium", "high"
}

// ConvictionFactors keeps the signed per-factor contributions so a score is
// explainable, not just a scalar.
type ConvictionFactors struct {
	Correlation   float64
	RSquared      float64
	HalfLife      float64
	Hurst         float64
	Cointegration float64
	BetaDrift     float64
}

// Conviction is the composite 0-100 confidence score for a pair.
type Conviction struct {
	Score   float64
	Factors ConvictionFactors
}

// ThresholdStats are the empirical reversion statistics for one candidate
// entry threshold.
type ThresholdStats struct {
	Threshold     float64
	Events        int
	Reverted      int
	ReversionRate float64
	AvgDuration   float64 // bars from crossing to reversion
}

// DivergenceProfile is the calibration of a pair-specific entry threshold
// from historical z-score excursions. OptimalEntry never falls below the
// configured floor.
type DivergenceProfile struct {
	Thresholds   []ThresholdStats
	OptimalEntry float64
	SampleSize   int
}

// PairAnalysis is the full metrics bundle for one pair. Price1/Price2 are the
// latest aligned closes the analysis was computed from.
type PairAnalysis struct {
	Asset1    string
	Asset2    string
	Timestamp time.Time
	Price1    float64
	Price2    float64

	Fitness    Fitness
	HalfLife   HalfLife
	Hurst      HurstResult
	DualBeta   DualBetaResult
	Regime     Regime
	Conviction Conviction
	Divergence DivergenceProfile
}

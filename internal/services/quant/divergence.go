package quant

import (
	"math"

	"PairScout/internal/domain/models"
)

// DivergenceConfig controls the empirical entry-threshold calibration.
type DivergenceConfig struct {
	Thresholds       []float64 `yaml:"thresholds"`
	RevertFraction   float64   `yaml:"revert_fraction"`    // episode ends when |z| < threshold*fraction
	MinEvents        int       `yaml:"min_events"`         // strict selection bar
	MinReversionRate float64   `yaml:"min_reversion_rate"` // strict selection bar
	LooseEvents      int       `yaml:"loose_events"`       // fallback bar
	LooseRate        float64   `yaml:"loose_rate"`         // fallback bar
	FloorThreshold   float64   `yaml:"floor_threshold"`    // OptimalEntry never goes below this
}

// DefaultDivergenceConfig returns the production calibration parameters.
func DefaultDivergenceConfig() DivergenceConfig {
	return DivergenceConfig{
		Thresholds:       []float64{1.5, 2.0, 2.5, 3.0},
		RevertFraction:   0.5,
		MinEvents:        5,
		MinReversionRate: 0.6,
		LooseEvents:      3,
		LooseRate:        0.5,
		FloorThreshold:   2.0,
	}
}

// ProfileDivergence walks a historical z-score series and, per candidate
// threshold, counts non-overlapping divergence episodes and how often they
// reverted. OptimalEntry is the highest threshold passing the strict bars,
// falling back to the loose bars, and never below the configured floor.
// Finer-grained input series give the counts more statistical power.
func ProfileDivergence(zs []float64, cfg DivergenceConfig) models.DivergenceProfile {
	if len(cfg.Thresholds) == 0 {
		cfg = DefaultDivergenceConfig()
	}

	profile := models.DivergenceProfile{SampleSize: len(zs)}
	for _, t := range cfg.Thresholds {
		profile.Thresholds = append(profile.Thresholds, walkEpisodes(zs, t, cfg.RevertFraction))
	}

	profile.OptimalEntry = selectOptimal(profile.Thresholds, cfg)
	return profile
}

// walkEpisodes counts divergence episodes for one threshold. An episode
// starts when |z| first crosses the threshold with none active and reverts
// when |z| subsequently falls below threshold*revertFraction.
func walkEpisodes(zs []float64, threshold, revertFraction float64) models.ThresholdStats {
	st := models.ThresholdStats{Threshold: threshold}
	exitLevel := threshold * revertFraction

	active := false
	start := 0
	totalDuration := 0
	for i, z := range zs {
		absZ := math.Abs(z)
		if !active {
			if absZ >= threshold {
				active = true
				start = i
				st.Events++
			}
			continue
		}
		if absZ < exitLevel {
			active = false
			st.Reverted++
			totalDuration += i - start
		}
	}

	if st.Events > 0 {
		st.ReversionRate = float64(st.Reverted) / float64(st.Events)
	}
	if st.Reverted > 0 {
		st.AvgDuration = float64(totalDuration) / float64(st.Reverted)
	}
	return st
}

func selectOptimal(stats []models.ThresholdStats, cfg DivergenceConfig) float64 {
	if best, ok := highestPassing(stats, cfg.MinEvents, cfg.MinReversionRate); ok {
		return math.Max(best, cfg.FloorThreshold)
	}
	if best, ok := highestPassing(stats, cfg.LooseEvents, cfg.LooseRate); ok {
		return math.Max(best, cfg.FloorThreshold)
	}
	return cfg.FloorThreshold
}

func highestPassing(stats []models.ThresholdStats, minEvents int, minRate float64) (float64, bool) {
	best, found := 0.0, false
	for _, s := range stats {
		if s.Events >= minEvents && s.ReversionRate >= minRate && s.Threshold > best {
			best = s.Threshold
			found = true
		}
	}
	return best, found
}

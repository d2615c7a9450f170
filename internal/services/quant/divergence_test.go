package quant

import (
	"math/rand"
	"testing"
)

func TestProfileDivergenceFloorAlwaysHolds(t *testing.T) {
	cfg := DefaultDivergenceConfig()
	rng := rand.New(rand.NewSource(31))

	inputs := [][]float64{
		nil,
		make([]float64, 500), // all zeros, no episodes
		ar1Series(0.9, 1, 2000, 32),
	}
	noisy := make([]float64, 1000)
	for i := range noisy {
		noisy[i] = 4 * rng.NormFloat64()
	}
	inputs = append(inputs, noisy)

	for i, zs := range inputs {
		p := ProfileDivergence(zs, cfg)
		if p.OptimalEntry < cfg.FloorThreshold {
			t.Fatalf("input %d: optimal entry %v below floor %v", i, p.OptimalEntry, cfg.FloorThreshold)
		}
	}
}

func TestProfileDivergenceCountsEpisodes(t *testing.T) {
	// two clean excursions past 2.0, both reverting below 1.0
	zs := []float64{0, 0.5, 2.5, 2.2, 1.5, 0.8, 0.2, -2.6, -2.1, -1.2, -0.3, 0}
	p := ProfileDivergence(zs, DefaultDivergenceConfig())

	idx := -1
	for i := range p.Thresholds {
		if p.Thresholds[i].Threshold == 2.0 {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Fatalf("threshold 2.0 missing from profile")
	}
	st := p.Thresholds[idx]
	if st.Events != 2 {
		t.Fatalf("events = %d, want 2", st.Events)
	}
	if st.Reverted != 2 {
		t.Fatalf("reverted = %d, want 2", st.Reverted)
	}
	if st.ReversionRate != 1 {
		t.Fatalf("reversion rate = %v, want 1", st.ReversionRate)
	}
}

func TestProfileDivergenceNonOverlappingEpisodes(t *testing.T) {
	// stays above the threshold: one episode, never reverted
	zs := []float64{3, 3.2, 3.1, 2.9, 3.3, 3.0}
	p := ProfileDivergence(zs, DefaultDivergenceConfig())
	for _, st := range p.Thresholds {
		if st.Threshold > 3.0 {
			continue
		}
		if st.Events != 1 {
			t.Fatalf("threshold %v: events = %d, want 1", st.Threshold, st.Events)
		}
		if st.Reverted != 0 {
			t.Fatalf("threshold %v: reverted = %d, want 0", st.Threshold, st.Reverted)
		}
	}
}

func TestProfileDivergencePicksHighestPassing(t *testing.T) {
	// many clean excursions to |z|~3.2 that all revert: 3.0 should qualify
	var zs []float64
	for i := 0; i < 8; i++ {
		zs = append(zs, 0, 1, 2, 3.2, 2.4, 1.2, 0.4, 0)
	}
	p := ProfileDivergence(zs, DefaultDivergenceConfig())
	if p.OptimalEntry != 3.0 {
		t.Fatalf("optimal entry = %v, want 3.0", p.OptimalEntry)
	}
}

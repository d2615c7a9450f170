package quant

import (
	"testing"

	"PairScout/internal/domain/models"
)

func TestClassifyRegime(t *testing.T) {
	cases := []struct {
		name   string
		in     RegimeInput
		state  string
		action string
	}{
		{
			name:   "invalid z waits",
			in:     RegimeInput{ZValid: false, Threshold: 2.5},
			state:  models.RegimeIdle,
			action: "wait",
		},
		{
			name:   "small z idles",
			in:     RegimeInput{Z: 0.4, ZValid: true, Threshold: 2.5},
			state:  models.RegimeIdle,
			action: "wait",
		},
		{
			name:   "mid band is mild reversion",
			in:     RegimeInput{Z: -1.8, ZValid: true, Threshold: 2.5},
			state:  models.RegimeMildReversion,
			action: "wait",
		},
		{
			name:   "trending hurst overrides even below threshold",
			in:     RegimeInput{Z: 1.8, ZValid: true, Threshold: 2.5, Hurst: 0.58, HurstValid: true},
			state:  models.RegimeTrending,
			action: "caution",
		},
		{
			name:   "past threshold while still diverging",
			in:     RegimeInput{Z: -2.9, ZValid: true, Threshold: 2.5, RecentZ: []float64{-2.2, -2.6, -2.9}},
			state:  models.RegimePeakDivergence,
			action: "wait",
		},
		{
			name:   "past threshold and turning back is enterable",
			in:     RegimeInput{Z: -2.6, ZValid: true, Threshold: 2.5, RecentZ: []float64{-3.1, -2.8, -2.6}, Hurst: 0.38, HurstValid: true},
			state:  models.RegimeStrongReversion,
			action: "enter",
		},
		{
			name:   "past threshold but trending stays out",
			in:     RegimeInput{Z: 3.2, ZValid: true, Threshold: 2.5, RecentZ: []float64{3.4, 3.3, 3.2}, Hurst: 0.61, HurstValid: true},
			state:  models.RegimeTrending,
			action: "caution",
		},
		{
			name:   "no recent history defaults to reversion stance",
			in:     RegimeInput{Z: 2.7, ZValid: true, Threshold: 2.5},
			state:  models.RegimeStrongReversion,
			action: "enter",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyRegime(tc.in)
			if got.State != tc.state {
				t.Fatalf("state = %q, want %q", got.State, tc.state)
			}
			if got.Action != tc.action {
				t.Fatalf("action = %q, want %q", got.Action, tc.action)
			}
		})
	}
}

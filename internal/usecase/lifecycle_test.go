package usecase

import (
	"math"
	"testing"
	"time"

	"PairScout/internal/domain/models"
	"PairScout/internal/services/quant"
	"PairScout/pkg/config"
)

func testScannerConfig() config.ScannerConfig {
	return config.ScannerConfig{
		HistoryDays:      60,
		ZWindow:          5,
		StructuralWindow: 90,
		DynamicWindow:    30,
		HurstWindow:      60,
		MinCorrelation:   0.8,
		MaxHalfLifeDays:  30,
		HurstEntryMax:    0.5,
		TopKPerSector:    3,
	}
}

func testLifecycleConfig() config.LifecycleConfig {
	return config.LifecycleConfig{
		ConfirmDays:          3,
		ConfirmFraction:      0.5,
		MaxConcurrentTrades:  5,
		MaxTradesPerAsset:    2,
		EntryCorrelationMin:  0.7,
		ExitZ:                0.5,
		StopZFloor:           3.5,
		StopEntryMult:        1.5,
		StopHistMult:         1.2,
		PartialTakeProfitPct: 3.0,
		FinalTakeProfitPct:   5.0,
		DriftWarn:            0.15,
		DriftCritical:        0.30,
		TimeStopMult:         2.0,
		ExitCorrelationFloor: 0.5,
		HurstExitMax:         0.55,
	}
}

func newTestLifecycle(state *memStateStore, hist *memHistoryStore, market *fakeMarket) *Lifecycle {
	scanCfg := testScannerConfig()
	analyzer := NewPairAnalyzer(market, nil, scanCfg,
		quant.DefaultConvictionWeights(), quant.DefaultDivergenceConfig(), testLogger())
	return NewLifecycle(analyzer, state, hist, nopMetrics{}, scanCfg, testLifecycleConfig(), testLogger())
}

// healthyTrade is a baseline open position no exit rule should fire on.
func healthyTrade() *models.ActiveTrade {
	return &models.ActiveTrade{
		TradeKey:           "AAAUSDT-BBBUSDT:1",
		PairKey:            "AAAUSDT-BBBUSDT",
		Asset1:             "AAAUSDT",
		Asset2:             "BBBUSDT",
		Direction:          models.DirLongSpread,
		EntryZ:             -2.6,
		EntryHalfLife:      10,
		EntryThreshold:     2.0,
		MaxHistoricalZ:     3.0,
		EntryAt:            time.Now().UTC().Add(-48 * time.Hour),
		CurrentZ:           -1.8,
		CurrentZValid:      true,
		CurrentCorrelation: 0.85,
		CurrentHurst:       0.35,
		CurrentDrift:       0.05,
		MaxDriftSeen:       0.10,
		PnLPct:             1.0,
		OpenFraction:       1.0,
	}
}

func TestEvaluateExitHealthyTradeHolds(t *testing.T) {
	l := newTestLifecycle(newMemStateStore(), &memHistoryStore{}, nil)
	if act := l.EvaluateExit(healthyTrade()); act != nil {
		t.Fatalf("expected no exit, got %s (%s)", act.Reason, act.Detail)
	}
}

func TestEvaluateExitPartialThenFinalTakeProfit(t *testing.T) {
	l := newTestLifecycle(newMemStateStore(), &memHistoryStore{}, nil)

	tr := healthyTrade()
	tr.PnLPct = 3.2
	act := l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitPartialTakeProfit {
		t.Fatalf("expected partial take-profit, got %+v", act)
	}
	if act.Full || act.CloseFraction != 0.5 {
		t.Fatalf("partial exit must close half, got full=%v fraction=%v", act.Full, act.CloseFraction)
	}

	// same pnl after the partial: no further profit action
	tr.PartialExitTaken = true
	if act := l.EvaluateExit(tr); act != nil {
		t.Fatalf("expected hold after partial, got %s", act.Reason)
	}

	tr.PnLPct = 5.5
	act = l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitFinalTakeProfit || !act.Full {
		t.Fatalf("expected full final take-profit, got %+v", act)
	}
}

func TestEvaluateExitMeanReversion(t *testing.T) {
	l := newTestLifecycle(newMemStateStore(), &memHistoryStore{}, nil)
	tr := healthyTrade()
	tr.CurrentZ = -0.3
	act := l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitMeanReversion || !act.Full {
		t.Fatalf("expected mean reversion exit, got %+v", act)
	}
}

func TestEvaluateExitStopLoss(t *testing.T) {
	l := newTestLifecycle(newMemStateStore(), &memHistoryStore{}, nil)
	tr := healthyTrade()
	// stop = max(2.6*1.5, 3.0*1.2, 3.5) = 3.9
	tr.CurrentZ = -4.0
	act := l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitStopLoss || !act.Full {
		t.Fatalf("expected stop loss, got %+v", act)
	}

	tr.CurrentZ = -3.8
	if act := l.EvaluateExit(tr); act != nil {
		t.Fatalf("z inside stop band must hold, got %s", act.Reason)
	}
}

func TestEvaluateExitDriftGraduated(t *testing.T) {
	l := newTestLifecycle(newMemStateStore(), &memHistoryStore{}, nil)

	// moderate drift with weak reversion progress halves the position
	tr := healthyTrade()
	tr.CurrentDrift = 0.20
	tr.CurrentZ = -2.4 // progress 1-2.4/2.6 < 0.25
	act := l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitBetaDrift || act.Full || act.CloseFraction != 0.5 {
		t.Fatalf("expected half-close on moderate drift, got %+v", act)
	}

	// critical drift with a losing position closes fully
	tr = healthyTrade()
	tr.CurrentDrift = 0.35
	tr.PnLPct = -1.2
	act = l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitBetaDrift || !act.Full {
		t.Fatalf("expected full close on critical drift with loss, got %+v", act)
	}

	// drift above the trade's own prior maximum closes fully
	tr = healthyTrade()
	tr.CurrentDrift = 0.20
	tr.MaxDriftSeen = 0.12
	tr.CurrentZ = -1.5 // good progress, first drift rule stays quiet
	act = l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitBetaDrift || !act.Full {
		t.Fatalf("expected full close on record drift, got %+v", act)
	}
}

func TestEvaluateExitTimeStop(t *testing.T) {
	l := newTestLifecycle(newMemStateStore(), &memHistoryStore{}, nil)
	tr := healthyTrade()
	tr.EntryAt = time.Now().UTC().Add(-25 * 24 * time.Hour) // limit is 10d * 2.0
	act := l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitTimeStop || !act.Full {
		t.Fatalf("expected time stop, got %+v", act)
	}
}

func TestEvaluateExitCorrelationAndHurst(t *testing.T) {
	l := newTestLifecycle(newMemStateStore(), &memHistoryStore{}, nil)

	tr := healthyTrade()
	tr.CurrentCorrelation = 0.4
	act := l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitCorrelationBreak {
		t.Fatalf("expected correlation breakdown, got %+v", act)
	}

	tr = healthyTrade()
	tr.CurrentHurst = 0.60
	act = l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitHurstRegime {
		t.Fatalf("expected hurst regime exit, got %+v", act)
	}
}

func TestEvaluateExitPriorityOrder(t *testing.T) {
	l := newTestLifecycle(newMemStateStore(), &memHistoryStore{}, nil)
	// mean reversion and correlation breakdown hold at once; the earlier
	// rule must win
	tr := healthyTrade()
	tr.CurrentZ = -0.3
	tr.CurrentCorrelation = 0.4
	act := l.EvaluateExit(tr)
	if act == nil || act.Reason != models.ExitMeanReversion {
		t.Fatalf("expected mean reversion to take priority, got %+v", act)
	}
}

func TestBetaNeutralWeights(t *testing.T) {
	cases := []float64{0.5, 1.0, 1.5, 3.2, -2.0}
	for _, beta := range cases {
		w1, w2 := betaNeutralWeights(beta)
		if math.Abs(w1+w2-1) > 1e-12 {
			t.Fatalf("beta %v: weights %v+%v do not sum to 1", beta, w1, w2)
		}
		if want := 1 / (1 + math.Abs(beta)); math.Abs(w1-want) > 1e-12 {
			t.Fatalf("beta %v: w1 = %v, want %v", beta, w1, want)
		}
	}
}

func TestTradePnLPct(t *testing.T) {
	tr := &models.ActiveTrade{
		Direction:   models.DirLongSpread,
		EntryPrice1: 100,
		EntryPrice2: 50,
		Weight1:     0.6,
		Weight2:     0.4,
	}
	// long leg +4%, short leg -2%: 100*(0.6*0.04 + 0.4*0.02) = 3.2
	got := TradePnLPct(tr, 104, 49)
	if math.Abs(got-3.2) > 1e-9 {
		t.Fatalf("long spread pnl = %v, want 3.2", got)
	}

	tr.Direction = models.DirShortSpread
	got = TradePnLPct(tr, 104, 49)
	if math.Abs(got+3.2) > 1e-9 {
		t.Fatalf("short spread pnl = %v, want -3.2", got)
	}

	tr.EntryPrice1 = 0
	if got := TradePnLPct(tr, 104, 49); got != 0 {
		t.Fatalf("missing entry price must yield 0, got %v", got)
	}
}

// entryFixture builds an analysis whose spread history satisfies every
// entry gate, with the threshold derived from the observed z series.
func entryFixture(l *Lifecycle) (*models.PairAnalysis, *models.WatchlistEntry) {
	spread := make([]float64, 0, 40)
	for i := 0; i < 34; i++ {
		spread = append(spread, 0.001*math.Sin(float64(i)))
	}
	spread = append(spread, -0.02, -0.05, -0.09, -0.14, -0.20, -0.27)

	zs := quant.RollingZSeries(spread, l.scanCfg.ZWindow)
	zLast := zs[len(zs)-1]
	recent := zs[len(zs)-l.cfg.ConfirmDays:]
	m := 0.0
	for _, z := range recent {
		m += math.Abs(z)
	}
	m /= float64(len(recent))
	threshold := 0.9 * math.Min(math.Abs(zLast), 2*m*l.cfg.ConfirmFraction)

	an := &models.PairAnalysis{
		Fitness: models.Fitness{
			Correlation:  0.85,
			Beta:         1.2,
			LogSpread:    spread,
			ZScore:       zLast,
			ZValid:       true,
			Cointegrated: true,
		},
		HalfLife:   models.HalfLife{Days: 8, Valid: true},
		Hurst:      models.HurstResult{H: 0.32, Valid: true},
		Divergence: models.DivergenceProfile{OptimalEntry: threshold},
	}
	entry := &models.WatchlistEntry{
		PairKey: models.PairKey("AAAUSDT", "BBBUSDT"),
		Asset1:  "AAAUSDT",
		Asset2:  "BBBUSDT",
	}
	return an, entry
}

func TestEntryGatesPassAndFirstFailure(t *testing.T) {
	l := newTestLifecycle(newMemStateStore(), &memHistoryStore{}, nil)

	an, entry := entryFixture(l)
	if reason, ok := l.entryGates(an, entry, nil); !ok {
		t.Fatalf("baseline fixture must pass all gates, failed on %q", reason)
	}

	otherTrade := func(a1, a2, dir string) *models.ActiveTrade {
		return &models.ActiveTrade{
			TradeKey:  a1 + "-" + a2 + ":1",
			PairKey:   models.PairKey(a1, a2),
			Asset1:    a1,
			Asset2:    a2,
			Direction: dir,
		}
	}

	cases := []struct {
		name    string
		mutate  func(an *models.PairAnalysis, l *Lifecycle)
		actives []*models.ActiveTrade
		want    string
	}{
		{
			name:   "z below threshold",
			mutate: func(an *models.PairAnalysis, _ *Lifecycle) { an.Divergence.OptimalEntry = math.Abs(an.Fitness.ZScore) + 1 },
			want:   "z_threshold",
		},
		{
			name:   "invalid z",
			mutate: func(an *models.PairAnalysis, _ *Lifecycle) { an.Fitness.ZValid = false },
			want:   "z_threshold",
		},
		{
			name:   "weak correlation",
			mutate: func(an *models.PairAnalysis, _ *Lifecycle) { an.Fitness.Correlation = 0.5 },
			want:   "correlation",
		},
		{
			name:   "no cointegration",
			mutate: func(an *models.PairAnalysis, _ *Lifecycle) { an.Fitness.Cointegrated = false },
			want:   "cointegration",
		},
		{
			name:   "half-life invalid",
			mutate: func(an *models.PairAnalysis, _ *Lifecycle) { an.HalfLife.Valid = false },
			want:   "half_life",
		},
		{
			name:   "half-life too slow",
			mutate: func(an *models.PairAnalysis, _ *Lifecycle) { an.HalfLife.Days = 45 },
			want:   "half_life",
		},
		{
			name: "half-life below floor",
			mutate: func(an *models.PairAnalysis, l *Lifecycle) {
				l.scanCfg.MinHalfLifeDays = 1.0
				an.HalfLife.Days = 0.5
			},
			want: "half_life_floor",
		},
		{
			name:   "confirmation sign mismatch",
			mutate: func(an *models.PairAnalysis, _ *Lifecycle) { an.Fitness.ZScore = math.Abs(an.Fitness.ZScore) },
			want:   "confirmation",
		},
		{
			name:   "hurst trending",
			mutate: func(an *models.PairAnalysis, _ *Lifecycle) { an.Hurst.H = 0.6 },
			want:   "hurst",
		},
		{
			name:   "concurrency cap",
			mutate: func(_ *models.PairAnalysis, l *Lifecycle) { l.cfg.MaxConcurrentTrades = 1 },
			actives: []*models.ActiveTrade{
				otherTrade("XRPUSDT", "XLMUSDT", models.DirLongSpread),
			},
			want: "concurrency_cap",
		},
		{
			name:   "pair already active",
			mutate: func(*models.PairAnalysis, *Lifecycle) {},
			actives: []*models.ActiveTrade{
				otherTrade("AAAUSDT", "BBBUSDT", models.DirLongSpread),
			},
			want: "pair_already_active",
		},
		{
			// candidate is long AAAUSDT (negative z); an existing short on
			// the same asset conflicts
			name:   "direction conflict",
			mutate: func(*models.PairAnalysis, *Lifecycle) {},
			actives: []*models.ActiveTrade{
				otherTrade("AAAUSDT", "XLMUSDT", models.DirShortSpread),
			},
			want: "direction_conflict",
		},
		{
			name:   "asset overlap cap",
			mutate: func(_ *models.PairAnalysis, l *Lifecycle) { l.cfg.MaxTradesPerAsset = 1 },
			actives: []*models.ActiveTrade{
				otherTrade("AAAUSDT", "XLMUSDT", models.DirLongSpread),
			},
			want: "asset_overlap",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lc := newTestLifecycle(newMemStateStore(), &memHistoryStore{}, nil)
			a, e := entryFixture(lc)
			tc.mutate(a, lc)
			reason, ok := lc.entryGates(a, e, tc.actives)
			if ok {
				t.Fatalf("expected gate failure %q, but gates passed", tc.want)
			}
			if reason != tc.want {
				t.Fatalf("failed gate = %q, want %q", reason, tc.want)
			}
		})
	}
}

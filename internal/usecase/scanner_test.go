package usecase

import (
	"context"
	"testing"
	"time"

	"PairScout/internal/domain/models"
	"PairScout/internal/services/quant"
)

func newTestScanner(state *memStateStore, market *fakeMarket) *PairScanner {
	scanCfg := testScannerConfig()
	analyzer := NewPairAnalyzer(market, nil, scanCfg,
		quant.DefaultConvictionWeights(), quant.DefaultDivergenceConfig(), testLogger())
	return NewPairScanner(analyzer, market, state, nopMetrics{}, scanCfg, testLogger())
}

func TestEnumeratePairsSectorsAndExclusions(t *testing.T) {
	universe := []models.UniverseAsset{
		{Symbol: "AAAUSDT", Sector: "l1"},
		{Symbol: "BBBUSDT", Sector: "l1"},
		{Symbol: "CCCUSDT", Sector: "l1"},
		{Symbol: "DDDUSDT", Sector: "defi"},
	}
	s := newTestScanner(newMemStateStore(), newFakeMarket(universe))

	pairs := s.enumeratePairs(universe, nil)
	// three l1 combinations, defi has a single member
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %d: %v", len(pairs), pairs)
	}
	for _, p := range pairs {
		if p.sector != "l1" {
			t.Fatalf("unexpected sector %q for %s-%s", p.sector, p.a1, p.a2)
		}
		if p.a1 >= p.a2 {
			t.Fatalf("pair %s-%s not in canonical order", p.a1, p.a2)
		}
	}

	pairs = s.enumeratePairs(universe, map[string]bool{"BBBUSDT": true})
	if len(pairs) != 1 {
		t.Fatalf("exclusion should leave 1 pair, got %d", len(pairs))
	}

	s.cfg.CrossSector = true
	pairs = s.enumeratePairs(universe, nil)
	// 4 choose 2 once sector boundaries are ignored
	if len(pairs) != 6 {
		t.Fatalf("cross-sector should yield 6 pairs, got %d", len(pairs))
	}
}

func TestRunScanKeepsActiveEntriesAndDropsStale(t *testing.T) {
	ctx := context.Background()
	state := newMemStateStore()
	universe := []models.UniverseAsset{
		{Symbol: "AAAUSDT", Sector: "l1", QuoteVolume: 5e8},
		{Symbol: "BBBUSDT", Sector: "l1", QuoteVolume: 3e8},
	}
	s := newTestScanner(state, newFakeMarket(universe))

	now := time.Now().UTC()
	stale := &models.WatchlistEntry{
		PairKey: models.PairKey("OLDUSDT", "RUSTUSDT"),
		Status:  models.WatchStatusCandidate, CreatedAt: now,
	}
	held := &models.WatchlistEntry{
		PairKey: models.PairKey("XRPUSDT", "XLMUSDT"),
		Status:  models.WatchStatusActive, CreatedAt: now,
	}
	if err := state.UpsertWatchlistEntry(ctx, stale); err != nil {
		t.Fatal(err)
	}
	if err := state.UpsertWatchlistEntry(ctx, held); err != nil {
		t.Fatal(err)
	}

	report, err := s.RunScan(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if report.Evaluated != 1 {
		t.Fatalf("evaluated = %d, want 1", report.Evaluated)
	}
	// the synthetic pair tracks a constant price ratio, so the
	// cointegration gate rejects it and nothing new is admitted
	if report.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", report.Skipped)
	}

	if got, _ := state.GetWatchlistEntry(ctx, stale.PairKey); got != nil {
		t.Fatal("stale candidate must be removed")
	}
	if got, _ := state.GetWatchlistEntry(ctx, held.PairKey); got == nil {
		t.Fatal("entry held by an open trade must survive the scan")
	}
}

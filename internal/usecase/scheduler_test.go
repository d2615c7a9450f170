package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"PairScout/internal/domain/models"
	"PairScout/internal/services/quant"
)

func newTestScheduler(state *memStateStore, market *fakeMarket, notifier *captureNotifier) *Scheduler {
	scanCfg := testScannerConfig()
	scanCfg.Interval = 1
	lifeCfg := testLifecycleConfig()
	lifeCfg.Interval = 1

	analyzer := NewPairAnalyzer(market, nil, scanCfg,
		quant.DefaultConvictionWeights(), quant.DefaultDivergenceConfig(), testLogger())
	scanner := NewPairScanner(analyzer, market, state, nopMetrics{}, scanCfg, testLogger())
	lifecycle := NewLifecycle(analyzer, state, &memHistoryStore{}, nopMetrics{}, scanCfg, lifeCfg, testLogger())
	return NewScheduler(scanner, lifecycle, state, notifier, nopMetrics{}, scanCfg, lifeCfg, testLogger())
}

func TestSchedulerRejectsConcurrentRuns(t *testing.T) {
	s := newTestScheduler(newMemStateStore(), newFakeMarket(nil), &captureNotifier{})

	s.scanBusy = true
	if _, err := s.RunScan(context.Background()); !errors.Is(err, ErrJobRunning) {
		t.Fatalf("expected ErrJobRunning for scan, got %v", err)
	}
	s.monitorBusy = true
	if _, err := s.RunMonitor(context.Background()); !errors.Is(err, ErrJobRunning) {
		t.Fatalf("expected ErrJobRunning for monitor, got %v", err)
	}
}

func TestSchedulerRunScanStampsStateAndNotifies(t *testing.T) {
	ctx := context.Background()
	state := newMemStateStore()
	notifier := &captureNotifier{}
	s := newTestScheduler(state, newFakeMarket([]models.UniverseAsset{
		{Symbol: "AAAUSDT", Sector: "l1", QuoteVolume: 5e8},
		{Symbol: "BBBUSDT", Sector: "l1", QuoteVolume: 3e8},
	}), notifier)

	report, err := s.RunScan(ctx)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if report.Job != "scan" {
		t.Fatalf("report job = %q", report.Job)
	}
	if s.scanBusy {
		t.Fatal("busy guard not released after the run")
	}

	st, _ := state.GetSchedulerState(ctx)
	if st == nil || st.LastScanAt.IsZero() {
		t.Fatalf("scheduler state not stamped: %v", st)
	}
	if !st.ScanEnabled || !st.MonitorEnabled {
		t.Fatalf("default toggles must stay enabled: %v", st)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.messages))
	}
	if !strings.HasPrefix(notifier.messages[0], "scan cycle:") {
		t.Fatalf("unexpected summary: %q", notifier.messages[0])
	}
}

func TestSummarizeIncludesActionsAndErrors(t *testing.T) {
	r := &models.CycleReport{
		Job:       "monitor",
		Evaluated: 4,
		Skipped:   1,
		Duration:  "1.2s",
		Actions:   []string{"open long_spread AAAUSDT-BBBUSDT z=-2.60"},
		Errors:    []string{"CCCUSDT-DDDUSDT: timeout"},
	}
	msg := summarize(r, nil)
	if !strings.Contains(msg, "monitor cycle: 4 evaluated, 1 skipped in 1.2s") {
		t.Fatalf("summary header wrong: %q", msg)
	}
	if !strings.Contains(msg, "open long_spread") {
		t.Fatalf("summary missing action: %q", msg)
	}
	if !strings.Contains(msg, "1 pair(s) errored") {
		t.Fatalf("summary missing error count: %q", msg)
	}

	msg = summarize(&models.CycleReport{Job: "scan"}, errors.New("universe fetch failed"))
	if !strings.Contains(msg, "failed: universe fetch failed") {
		t.Fatalf("summary missing failure: %q", msg)
	}
}

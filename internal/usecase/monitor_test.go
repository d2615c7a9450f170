package usecase

import (
	"context"
	"testing"
	"time"

	"PairScout/internal/domain/models"
)

func monitorUniverse() []models.UniverseAsset {
	return []models.UniverseAsset{
		{Symbol: "AAAUSDT", Sector: "l1", QuoteVolume: 5e8},
		{Symbol: "BBBUSDT", Sector: "l1", QuoteVolume: 3e8},
	}
}

func TestRunMonitorPartialTakeProfit(t *testing.T) {
	ctx := context.Background()
	state := newMemStateStore()
	hist := &memHistoryStore{}
	l := newTestLifecycle(state, hist, newFakeMarket(monitorUniverse()))

	an, err := l.analyzer.AnalyzePair(ctx, "AAAUSDT", "BBBUSDT", l.scanCfg.HistoryDays)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	tr := healthyTrade()
	tr.Weight1 = 1
	tr.Weight2 = 0
	tr.EntryPrice1 = an.Price1 / 1.04 // long leg up ~4%, above the partial bar
	tr.EntryPrice2 = an.Price2
	if err := state.UpsertActiveTrade(ctx, tr); err != nil {
		t.Fatal(err)
	}

	report, err := l.RunMonitor(ctx)
	if err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if len(report.Actions) != 1 {
		t.Fatalf("expected one action, got %v", report.Actions)
	}

	got, err := state.GetActiveTrade(ctx, tr.TradeKey)
	if err != nil || got == nil {
		t.Fatalf("trade must stay open after partial, got %v err %v", got, err)
	}
	if !got.PartialExitTaken {
		t.Fatal("partial exit flag not set")
	}
	if got.OpenFraction != 0.5 {
		t.Fatalf("open fraction = %v, want 0.5", got.OpenFraction)
	}
	if len(hist.records) != 0 {
		t.Fatalf("partial close must not write history, got %d records", len(hist.records))
	}
}

func TestRunMonitorFinalCloseReleasesWatchlist(t *testing.T) {
	ctx := context.Background()
	state := newMemStateStore()
	hist := &memHistoryStore{}
	l := newTestLifecycle(state, hist, newFakeMarket(monitorUniverse()))
	events := &captureEvents{}
	l.SetEventPublisher(events)

	an, err := l.analyzer.AnalyzePair(ctx, "AAAUSDT", "BBBUSDT", l.scanCfg.HistoryDays)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	tr := healthyTrade()
	tr.Weight1 = 1
	tr.Weight2 = 0
	tr.PartialExitTaken = true
	tr.OpenFraction = 0.5
	tr.EntryPrice1 = an.Price1 / 1.06 // ~6% on the long leg, above the final bar
	tr.EntryPrice2 = an.Price2
	if err := state.UpsertActiveTrade(ctx, tr); err != nil {
		t.Fatal(err)
	}
	entry := &models.WatchlistEntry{
		PairKey:   tr.PairKey,
		Asset1:    tr.Asset1,
		Asset2:    tr.Asset2,
		Status:    models.WatchStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := state.UpsertWatchlistEntry(ctx, entry); err != nil {
		t.Fatal(err)
	}

	if _, err := l.RunMonitor(ctx); err != nil {
		t.Fatalf("monitor: %v", err)
	}

	if got, _ := state.GetActiveTrade(ctx, tr.TradeKey); got != nil {
		t.Fatal("trade must be removed after full close")
	}
	if len(hist.records) != 1 {
		t.Fatalf("expected one history record, got %d", len(hist.records))
	}
	rec := hist.records[0]
	if rec.ExitReason != models.ExitFinalTakeProfit {
		t.Fatalf("exit reason = %q, want final take-profit", rec.ExitReason)
	}
	if rec.PnLPct < 5.0 {
		t.Fatalf("recorded pnl %.2f below the final bar", rec.PnLPct)
	}

	released, _ := state.GetWatchlistEntry(ctx, tr.PairKey)
	if released == nil || released.Status == models.WatchStatusActive {
		t.Fatalf("watchlist entry must be released from active, got %v", released)
	}

	if len(events.events) != 1 {
		t.Fatalf("expected one trade event, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev.Type != models.TradeEventClosed || ev.TradeKey != tr.TradeKey {
		t.Fatalf("unexpected trade event %+v", ev)
	}
	if ev.Reason != models.ExitFinalTakeProfit {
		t.Fatalf("event reason = %q, want final take-profit", ev.Reason)
	}
}

package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"PairScout/internal/domain/models"
	"PairScout/pkg/logger"
)

// RunMonitor executes one monitor cycle: refresh every active trade, apply
// the exit policy, then evaluate entry gates for watchlist candidates. A
// failure on one trade or pair skips that record only.
func (l *Lifecycle) RunMonitor(ctx context.Context) (*models.CycleReport, error) {
	report := &models.CycleReport{Job: "monitor", StartedAt: time.Now().UTC()}

	actives, err := l.state.ListActiveTrades(ctx)
	if err != nil {
		return report, fmt.Errorf("list active trades: %w", err)
	}

	open := 0
	for _, trade := range actives {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Evaluated++
		closed, err := l.monitorTrade(ctx, trade, report)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", trade.TradeKey, err))
			open++
			continue
		}
		if !closed {
			open++
		}
	}
	l.metrics.RecordTradesOpen(open)

	if err := l.evaluateCandidates(ctx, report); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}

	report.Duration = time.Since(report.StartedAt).String()
	return report, nil
}

// monitorTrade refreshes one active trade and applies at most one exit
// action. It reports whether the trade was fully closed.
func (l *Lifecycle) monitorTrade(ctx context.Context, t *models.ActiveTrade, report *models.CycleReport) (bool, error) {
	an, err := l.analyzer.AnalyzePair(ctx, t.Asset1, t.Asset2, l.scanCfg.HistoryDays)
	if err != nil {
		return false, err
	}

	t.CurrentZ = an.Fitness.ZScore
	t.CurrentZValid = an.Fitness.ZValid
	t.CurrentBeta = an.DualBeta.DynamicBeta
	t.CurrentCorrelation = an.Fitness.Correlation
	t.CurrentHurst = an.Hurst.H
	t.CurrentDrift = an.DualBeta.Drift
	t.Price1 = an.Price1
	t.Price2 = an.Price2
	t.PnLPct = TradePnLPct(t, an.Price1, an.Price2)
	t.HealthScore = an.Conviction.Score
	t.UpdatedAt = time.Now().UTC()

	// exits see MaxDriftSeen as of the previous cycle; the record is rolled
	// forward only afterwards
	action := l.EvaluateExit(t)
	t.MaxDriftSeen = math.Max(t.MaxDriftSeen, t.CurrentDrift)

	if action == nil {
		return false, l.state.UpsertActiveTrade(ctx, t)
	}

	l.metrics.RecordExit(action.Reason)
	report.Actions = append(report.Actions,
		fmt.Sprintf("%s %s: %s", action.Reason, t.TradeKey, action.Detail))

	if !action.Full {
		if action.Reason == models.ExitPartialTakeProfit {
			t.PartialExitTaken = true
		}
		t.OpenFraction *= 1 - action.CloseFraction
		l.publishEvent(ctx, &models.TradeEvent{
			Type:      models.TradeEventPartialExit,
			TradeKey:  t.TradeKey,
			PairKey:   t.PairKey,
			Direction: t.Direction,
			Z:         t.CurrentZ,
			PnLPct:    t.PnLPct,
			Reason:    action.Reason,
		})
		return false, l.state.UpsertActiveTrade(ctx, t)
	}

	return true, l.closeTrade(ctx, t, action)
}

// closeTrade appends the immutable history record, removes the trade and
// releases the watchlist entry back to candidate.
func (l *Lifecycle) closeTrade(ctx context.Context, t *models.ActiveTrade, action *models.ExitAction) error {
	now := time.Now().UTC()
	rec := &models.HistoryRecord{
		TradeKey:     t.TradeKey,
		PairKey:      t.PairKey,
		Asset1:       t.Asset1,
		Asset2:       t.Asset2,
		Direction:    t.Direction,
		EntryAt:      t.EntryAt,
		ExitAt:       now,
		EntryZ:       t.EntryZ,
		ExitZ:        t.CurrentZ,
		PnLPct:       t.PnLPct,
		ExitReason:   action.Reason,
		DurationDays: now.Sub(t.EntryAt).Hours() / 24,
	}
	if err := l.history.Append(ctx, rec); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if err := l.state.DeleteActiveTrade(ctx, t.TradeKey); err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	l.publishEvent(ctx, &models.TradeEvent{
		Type:      models.TradeEventClosed,
		TradeKey:  t.TradeKey,
		PairKey:   t.PairKey,
		Direction: t.Direction,
		Z:         t.CurrentZ,
		PnLPct:    t.PnLPct,
		Reason:    action.Reason,
	})

	entry, err := l.state.GetWatchlistEntry(ctx, t.PairKey)
	if err != nil || entry == nil {
		return nil
	}
	entry.Status = models.WatchStatusCandidate
	entry.UpdatedAt = now
	if err := l.state.UpsertWatchlistEntry(ctx, entry); err != nil {
		l.log.Warn("release watchlist entry",
			logger.String("pair", t.PairKey), logger.Error(err))
	}
	return nil
}

// overlap and capacity failures flag the entry blocked for visibility; other
// gate failures leave it a plain candidate awaiting its signal.
var blockingReasons = map[string]bool{
	"pair_already_active": true,
	"direction_conflict":  true,
	"asset_overlap":       true,
	"concurrency_cap":     true,
}

func (l *Lifecycle) evaluateCandidates(ctx context.Context, report *models.CycleReport) error {
	entries, err := l.state.ListWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("list watchlist: %w", err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.Status == models.WatchStatusActive {
			continue
		}
		report.Evaluated++

		decision, err := l.EvaluateEntry(ctx, entry)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", entry.PairKey, err))
			continue
		}

		if !decision.Enter {
			status := models.WatchStatusCandidate
			if blockingReasons[decision.Reason] {
				status = models.WatchStatusBlocked
			}
			if status != entry.Status {
				entry.Status = status
				entry.UpdatedAt = time.Now().UTC()
				if err := l.state.UpsertWatchlistEntry(ctx, entry); err != nil {
					report.Errors = append(report.Errors, fmt.Sprintf("flag %s: %v", entry.PairKey, err))
				}
			}
			continue
		}

		if err := l.state.UpsertActiveTrade(ctx, decision.Trade); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("open %s: %v", entry.PairKey, err))
			continue
		}
		entry.Status = models.WatchStatusActive
		entry.UpdatedAt = time.Now().UTC()
		if err := l.state.UpsertWatchlistEntry(ctx, entry); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("flag %s: %v", entry.PairKey, err))
		}

		report.Actions = append(report.Actions,
			fmt.Sprintf("open %s %s z=%.2f", decision.Trade.Direction, entry.PairKey, decision.Trade.EntryZ))
		l.publishEvent(ctx, &models.TradeEvent{
			Type:      models.TradeEventOpened,
			TradeKey:  decision.Trade.TradeKey,
			PairKey:   entry.PairKey,
			Direction: decision.Trade.Direction,
			Z:         decision.Trade.EntryZ,
		})
		l.log.Info("trade opened",
			logger.String("pair", entry.PairKey),
			logger.String("direction", decision.Trade.Direction),
			logger.Any("entry_z", decision.Trade.EntryZ))
	}
	return nil
}

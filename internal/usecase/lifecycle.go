package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"PairScout/internal/domain/models"
	domrepo "PairScout/internal/domain/repository"
	"PairScout/internal/services/quant"
	"PairScout/pkg/config"
	"PairScout/pkg/logger"
)

// Lifecycle owns the trade state machine: the entry-gate conjunction that
// promotes a watchlist candidate to an active trade, and the prioritized exit
// policy evaluated on every monitor cycle.
type Lifecycle struct {
	analyzer *PairAnalyzer
	state    domrepo.StateStore
	history  domrepo.HistoryStore
	metrics  domrepo.Metrics
	events   domrepo.EventPublisher
	scanCfg  config.ScannerConfig
	cfg      config.LifecycleConfig
	log      *logger.Logger
}

func NewLifecycle(
	analyzer *PairAnalyzer,
	state domrepo.StateStore,
	history domrepo.HistoryStore,
	metrics domrepo.Metrics,
	scanCfg config.ScannerConfig,
	cfg config.LifecycleConfig,
	log *logger.Logger,
) *Lifecycle {
	return &Lifecycle{
		analyzer: analyzer,
		state:    state,
		history:  history,
		metrics:  metrics,
		scanCfg:  scanCfg,
		cfg:      cfg,
		log:      log,
	}
}

// SetEventPublisher attaches a trade-event sink. Without one, transitions
// are not published.
func (l *Lifecycle) SetEventPublisher(p domrepo.EventPublisher) { l.events = p }

// publishEvent emits one lifecycle transition; delivery failure is logged
// and never fails the cycle.
func (l *Lifecycle) publishEvent(ctx context.Context, ev *models.TradeEvent) {
	if l.events == nil {
		return
	}
	ev.At = time.Now().UTC()
	if err := l.events.PublishTradeEvent(ctx, ev); err != nil {
		l.log.Warn("publish trade event",
			logger.String("type", ev.Type),
			logger.String("pair", ev.PairKey),
			logger.Error(err))
	}
}

// EntryDecision is the outcome of one entry-gate evaluation. When Enter is
// false, Reason names the first failing gate.
type EntryDecision struct {
	Enter  bool
	Reason string
	Trade  *models.ActiveTrade
}

// EvaluateEntry runs the full entry conjunction for a watchlist candidate.
// Every required condition must hold; the first failure short-circuits.
func (l *Lifecycle) EvaluateEntry(ctx context.Context, entry *models.WatchlistEntry) (*EntryDecision, error) {
	an, err := l.analyzer.AnalyzePair(ctx, entry.Asset1, entry.Asset2, l.scanCfg.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", entry.PairKey, err)
	}

	actives, err := l.state.ListActiveTrades(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active trades: %w", err)
	}

	threshold := an.Divergence.OptimalEntry
	fit := an.Fitness

	if reason, ok := l.entryGates(an, entry, actives); !ok {
		l.metrics.RecordGateFailure(reason)
		return &EntryDecision{Reason: reason}, nil
	}

	direction := models.DirShortSpread
	if fit.ZScore < 0 {
		direction = models.DirLongSpread
	}

	w1, w2 := betaNeutralWeights(fit.Beta)
	maxZ := maxAbs(quant.RollingZSeries(fit.LogSpread, l.analyzer.ZWindow()))
	now := time.Now().UTC()

	trade := &models.ActiveTrade{
		TradeKey:  fmt.Sprintf("%s:%d", entry.PairKey, now.Unix()),
		PairKey:   entry.PairKey,
		Asset1:    entry.Asset1,
		Asset2:    entry.Asset2,
		Sector:    entry.Sector,
		Direction: direction,

		EntryZ:         fit.ZScore,
		EntryBeta:      fit.Beta,
		EntryHalfLife:  an.HalfLife.Days,
		EntryHurst:     an.Hurst.H,
		EntryThreshold: threshold,
		MaxHistoricalZ: maxZ,
		EntryPrice1:    an.Price1,
		EntryPrice2:    an.Price2,
		Weight1:        w1,
		Weight2:        w2,
		EntryAt:        now,

		CurrentZ:           fit.ZScore,
		CurrentZValid:      fit.ZValid,
		CurrentBeta:        an.DualBeta.DynamicBeta,
		CurrentCorrelation: fit.Correlation,
		CurrentHurst:       an.Hurst.H,
		CurrentDrift:       an.DualBeta.Drift,
		MaxDriftSeen:       an.DualBeta.Drift,
		Price1:             an.Price1,
		Price2:             an.Price2,
		HealthScore:        an.Conviction.Score,
		UpdatedAt:          now,

		OpenFraction: 1.0,
	}
	return &EntryDecision{Enter: true, Trade: trade}, nil
}

// entryGates checks every entry condition in order and names the first one
// that fails.
func (l *Lifecycle) entryGates(an *models.PairAnalysis, entry *models.WatchlistEntry, actives []*models.ActiveTrade) (string, bool) {
	fit := an.Fitness
	threshold := an.Divergence.OptimalEntry

	if !fit.ZValid || math.Abs(fit.ZScore) < threshold {
		return "z_threshold", false
	}
	if fit.Correlation < l.cfg.EntryCorrelationMin {
		return "correlation", false
	}
	if !fit.Cointegrated {
		return "cointegration", false
	}
	if !an.HalfLife.Valid || an.HalfLife.Days > l.scanCfg.MaxHalfLifeDays {
		return "half_life", false
	}
	if l.scanCfg.MinHalfLifeDays > 0 && an.HalfLife.Days < l.scanCfg.MinHalfLifeDays {
		return "half_life_floor", false
	}
	if !l.confirmWindow(fit, threshold) {
		return "confirmation", false
	}
	if !an.Hurst.Valid || an.Hurst.H >= l.scanCfg.HurstEntryMax {
		return "hurst", false
	}
	if len(actives) >= l.cfg.MaxConcurrentTrades {
		return "concurrency_cap", false
	}
	if reason, ok := l.checkOverlap(entry, fit.ZScore, actives); !ok {
		return reason, false
	}
	return "", true
}

// confirmWindow requires the trailing confirmation days to agree with the
// current signal in both direction and magnitude: every recent z shares the
// current sign and their average magnitude reaches the configured fraction of
// the entry threshold.
func (l *Lifecycle) confirmWindow(fit models.Fitness, threshold float64) bool {
	zs := quant.RollingZSeries(fit.LogSpread, l.analyzer.ZWindow())
	recent := lastN(zs, l.cfg.ConfirmDays)
	if len(recent) < l.cfg.ConfirmDays {
		return false
	}

	sign := 1.0
	if fit.ZScore < 0 {
		sign = -1.0
	}
	sum := 0.0
	for _, z := range recent {
		if z*sign < 0 {
			return false
		}
		sum += math.Abs(z)
	}
	return sum/float64(len(recent)) >= l.cfg.ConfirmFraction*threshold
}

// checkOverlap enforces the asset-exposure rules: at most one trade per pair,
// a cap on trades referencing the same underlying asset, and no
// opposite-direction conflict on a shared asset.
func (l *Lifecycle) checkOverlap(entry *models.WatchlistEntry, z float64, actives []*models.ActiveTrade) (string, bool) {
	direction := models.DirShortSpread
	if z < 0 {
		direction = models.DirLongSpread
	}
	candSides := legSides(entry.Asset1, entry.Asset2, direction)

	perAsset := make(map[string]int)
	for _, t := range actives {
		if t.PairKey == entry.PairKey {
			return "pair_already_active", false
		}
		sides := legSides(t.Asset1, t.Asset2, t.Direction)
		for asset, side := range sides {
			perAsset[asset]++
			if want, shared := candSides[asset]; shared && want != side {
				return "direction_conflict", false
			}
		}
	}
	for asset := range candSides {
		if perAsset[asset] >= l.cfg.MaxTradesPerAsset {
			return "asset_overlap", false
		}
	}
	return "", true
}

// legSides maps each underlying asset to +1 (long) or -1 (short) for a trade
// direction over the spread.
func legSides(asset1, asset2, direction string) map[string]int {
	if direction == models.DirLongSpread {
		return map[string]int{asset1: 1, asset2: -1}
	}
	return map[string]int{asset1: -1, asset2: 1}
}

// betaNeutralWeights sizes the two legs so the position is hedge-ratio
// neutral. The weights always sum to 1 for finite beta.
func betaNeutralWeights(beta float64) (w1, w2 float64) {
	ab := math.Abs(beta)
	return 1 / (1 + ab), ab / (1 + ab)
}

// TradePnLPct computes the open PnL in percent for the trade's beta-neutral
// legs at the given prices.
func TradePnLPct(t *models.ActiveTrade, price1, price2 float64) float64 {
	if t.EntryPrice1 <= 0 || t.EntryPrice2 <= 0 {
		return 0
	}
	dir1 := 1.0
	if t.Direction == models.DirShortSpread {
		dir1 = -1.0
	}
	dir2 := -dir1

	r1 := price1/t.EntryPrice1 - 1
	r2 := price2/t.EntryPrice2 - 1
	return 100 * (t.Weight1*dir1*r1 + t.Weight2*dir2*r2)
}

// EvaluateExit applies the exit policy in strict priority order and returns
// nil when no condition holds. The caller must pass the trade with Current*
// fields already refreshed but MaxDriftSeen still holding the prior maximum,
// so the drift-record rule compares against history, not the current cycle.
func (l *Lifecycle) EvaluateExit(t *models.ActiveTrade) *models.ExitAction {
	absZ := math.Abs(t.CurrentZ)

	// 1. partial take-profit
	if t.PnLPct >= l.cfg.PartialTakeProfitPct && !t.PartialExitTaken {
		return &models.ExitAction{
			Reason:        models.ExitPartialTakeProfit,
			CloseFraction: 0.5,
			Detail:        fmt.Sprintf("pnl %.2f%% >= %.2f%%", t.PnLPct, l.cfg.PartialTakeProfitPct),
		}
	}

	// 2. final take-profit
	if t.PnLPct >= l.cfg.FinalTakeProfitPct && t.PartialExitTaken {
		return &models.ExitAction{
			Reason:        models.ExitFinalTakeProfit,
			CloseFraction: 1.0,
			Full:          true,
			Detail:        fmt.Sprintf("pnl %.2f%% >= %.2f%%", t.PnLPct, l.cfg.FinalTakeProfitPct),
		}
	}

	// 3. mean-reversion target
	if t.CurrentZValid && absZ <= l.cfg.ExitZ {
		return &models.ExitAction{
			Reason:        models.ExitMeanReversion,
			CloseFraction: 1.0,
			Full:          true,
			Detail:        fmt.Sprintf("|z| %.2f <= %.2f", absZ, l.cfg.ExitZ),
		}
	}

	// 4. dynamic stop-loss
	stop := math.Max(math.Abs(t.EntryZ)*l.cfg.StopEntryMult,
		math.Max(math.Abs(t.MaxHistoricalZ)*l.cfg.StopHistMult, l.cfg.StopZFloor))
	if t.CurrentZValid && absZ > stop {
		return &models.ExitAction{
			Reason:        models.ExitStopLoss,
			CloseFraction: 1.0,
			Full:          true,
			Detail:        fmt.Sprintf("|z| %.2f > stop %.2f", absZ, stop),
		}
	}

	// 5. graduated beta-drift response
	if act := l.driftResponse(t, absZ); act != nil {
		return act
	}

	// 6. time stop
	if t.EntryHalfLife > 0 {
		elapsed := time.Since(t.EntryAt).Hours() / 24
		if limit := t.EntryHalfLife * l.cfg.TimeStopMult; elapsed > limit {
			return &models.ExitAction{
				Reason:        models.ExitTimeStop,
				CloseFraction: 1.0,
				Full:          true,
				Detail:        fmt.Sprintf("held %.1fd > %.1fd", elapsed, limit),
			}
		}
	}

	// 7. correlation breakdown
	if t.CurrentCorrelation < l.cfg.ExitCorrelationFloor {
		return &models.ExitAction{
			Reason:        models.ExitCorrelationBreak,
			CloseFraction: 1.0,
			Full:          true,
			Detail:        fmt.Sprintf("corr %.2f < %.2f", t.CurrentCorrelation, l.cfg.ExitCorrelationFloor),
		}
	}

	// 8. Hurst regime exit
	if t.CurrentHurst >= l.cfg.HurstExitMax {
		return &models.ExitAction{
			Reason:        models.ExitHurstRegime,
			CloseFraction: 1.0,
			Full:          true,
			Detail:        fmt.Sprintf("hurst %.2f >= %.2f", t.CurrentHurst, l.cfg.HurstExitMax),
		}
	}

	return nil
}

// driftResponse implements the graduated beta-drift rules: moderate drift
// with weak reversion progress halves the position, critical drift with a
// losing position closes it, and drift setting a new record above the trade's
// own prior maximum closes it.
func (l *Lifecycle) driftResponse(t *models.ActiveTrade, absZ float64) *models.ExitAction {
	drift := t.CurrentDrift
	if drift < l.cfg.DriftWarn {
		return nil
	}

	progress := 0.0
	if ez := math.Abs(t.EntryZ); ez > 0 {
		progress = 1 - absZ/ez
	}

	if drift < l.cfg.DriftCritical && progress < 0.25 {
		return &models.ExitAction{
			Reason:        models.ExitBetaDrift,
			CloseFraction: 0.5,
			Detail:        fmt.Sprintf("drift %.2f, reversion progress %.0f%%", drift, progress*100),
		}
	}
	if drift >= l.cfg.DriftCritical && t.PnLPct < 0 {
		return &models.ExitAction{
			Reason:        models.ExitBetaDrift,
			CloseFraction: 1.0,
			Full:          true,
			Detail:        fmt.Sprintf("critical drift %.2f with pnl %.2f%%", drift, t.PnLPct),
		}
	}
	if drift > t.MaxDriftSeen {
		return &models.ExitAction{
			Reason:        models.ExitBetaDrift,
			CloseFraction: 1.0,
			Full:          true,
			Detail:        fmt.Sprintf("drift %.2f exceeds prior max %.2f", drift, t.MaxDriftSeen),
		}
	}
	return nil
}

func maxAbs(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

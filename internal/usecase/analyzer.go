package usecase

import (
	"context"
	"fmt"
	"time"

	"PairScout/internal/domain/models"
	domrepo "PairScout/internal/domain/repository"
	domservice "PairScout/internal/domain/service"
	svccache "PairScout/internal/service/cache"
	"PairScout/internal/services/features"
	"PairScout/internal/services/quant"
	"PairScout/pkg/config"
	"PairScout/pkg/logger"
)

const analysisCacheTTL = 10 * time.Minute

// PairAnalyzer runs the full statistical pipeline for one pair: fitness,
// half-life, Hurst, dual beta, divergence calibration, regime and conviction.
// Results are memoized briefly so the monitor and the API layer don't
// recompute the same pair back to back.
type PairAnalyzer struct {
	market  domservice.MarketData
	store   domrepo.FeatureStore
	cache   *svccache.TTLCache
	cfg     config.ScannerConfig
	weights quant.ConvictionWeights
	divCfg  quant.DivergenceConfig
	log     *logger.Logger
}

func NewPairAnalyzer(
	market domservice.MarketData,
	store domrepo.FeatureStore,
	cfg config.ScannerConfig,
	weights quant.ConvictionWeights,
	divCfg quant.DivergenceConfig,
	log *logger.Logger,
) *PairAnalyzer {
	return &PairAnalyzer{
		market:  market,
		store:   store,
		cache:   svccache.NewTTLCache(),
		cfg:     cfg,
		weights: weights,
		divCfg:  divCfg,
		log:     log,
	}
}

// ZWindow exposes the rolling window so callers recomputing z-series from a
// returned spread stay consistent with the analysis.
func (a *PairAnalyzer) ZWindow() int { return a.cfg.ZWindow }

// AnalyzePair fetches aligned daily history for both legs and computes the
// complete metrics bundle.
func (a *PairAnalyzer) AnalyzePair(ctx context.Context, asset1, asset2 string, days int) (*models.PairAnalysis, error) {
	if days <= 0 {
		days = a.cfg.HistoryDays
	}
	key := fmt.Sprintf("analyze:%s:%d", models.PairKey(asset1, asset2), days)
	if v, ok := a.cache.Get(key); ok {
		if an, ok2 := v.(*models.PairAnalysis); ok2 {
			return an, nil
		}
	}

	p1, p2, err := a.fetchAligned(ctx, asset1, asset2, days)
	if err != nil {
		return nil, err
	}

	fit, err := quant.AnalyzeFitness(p1, p2, a.cfg.ZWindow)
	if err != nil {
		return nil, fmt.Errorf("fitness %s/%s: %w", asset1, asset2, err)
	}

	spread := fit.LogSpread
	hl := quant.EstimateHalfLife([]quant.SpreadWindow{
		{Days: a.cfg.StructuralWindow, Spread: lastN(spread, a.cfg.StructuralWindow)},
		{Days: a.cfg.DynamicWindow, Spread: lastN(spread, a.cfg.DynamicWindow)},
	})
	hurst := quant.Hurst(lastN(spread, a.cfg.HurstWindow))
	dual := quant.DualBeta(p1, p2, a.cfg.StructuralWindow, a.cfg.DynamicWindow)

	zs := a.divergenceSeries(ctx, asset1, asset2, fit.Beta, days)
	dailyZ := quant.RollingZSeries(spread, a.cfg.ZWindow)
	if len(zs) == 0 {
		zs = dailyZ
	}
	profile := quant.ProfileDivergence(zs, a.divCfg)

	regime := quant.ClassifyRegime(quant.RegimeInput{
		Z:          fit.ZScore,
		ZValid:     fit.ZValid,
		Threshold:  profile.OptimalEntry,
		RecentZ:    lastN(dailyZ, 5),
		Hurst:      hurst.H,
		HurstValid: hurst.Valid,
	})

	conviction := quant.ScoreConviction(quant.ConvictionInput{
		Correlation:  fit.Correlation,
		RSquared:     dual.RSquared,
		HalfLife:     hl,
		Hurst:        hurst,
		Cointegrated: fit.Cointegrated,
		BetaDrift:    dual.Drift,
	}, a.weights)

	an := &models.PairAnalysis{
		Asset1:     asset1,
		Asset2:     asset2,
		Timestamp:  time.Now().UTC(),
		Price1:     p1[len(p1)-1],
		Price2:     p2[len(p2)-1],
		Fitness:    fit,
		HalfLife:   hl,
		Hurst:      hurst,
		DualBeta:   dual,
		Regime:     regime,
		Conviction: conviction,
		Divergence: profile,
	}
	a.cache.Set(key, an, analysisCacheTTL)
	return an, nil
}

func (a *PairAnalyzer) fetchAligned(ctx context.Context, asset1, asset2 string, days int) ([]float64, []float64, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	c1, err := a.market.GetCandles(ctx, asset1, "1d", from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", asset1, err)
	}
	c2, err := a.market.GetCandles(ctx, asset2, "1d", from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", asset2, err)
	}

	p1, p2 := features.AlignCandles(c1, c2)
	if len(p1) < quant.MinFitnessPoints {
		return nil, nil, fmt.Errorf("%s/%s aligned to %d points: %w",
			asset1, asset2, len(p1), quant.ErrInsufficientData)
	}
	return p1, p2, nil
}

// divergenceSeries builds a finer-grained z-score history from locally stored
// hourly candles when available. The profiler degrades gracefully to the
// daily series when the local store has no coverage.
func (a *PairAnalyzer) divergenceSeries(ctx context.Context, asset1, asset2 string, beta float64, days int) []float64 {
	if a.store == nil {
		return nil
	}
	n := days * 24
	c1, err := a.store.GetLatestNCandles(ctx, asset1, n, domrepo.TF1h)
	if err != nil || len(c1) == 0 {
		return nil
	}
	c2, err := a.store.GetLatestNCandles(ctx, asset2, n, domrepo.TF1h)
	if err != nil || len(c2) == 0 {
		return nil
	}

	p1, p2 := features.AlignCandles(c1, c2)
	if len(p1) < a.cfg.ZWindow*24 {
		return nil
	}
	spread := quant.LogSpread(p1, p2, beta)
	return quant.RollingZSeries(spread, a.cfg.ZWindow*24)
}

func lastN(xs []float64, n int) []float64 {
	if n <= 0 || len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

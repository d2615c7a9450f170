package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"PairScout/internal/domain/models"
	domrepo "PairScout/internal/domain/repository"
	domservice "PairScout/internal/domain/service"
	"PairScout/pkg/config"
	"PairScout/pkg/logger"
)

// PairScanner periodically rebuilds the watchlist: it filters the liquid
// universe, enumerates unordered pairs per sector, runs the analysis pipeline
// on each candidate and persists the top ranked pairs, replacing stale
// entries. Per-pair failures are recorded and skipped, never aborting the
// cycle.
type PairScanner struct {
	analyzer *PairAnalyzer
	market   domservice.MarketData
	state    domrepo.StateStore
	metrics  domrepo.Metrics
	cfg      config.ScannerConfig
	log      *logger.Logger
}

func NewPairScanner(
	analyzer *PairAnalyzer,
	market domservice.MarketData,
	state domrepo.StateStore,
	metrics domrepo.Metrics,
	cfg config.ScannerConfig,
	log *logger.Logger,
) *PairScanner {
	return &PairScanner{
		analyzer: analyzer,
		market:   market,
		state:    state,
		metrics:  metrics,
		cfg:      cfg,
		log:      log,
	}
}

type candidatePair struct {
	a1, a2, sector string
}

// RunScan executes one full scan cycle.
func (s *PairScanner) RunScan(ctx context.Context) (*models.CycleReport, error) {
	report := &models.CycleReport{Job: "scan", StartedAt: time.Now().UTC()}

	universe, err := s.market.GetUniverse(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch universe: %w", err)
	}

	excluded := make(map[string]bool)
	if symbols, err := s.state.ListExclusions(ctx); err != nil {
		s.log.Warn("list exclusions", logger.Error(err))
	} else {
		for _, sym := range symbols {
			excluded[sym] = true
		}
	}

	pairs := s.enumeratePairs(universe, excluded)
	s.log.Info("scan cycle started",
		logger.Int("universe", len(universe)),
		logger.Int("candidates", len(pairs)))

	bySector := make(map[string][]*models.WatchlistEntry)
	for _, cp := range pairs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		entry, ok := s.evaluatePair(ctx, cp, report)
		report.Evaluated++
		if !ok {
			report.Skipped++
			continue
		}
		bySector[cp.sector] = append(bySector[cp.sector], entry)
	}
	s.metrics.RecordPairsScanned(report.Evaluated)

	keep := make(map[string]*models.WatchlistEntry)
	for sector, entries := range bySector {
		sort.Slice(entries, func(i, j int) bool { return entries[i].RankScore > entries[j].RankScore })
		k := s.cfg.TopKPerSector
		if len(entries) < k {
			k = len(entries)
		}
		for _, e := range entries[:k] {
			keep[e.PairKey] = e
			report.Actions = append(report.Actions,
				fmt.Sprintf("watchlist %s (%s) rank %.1f", e.PairKey, sector, e.RankScore))
		}
	}

	if err := s.persistWatchlist(ctx, keep, report); err != nil {
		return report, err
	}

	report.Duration = time.Since(report.StartedAt).String()
	return report, nil
}

// enumeratePairs filters the universe and builds unordered within-sector
// combinations, or all combinations when cross-sector scanning is enabled.
func (s *PairScanner) enumeratePairs(universe []models.UniverseAsset, excluded map[string]bool) []candidatePair {
	groups := make(map[string][]string)
	for _, asset := range universe {
		if excluded[asset.Symbol] {
			continue
		}
		sector := asset.Sector
		if s.cfg.CrossSector {
			sector = "all"
		}
		if sector == "" {
			continue
		}
		groups[sector] = append(groups[sector], asset.Symbol)
	}

	var out []candidatePair
	for sector, symbols := range groups {
		sort.Strings(symbols)
		for i := 0; i < len(symbols); i++ {
			for j := i + 1; j < len(symbols); j++ {
				out = append(out, candidatePair{a1: symbols[i], a2: symbols[j], sector: sector})
			}
		}
	}
	return out
}

func (s *PairScanner) evaluatePair(ctx context.Context, cp candidatePair, report *models.CycleReport) (*models.WatchlistEntry, bool) {
	an, err := s.analyzer.AnalyzePair(ctx, cp.a1, cp.a2, s.cfg.HistoryDays)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("%s-%s: %v", cp.a1, cp.a2, err))
		return nil, false
	}

	if gate, ok := s.passGates(an); !ok {
		s.metrics.RecordGateFailure(gate)
		return nil, false
	}

	now := time.Now().UTC()
	return &models.WatchlistEntry{
		PairKey:        models.PairKey(cp.a1, cp.a2),
		Asset1:         cp.a1,
		Asset2:         cp.a2,
		Sector:         cp.sector,
		Correlation:    an.Fitness.Correlation,
		Beta:           an.Fitness.Beta,
		ZScore:         an.Fitness.ZScore,
		ZValid:         an.Fitness.ZValid,
		Cointegrated:   an.Fitness.Cointegrated,
		HalfLifeDays:   an.HalfLife.Days,
		Hurst:          an.Hurst.H,
		EntryThreshold: an.Divergence.OptimalEntry,
		Conviction:     an.Conviction.Score,
		RankScore:      an.Conviction.Score,
		Status:         models.WatchStatusCandidate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, true
}

// passGates applies the scan-time admission gates; the returned name
// identifies the first failing gate for metrics.
func (s *PairScanner) passGates(an *models.PairAnalysis) (string, bool) {
	if an.Fitness.Correlation < s.cfg.MinCorrelation {
		return "correlation", false
	}
	if !an.Fitness.Cointegrated {
		return "cointegration", false
	}
	if !an.HalfLife.Valid || an.HalfLife.Days > s.cfg.MaxHalfLifeDays {
		return "half_life", false
	}
	if s.cfg.MinHalfLifeDays > 0 && an.HalfLife.Days < s.cfg.MinHalfLifeDays {
		return "half_life_floor", false
	}
	if !an.Hurst.Valid || an.Hurst.H >= s.cfg.HurstEntryMax {
		return "hurst", false
	}
	return "", true
}

// persistWatchlist upserts the new top-K set and removes stale candidates.
// Entries flagged active by the lifecycle are never removed here.
func (s *PairScanner) persistWatchlist(ctx context.Context, keep map[string]*models.WatchlistEntry, report *models.CycleReport) error {
	existing, err := s.state.ListWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("list watchlist: %w", err)
	}

	for _, old := range existing {
		if fresh, ok := keep[old.PairKey]; ok {
			fresh.Status = old.Status
			fresh.CreatedAt = old.CreatedAt
			continue
		}
		if old.Status == models.WatchStatusActive {
			continue
		}
		if err := s.state.DeleteWatchlistEntry(ctx, old.PairKey); err != nil {
			s.log.Warn("delete stale watchlist entry",
				logger.String("pair", old.PairKey), logger.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("delete %s: %v", old.PairKey, err))
		}
	}

	for _, e := range keep {
		if err := s.state.UpsertWatchlistEntry(ctx, e); err != nil {
			s.log.Warn("upsert watchlist entry",
				logger.String("pair", e.PairKey), logger.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("upsert %s: %v", e.PairKey, err))
		}
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"PairScout/internal/domain/models"
	domrepo "PairScout/internal/domain/repository"
)

// CandlesUseCase provides business logic for retrieving candles.
type CandlesUseCase struct {
	store domrepo.FeatureStore
}

func NewCandlesUseCase(store domrepo.FeatureStore) *CandlesUseCase {
	return &CandlesUseCase{store: store}
}

type GetCandlesParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Symbol    string
	Timeframe string
	From      time.Time
	To        time.Time
	Count     int
	Candles   []models.Candle
}

// GetLatest returns the most recent n candles for a symbol.
func (uc *CandlesUseCase) GetLatest(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (*GetCandlesResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if n <= 0 {
		n = 500
	}
	candles, err := uc.store.GetLatestNCandles(ctx, symbol, n, tf)
	if err != nil {
		return nil, fmt.Errorf("get latest candles: %w", err)
	}

	res := &GetCandlesResult{
		Symbol:    symbol,
		Timeframe: string(tf),
		Count:     len(candles),
		Candles:   candles,
	}
	if len(candles) > 0 {
		res.From = candles[0].Bucket
		res.To = candles[len(candles)-1].Bucket
	}
	return res, nil
}

func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	candles, err := uc.store.GetCandles(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) > p.Limit {
		candles = candles[:p.Limit]
	}

	return &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(candles),
		Candles:   candles,
	}, nil
}

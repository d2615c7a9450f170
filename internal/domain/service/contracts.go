package service

import (
	"context"
	"time"

	"PairScout/internal/domain/models"
)

// MarketData fetches historical candles and universe snapshots from the
// exchange REST API. Implementations retry transient failures with backoff;
// callers tolerate empty or short responses by skipping the symbol for the
// current cycle.
type MarketData interface {
	GetCandles(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Candle, error)
	GetUniverse(ctx context.Context) ([]models.UniverseAsset, error)
}

// Notifier pushes a human-readable status message per cycle.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

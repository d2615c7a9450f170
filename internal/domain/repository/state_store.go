package repository

import (
	"context"

	"PairScout/internal/domain/models"
)

// StateStore persists the mutable trading state as keyed records. All writes
// are idempotent upserts keyed by pair/trade identifier so an interrupted
// cycle can be re-run safely.
type StateStore interface {
	UpsertWatchlistEntry(ctx context.Context, e *models.WatchlistEntry) error
	GetWatchlistEntry(ctx context.Context, pairKey string) (*models.WatchlistEntry, error)
	ListWatchlist(ctx context.Context) ([]*models.WatchlistEntry, error)
	DeleteWatchlistEntry(ctx context.Context, pairKey string) error

	UpsertActiveTrade(ctx context.Context, t *models.ActiveTrade) error
	GetActiveTrade(ctx context.Context, tradeKey string) (*models.ActiveTrade, error)
	ListActiveTrades(ctx context.Context) ([]*models.ActiveTrade, error)
	DeleteActiveTrade(ctx context.Context, tradeKey string) error

	AddExclusion(ctx context.Context, symbol string) error
	RemoveExclusion(ctx context.Context, symbol string) error
	ListExclusions(ctx context.Context) ([]string, error)

	GetSchedulerState(ctx context.Context) (*models.SchedulerState, error)
	SaveSchedulerState(ctx context.Context, s *models.SchedulerState) error
}

// HistoryStore appends closed trades and serves aggregate outcome queries.
// Records are immutable once written.
type HistoryStore interface {
	Append(ctx context.Context, r *models.HistoryRecord) error
	List(ctx context.Context, pairKey string, limit int) ([]*models.HistoryRecord, error)
	Stats(ctx context.Context) (*models.TradeStats, error)
}

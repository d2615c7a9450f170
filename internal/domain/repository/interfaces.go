package repository

import (
	"context"
	"time"

	"PairScout/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

type Publisher interface {
	Publish(ctx context.Context, t *models.Tick) error
	PublishBatch(ctx context.Context, ticks []*models.Tick) error
	Close() error
}

type TickStorage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, t *models.Tick) error
	StoreBatch(ctx context.Context, ticks []*models.Tick) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Tick, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// EventPublisher emits trade lifecycle events for downstream consumers.
// Implementations must never block a monitor cycle on broker latency beyond
// their own write timeout.
type EventPublisher interface {
	PublishTradeEvent(ctx context.Context, ev *models.TradeEvent) error
}

type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordCycleDuration(job string, seconds float64)
	RecordPairsScanned(n int)
	RecordGateFailure(gate string)
	RecordTradesOpen(n int)
	RecordExit(reason string)
}

package repository

import (
	"context"

	"PairScout/internal/domain/models"
	"PairScout/internal/domain/repository"
	pkgkafka "PairScout/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher over the shared producer.
// Events are keyed by pair so one pair's transitions stay ordered.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a trade-event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishTradeEvent(ctx context.Context, ev *models.TradeEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.PairKey), ev)
}

// NoopEventPublisher drops events; used when no trade-events topic is
// configured.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishTradeEvent(context.Context, *models.TradeEvent) error { return nil }

package notify

import (
	"context"
	"fmt"

	domservice "PairScout/internal/domain/service"
	"PairScout/pkg/queue"
)

const msgTypeCycleStatus = "cycle_status"

// statusPayload is the queue message body for one cycle status line.
type statusPayload struct {
	Message string `json:"message"`
}

// Queued decouples cycle summaries from delivery: Notify enqueues the message
// and returns immediately, a queue worker pushes it through the wrapped
// notifier with retries.
type Queued struct {
	q queue.QueueService
}

func NewQueued(q queue.QueueService) *Queued { return &Queued{q: q} }

var _ domservice.Notifier = (*Queued)(nil)

func (n *Queued) Notify(ctx context.Context, message string) error {
	if err := n.q.PublishMessage(ctx, msgTypeCycleStatus, statusPayload{Message: message}); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// DeliveryJob is the queue consumer side: it hands dequeued status messages
// to the real notifier.
type DeliveryJob struct {
	sink domservice.Notifier
}

func NewDeliveryJob(sink domservice.Notifier) *DeliveryJob { return &DeliveryJob{sink: sink} }

var _ queue.Job = (*DeliveryJob)(nil)

func (j *DeliveryJob) Name() string { return "notify_delivery" }
func (j *DeliveryJob) Type() string { return msgTypeCycleStatus }

func (j *DeliveryJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[statusPayload](payload)
	if err != nil {
		return fmt.Errorf("parse status payload: %w", err)
	}
	return j.sink.Notify(ctx, p.Message)
}

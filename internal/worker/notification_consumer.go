package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/logger"
	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/queue"
	"github.com/IlliaFransua/burger-order-api/internal/service"
)

type EventSource interface {
	Consume(ctx context.Context, handle queue.Handler) error
}

// NotificationConsumer turns queued OrderCreated events into first delivery
// attempts.
type NotificationConsumer struct {
	source     EventSource
	dispatcher *service.Dispatcher
	log        *zap.Logger
}

func NewNotificationConsumer(source EventSource, dispatcher *service.Dispatcher, log *zap.Logger) *NotificationConsumer {
	log = logger.OrNop(log)
	return &NotificationConsumer{source: source, dispatcher: dispatcher, log: log}
}

func (c *NotificationConsumer) Start(ctx context.Context) {
	c.log.Info("starting notification consumer")
	if err := c.source.Consume(ctx, c.handle); err != nil {
		c.log.Error("notification consumer failed", zap.Error(err))
		return
	}
	c.log.Info("notification consumer stopped")
}

// handle only fails when the record could not be stored; delivery errors are
// already captured on the record for the retry worker.
func (c *NotificationConsumer) handle(ctx context.Context, event model.OrderCreatedEvent) error {
	_, err := c.dispatcher.SendNew(ctx, event.To, event.Subject, event.Body)
	return err
}

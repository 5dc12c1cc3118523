package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/logger"
	"github.com/IlliaFransua/burger-order-api/internal/model"
)

const eventTypeOrderCreated = "order.created"

type PubSubPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

func NewPubSubPublisher(topic *pubsub.Topic) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub publisher: topic is required")
	}
	return &PubSubPublisher{topic: topic, marshal: json.Marshal}, nil
}

// PublishOrderCreated waits for the server to accept the message.
func (p *PubSubPublisher) PublishOrderCreated(ctx context.Context, event model.OrderCreatedEvent) error {
	data, err := p.marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order created event: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"type": eventTypeOrderCreated},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish order created event: %w", err)
	}
	return nil
}

type PubSubConsumer struct {
	sub *pubsub.Subscription
	log *zap.Logger
}

func NewPubSubConsumer(sub *pubsub.Subscription, log *zap.Logger) (*PubSubConsumer, error) {
	if sub == nil {
		return nil, errors.New("pubsub consumer: subscription is required")
	}
	log = logger.OrNop(log)
	return &PubSubConsumer{sub: sub, log: log}, nil
}

// Consume blocks until ctx ends. The client library runs callbacks
// concurrently.
func (c *PubSubConsumer) Consume(ctx context.Context, handle Handler) error {
	err := c.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		c.handleMessage(ctx, msg.ID, msg.Data, handle, msg.Ack, msg.Nack)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("receive order events: %w", err)
	}
	return nil
}

// handleMessage acks undecodable payloads so they do not loop forever and
// nacks handler failures for redelivery.
func (c *PubSubConsumer) handleMessage(ctx context.Context, id string, data []byte, handle Handler, ack, nack func()) {
	var event model.OrderCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		c.log.Error("dropping malformed order event", zap.String("message_id", id), zap.Error(err))
		ack()
		return
	}
	if err := handle(ctx, event); err != nil {
		c.log.Warn("order event handling failed, requesting redelivery", zap.String("message_id", id), zap.Error(err))
		nack()
		return
	}
	ack()
}

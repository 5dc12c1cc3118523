// Package queue carries OrderCreated events from the order path to the
// notification dispatcher.
package queue

import (
	"context"

	"github.com/IlliaFransua/burger-order-api/internal/model"
)

// Handler processes one event. A non-nil error asks for redelivery where the
// backend supports it.
type Handler func(ctx context.Context, event model.OrderCreatedEvent) error

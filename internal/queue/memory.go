package queue

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/logger"
	"github.com/IlliaFransua/burger-order-api/internal/model"
)

var ErrClosed = errors.New("queue closed")

const defaultBuffer = 256

// Memory is an in-process channel queue. Publish blocks when the buffer is
// full.
type Memory struct {
	events    chan model.OrderCreatedEvent
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.Logger
}

func NewMemory(buffer int, log *zap.Logger) *Memory {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	log = logger.OrNop(log)
	return &Memory{
		events: make(chan model.OrderCreatedEvent, buffer),
		done:   make(chan struct{}),
		log:    log,
	}
}

func (q *Memory) PublishOrderCreated(ctx context.Context, event model.OrderCreatedEvent) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.events <- event:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume runs handle for every event on its own goroutine until ctx ends or
// the queue is closed, then waits for running handlers. Failed events are
// logged and dropped.
func (q *Memory) Consume(ctx context.Context, handle Handler) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-q.done:
			return nil
		case event := <-q.events:
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := handle(ctx, event); err != nil {
					q.log.Error("order event handling failed", zap.String("subject", event.Subject), zap.Error(err))
				}
			}()
		}
	}
}

func (q *Memory) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}

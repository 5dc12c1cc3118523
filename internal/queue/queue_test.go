package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/model"
)

func TestMemoryDeliversEveryEvent(t *testing.T) {
	q := NewMemory(4, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu  sync.Mutex
		got []string
	)
	all := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- q.Consume(ctx, func(ctx context.Context, e model.OrderCreatedEvent) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, e.Subject)
			if len(got) == 3 {
				close(all)
			}
			return nil
		})
	}()

	for _, s := range []string{"New Order #1", "New Order #2", "New Order #3"} {
		require.NoError(t, q.PublishOrderCreated(context.Background(), model.OrderCreatedEvent{Subject: s}))
	}

	select {
	case <-all:
	case <-time.After(2 * time.Second):
		t.Fatal("events were not consumed")
	}
	cancel()
	require.NoError(t, <-done)
	require.ElementsMatch(t, []string{"New Order #1", "New Order #2", "New Order #3"}, got)
}

func TestMemoryPublishAfterClose(t *testing.T) {
	q := NewMemory(1, nil)
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	require.ErrorIs(t, q.PublishOrderCreated(context.Background(), model.OrderCreatedEvent{}), ErrClosed)
}

func TestMemoryPublishHonoursContext(t *testing.T) {
	q := NewMemory(1, nil)
	require.NoError(t, q.PublishOrderCreated(context.Background(), model.OrderCreatedEvent{}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, q.PublishOrderCreated(ctx, model.OrderCreatedEvent{}), context.DeadlineExceeded)
}

func TestPubSubHandleMessage(t *testing.T) {
	_, err := NewPubSubConsumer(nil, nil)
	require.Error(t, err)

	c := &PubSubConsumer{log: zap.NewNop()}

	var acks, nacks int
	ack := func() { acks++ }
	nack := func() { nacks++ }

	var seen model.OrderCreatedEvent
	ok := func(ctx context.Context, e model.OrderCreatedEvent) error {
		seen = e
		return nil
	}
	failing := func(context.Context, model.OrderCreatedEvent) error { return errors.New("store down") }

	c.handleMessage(context.Background(), "1", []byte(`{"to":"a@b.c","subject":"New Order #7","body":"x"}`), ok, ack, nack)
	require.Equal(t, 1, acks)
	require.Equal(t, "New Order #7", seen.Subject)

	c.handleMessage(context.Background(), "2", []byte(`{"to":`), ok, ack, nack)
	require.Equal(t, 2, acks)

	c.handleMessage(context.Background(), "3", []byte(`{"to":"a@b.c"}`), failing, ack, nack)
	require.Equal(t, 2, acks)
	require.Equal(t, 1, nacks)
}

func TestNewPubSubPublisherRequiresTopic(t *testing.T) {
	_, err := NewPubSubPublisher(nil)
	require.Error(t, err)
}

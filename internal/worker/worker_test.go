package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/queue"
	"github.com/IlliaFransua/burger-order-api/internal/service"
	"github.com/IlliaFransua/burger-order-api/internal/store/memory"
)

type stubMailer struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (m *stubMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, subject)
	return m.err
}

func (m *stubMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func saveAll(t *testing.T, store *memory.Notifications, recs ...model.Notification) {
	t.Helper()
	for i := range recs {
		require.NoError(t, store.Save(context.Background(), &recs[i]))
	}
}

func TestProcessBatchRetriesEligibleRecords(t *testing.T) {
	store := memory.NewNotifications()
	saveAll(t, store,
		model.Notification{ID: "a", Subject: "a", Status: model.NotificationError, Attempts: 1},
		model.Notification{ID: "b", Subject: "b", Status: model.NotificationError, Attempts: service.MaxDeliveryAttempts},
		model.Notification{ID: "c", Subject: "c", Status: model.NotificationSent},
	)
	mailer := &stubMailer{}
	w := NewRetryWorker(service.NewDispatcher(store, mailer, nil), time.Minute, nil)

	require.NoError(t, w.processBatch(context.Background()))
	require.Equal(t, []string{"a"}, mailer.calls)

	a, _ := store.Get("a")
	require.Equal(t, model.NotificationSent, a.Status)
	require.Equal(t, 1, a.Attempts)

	b, _ := store.Get("b")
	require.Equal(t, model.NotificationError, b.Status)
}

func TestRecordStopsAtCeiling(t *testing.T) {
	store := memory.NewNotifications()
	saveAll(t, store, model.Notification{ID: "x", Status: model.NotificationError, Attempts: 1})
	mailer := &stubMailer{err: errors.New("smtp down")}
	w := NewRetryWorker(service.NewDispatcher(store, mailer, nil), time.Minute, nil)

	for i := 0; i < 10; i++ {
		require.NoError(t, w.processBatch(context.Background()))
	}

	x, _ := store.Get("x")
	require.Equal(t, service.MaxDeliveryAttempts, x.Attempts)
	require.Equal(t, model.NotificationError, x.Status)
	require.Equal(t, service.MaxDeliveryAttempts-1, mailer.count())
}

func TestRetryWorkerStartStops(t *testing.T) {
	store := memory.NewNotifications()
	saveAll(t, store, model.Notification{ID: "a", Status: model.NotificationError})
	mailer := &stubMailer{}
	w := NewRetryWorker(service.NewDispatcher(store, mailer, nil), 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return mailer.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRetryWorkerRunsOnStart(t *testing.T) {
	store := memory.NewNotifications()
	saveAll(t, store, model.Notification{ID: "a", Status: model.NotificationError})
	mailer := &stubMailer{}
	w := NewRetryWorker(service.NewDispatcher(store, mailer, nil), time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.Eventually(t, func() bool {
		a, _ := store.Get("a")
		return a.Status == model.NotificationSent
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, 1, mailer.count())
}

func TestNotificationConsumerDispatchesEvents(t *testing.T) {
	store := memory.NewNotifications()
	mailer := &stubMailer{err: errors.New("smtp down")}
	q := queue.NewMemory(4, nil)
	c := NewNotificationConsumer(q, service.NewDispatcher(store, mailer, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(stopped)
	}()

	require.NoError(t, q.PublishOrderCreated(context.Background(), model.OrderCreatedEvent{To: "a@b.c", Subject: "New Order #1", Body: "Order details"}))

	require.Eventually(t, func() bool { return len(store.All()) == 1 && store.All()[0].Attempts == 1 }, time.Second, 5*time.Millisecond)
	rec := store.All()[0]
	require.Equal(t, model.NotificationError, rec.Status)
	require.Equal(t, "New Order #1", rec.Subject)

	cancel()
	<-stopped
}

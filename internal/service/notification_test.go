package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/store/memory"
)

type scriptedMailer struct {
	results []error
	calls   int
	panicOn int
}

func (m *scriptedMailer) Send(ctx context.Context, to, subject, body string) error {
	m.calls++
	if m.panicOn == m.calls {
		panic("smtp client nil")
	}
	if len(m.results) == 0 {
		return nil
	}
	err := m.results[0]
	m.results = m.results[1:]
	return err
}

type failingNotificationStore struct {
	*memory.Notifications
	saves int
}

func (s *failingNotificationStore) Save(ctx context.Context, rec *model.Notification) error {
	s.saves++
	return errors.New("firestore unavailable")
}

func newDispatcher(store NotificationStore, mailer Mailer) *Dispatcher {
	d := NewDispatcher(store, mailer, nil)
	d.now = func() time.Time { return time.Date(2024, 2, 2, 8, 0, 0, 0, time.UTC) }
	ids := 0
	d.newID = func() string {
		ids++
		return "n" + string(rune('0'+ids))
	}
	return d
}

func TestSendNewSuccess(t *testing.T) {
	store := memory.NewNotifications()
	d := newDispatcher(store, &scriptedMailer{})

	rec, err := d.SendNew(context.Background(), "ops@example.com", "New Order #1", "Order details: ...")
	require.NoError(t, err)
	require.Equal(t, model.NotificationSent, rec.Status)
	require.Zero(t, rec.Attempts)
	require.Nil(t, rec.LastError)

	stored, ok := store.Get(rec.ID)
	require.True(t, ok)
	require.Equal(t, model.NotificationSent, stored.Status)
}

func TestSendFailureIsRecorded(t *testing.T) {
	store := memory.NewNotifications()
	d := newDispatcher(store, &scriptedMailer{results: []error{errors.New("smtp down")}})

	rec, err := d.SendNew(context.Background(), "ops@example.com", "s", "b")
	require.NoError(t, err)
	require.Equal(t, model.NotificationError, rec.Status)
	require.Equal(t, 1, rec.Attempts)
	require.NotNil(t, rec.LastAttemptAt)
	require.Equal(t, "[errorString]: [smtp down]", *rec.LastError)

	stored, ok := store.Get(rec.ID)
	require.True(t, ok)
	require.Equal(t, model.NotificationError, stored.Status)
	require.Equal(t, 1, stored.Attempts)
}

func TestAttemptsCountOnlyFailures(t *testing.T) {
	store := memory.NewNotifications()
	fail := errors.New("timeout")
	d := newDispatcher(store, &scriptedMailer{results: []error{fail, fail, fail, nil}})

	rec, err := d.SendNew(context.Background(), "a@b.c", "s", "b")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Send(context.Background(), rec))
	}

	require.Equal(t, model.NotificationSent, rec.Status)
	require.Equal(t, 3, rec.Attempts)
	require.Nil(t, rec.LastError)
}

func TestSendRecoversMailerPanic(t *testing.T) {
	store := memory.NewNotifications()
	d := newDispatcher(store, &scriptedMailer{panicOn: 1})

	rec, err := d.SendNew(context.Background(), "a@b.c", "s", "b")
	require.NoError(t, err)
	require.Equal(t, model.NotificationError, rec.Status)
	require.Equal(t, "[PanicError]: [panic: smtp client nil]", *rec.LastError)
}

func TestSendReportsWriteBackFailure(t *testing.T) {
	store := &failingNotificationStore{Notifications: memory.NewNotifications()}
	d := newDispatcher(store, &scriptedMailer{})

	rec := &model.Notification{ID: "x", Status: model.NotificationError, Attempts: 2}
	err := d.Send(context.Background(), rec)
	require.Error(t, err)
	require.Equal(t, 1, store.saves)
	require.Equal(t, model.NotificationSent, rec.Status)
}

func TestSendPersistsAfterCancellation(t *testing.T) {
	store := memory.NewNotifications()
	d := newDispatcher(store, &scriptedMailer{results: []error{context.Canceled}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &model.Notification{ID: "y", Status: model.NotificationNew}
	require.NoError(t, d.Send(ctx, rec))

	stored, ok := store.Get("y")
	require.True(t, ok)
	require.Equal(t, model.NotificationError, stored.Status)
}

func TestRetryableHonoursCeiling(t *testing.T) {
	store := memory.NewNotifications()
	ctx := context.Background()
	for id, attempts := range map[string]int{"a": 1, "b": MaxDeliveryAttempts - 1, "c": MaxDeliveryAttempts, "d": 9} {
		rec := model.Notification{ID: id, Status: model.NotificationError, Attempts: attempts}
		require.NoError(t, store.Save(ctx, &rec))
	}
	d := newDispatcher(store, &scriptedMailer{})

	recs, err := d.Retryable(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "a", recs[0].ID)
	require.Equal(t, "b", recs[1].ID)
}

func TestDescribeError(t *testing.T) {
	require.Equal(t, "[errorString]: [boom]", describeError(errors.New("boom")))
	require.Equal(t, "[TechnicalError]: [op (init): x]", describeError(&TechnicalError{Op: "op", Stage: StageInit, Err: errors.New("x")}))
}

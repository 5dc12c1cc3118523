package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/logger"
	"github.com/IlliaFransua/burger-order-api/internal/model"
)

// MaxDeliveryAttempts is the retry ceiling. Records at or above it are left
// in ERROR for good.
const MaxDeliveryAttempts = 5

// PanicError carries a value recovered from a mail transport panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

type Dispatcher struct {
	store  NotificationStore
	mailer Mailer
	now    func() time.Time
	newID  func() string
	log    *zap.Logger
}

func NewDispatcher(store NotificationStore, mailer Mailer, log *zap.Logger) *Dispatcher {
	log = logger.OrNop(log)
	return &Dispatcher{
		store:  store,
		mailer: mailer,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		log:    log,
	}
}

// SendNew records a NEW notification and makes the first delivery attempt.
func (d *Dispatcher) SendNew(ctx context.Context, to, subject, body string) (*model.Notification, error) {
	rec := &model.Notification{
		ID:      d.newID(),
		To:      to,
		Subject: subject,
		Body:    body,
		Status:  model.NotificationNew,
	}
	if err := d.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save new notification: %w", err)
	}
	if err := d.Send(ctx, rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// Defer records a notification that could not be handed to the queue. It is
// stored as ERROR with no attempts so the retry worker picks it up.
func (d *Dispatcher) Defer(ctx context.Context, event model.OrderCreatedEvent, cause error) error {
	desc := describeError(cause)
	rec := &model.Notification{
		ID:        d.newID(),
		To:        event.To,
		Subject:   event.Subject,
		Body:      event.Body,
		Status:    model.NotificationError,
		LastError: &desc,
	}
	if err := d.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		return fmt.Errorf("save deferred notification: %w", err)
	}
	return nil
}

// Send makes one delivery attempt and always writes the outcome back. A mail
// failure is recorded on rec, not returned; only a failed write is.
func (d *Dispatcher) Send(ctx context.Context, rec *model.Notification) error {
	if sendErr := d.deliver(ctx, rec); sendErr != nil {
		desc := describeError(sendErr)
		at := d.now().UTC()
		rec.Status = model.NotificationError
		rec.LastError = &desc
		rec.Attempts++
		rec.LastAttemptAt = &at
		d.log.Warn("notification delivery failed",
			zap.String("id", rec.ID),
			zap.Int("attempts", rec.Attempts),
			zap.Error(sendErr),
		)
	} else {
		rec.Status = model.NotificationSent
		rec.LastError = nil
		d.log.Info("notification sent", zap.String("id", rec.ID), zap.Int("attempts", rec.Attempts))
	}

	if err := d.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		return fmt.Errorf("save notification %s: %w", rec.ID, err)
	}
	return nil
}

// Retryable lists ERROR records still below the attempt ceiling.
func (d *Dispatcher) Retryable(ctx context.Context) ([]model.Notification, error) {
	recs, err := d.store.FindRetryable(ctx, model.NotificationError, MaxDeliveryAttempts)
	if err != nil {
		return nil, fmt.Errorf("find retryable notifications: %w", err)
	}
	return recs, nil
}

func (d *Dispatcher) deliver(ctx context.Context, rec *model.Notification) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()
	return d.mailer.Send(ctx, rec.To, rec.Subject, rec.Body)
}

// describeError renders "[Kind]: [message]" where Kind is the bare type name
// of err.
func describeError(err error) string {
	kind := fmt.Sprintf("%T", err)
	if i := strings.LastIndex(kind, "."); i >= 0 {
		kind = kind[i+1:]
	}
	return fmt.Sprintf("[%s]: [%s]", kind, err.Error())
}

// Package firestore persists notification delivery records in Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/store"
)

const defaultCollection = "notifications"

type Option func(*NotificationStore)

// WithCollection overrides the collection that holds notification records.
func WithCollection(name string) Option {
	return func(s *NotificationStore) {
		if name != "" {
			s.collection = name
		}
	}
}

type NotificationStore struct {
	client     *firestore.Client
	collection string
}

func NewNotificationStore(client *firestore.Client, opts ...Option) *NotificationStore {
	s := &NotificationStore{client: client, collection: defaultCollection}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Save upserts the record under its id.
func (s *NotificationStore) Save(ctx context.Context, rec *model.Notification) error {
	if rec.ID == "" {
		return errors.New("save notification: empty id")
	}
	if _, err := s.client.Collection(s.collection).Doc(rec.ID).Set(ctx, rec); err != nil {
		return wrapError("save notification", err)
	}
	return nil
}

func (s *NotificationStore) Get(ctx context.Context, id string) (model.Notification, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		return model.Notification{}, wrapError("get notification", err)
	}
	var rec model.Notification
	if err := snap.DataTo(&rec); err != nil {
		return model.Notification{}, fmt.Errorf("decode notification %s: %w", id, err)
	}
	return rec, nil
}

// FindRetryable returns records in status whose attempt count is still below
// maxAttempts.
func (s *NotificationStore) FindRetryable(ctx context.Context, st model.NotificationStatus, maxAttempts int) ([]model.Notification, error) {
	iter := s.client.Collection(s.collection).
		Where("status", "==", string(st)).
		Where("attempts", "<", maxAttempts).
		Documents(ctx)
	defer iter.Stop()

	var out []model.Notification
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapError("find retryable notifications", err)
		}
		var rec model.Notification
		if err := snap.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("decode notification %s: %w", snap.Ref.ID, err)
		}
		if rec.ID == "" {
			rec.ID = snap.Ref.ID
		}
		out = append(out, rec)
	}
	return out, nil
}

// wrapError passes cancellations through untouched and maps a missing
// document onto store.ErrNotFound.
func wrapError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch status.Code(err) {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.NotFound:
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

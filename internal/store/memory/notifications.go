package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/IlliaFransua/burger-order-api/internal/model"
)

// Notifications is an in-process notification record store.
type Notifications struct {
	mu      sync.RWMutex
	records map[string]model.Notification
}

func NewNotifications() *Notifications {
	return &Notifications{records: make(map[string]model.Notification)}
}

func (n *Notifications) Save(ctx context.Context, rec *model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records[rec.ID] = copyNotification(*rec)
	return nil
}

func (n *Notifications) FindRetryable(ctx context.Context, status model.NotificationStatus, maxAttempts int) ([]model.Notification, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]model.Notification, 0)
	for _, rec := range n.records {
		if rec.Status == status && rec.Attempts < maxAttempts {
			out = append(out, copyNotification(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns a stored record by id.
func (n *Notifications) Get(id string) (model.Notification, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	rec, ok := n.records[id]
	if !ok {
		return model.Notification{}, false
	}
	return copyNotification(rec), true
}

// All returns every stored record ordered by id.
func (n *Notifications) All() []model.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]model.Notification, 0, len(n.records))
	for _, rec := range n.records {
		out = append(out, copyNotification(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func copyNotification(rec model.Notification) model.Notification {
	if rec.LastAttemptAt != nil {
		t := *rec.LastAttemptAt
		rec.LastAttemptAt = &t
	}
	if rec.LastError != nil {
		s := *rec.LastError
		rec.LastError = &s
	}
	return rec
}

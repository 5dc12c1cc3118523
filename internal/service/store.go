package service

import (
	"context"

	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/store"
)

type BurgerStore interface {
	Create(ctx context.Context, b *model.Burger) error
	List(ctx context.Context) ([]model.Burger, error)
	Get(ctx context.Context, id int64) (model.Burger, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Burger, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, b model.Burger) error
	Delete(ctx context.Context, id int64) error
}

type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	Get(ctx context.Context, id int64) (model.Order, error)
	UpdateBurgers(ctx context.Context, id int64, burgers []model.Burger) error
	Delete(ctx context.Context, id int64) error

	// FindPage sorts on a stored column and returns the page with the
	// total number of orders.
	FindPage(ctx context.Context, req model.PageRequest) ([]model.Order, int64, error)
	// FindIDsByTotalPrice returns one page of ids ordered by the sum of item
	// prices and the number of orders taking part in that ordering.
	FindIDsByTotalPrice(ctx context.Context, desc bool, limit, offset int) ([]int64, int64, error)
	// FindByIDs makes no promise about result order.
	FindByIDs(ctx context.Context, ids []int64) ([]model.Order, error)
	StreamByFilter(ctx context.Context, f model.FilterCriteria) (store.OrderCursor, error)
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event model.OrderCreatedEvent) error
}

// EventFallback keeps an event that the publisher rejected.
type EventFallback interface {
	Defer(ctx context.Context, event model.OrderCreatedEvent, cause error) error
}

type NotificationStore interface {
	Save(ctx context.Context, rec *model.Notification) error
	FindRetryable(ctx context.Context, status model.NotificationStatus, maxAttempts int) ([]model.Notification, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

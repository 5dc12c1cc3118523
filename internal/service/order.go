package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/IlliaFransua/burger-order-api/internal/logger"
	"github.com/IlliaFransua/burger-order-api/internal/model"
)

type OrderService struct {
	orders    OrderStore
	burgers   BurgerStore
	events    EventPublisher
	fallback  EventFallback
	pages     *PageResolver
	recipient string
	now       func() time.Time
	log       *zap.Logger
}

func NewOrderService(orders OrderStore, burgers BurgerStore, events EventPublisher, recipient string, log *zap.Logger) *OrderService {
	log = logger.OrNop(log)
	return &OrderService{
		orders:    orders,
		burgers:   burgers,
		events:    events,
		pages:     NewPageResolver(orders),
		recipient: recipient,
		now:       time.Now,
		log:       log,
	}
}

// Create persists an order for burgerIDs and hands an OrderCreated event to
// the queue. Repeated ids are kept, one item each.
func (s *OrderService) Create(ctx context.Context, burgerIDs []int64) (model.Order, error) {
	items, err := s.resolveBurgers(ctx, burgerIDs)
	if err != nil {
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}

	order := model.Order{CreatedAt: s.now().UTC(), Burgers: items}
	if err := s.orders.Create(ctx, &order); err != nil {
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}

	event := model.OrderCreatedEvent{
		To:      s.recipient,
		Subject: fmt.Sprintf("New Order #%d", order.ID),
		Body:    "Order details: " + order.String(),
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.log.Error("failed to publish order created event", zap.Int64("order_id", order.ID), zap.Error(err))
		if s.fallback != nil {
			if ferr := s.fallback.Defer(ctx, event, err); ferr != nil {
				s.log.Error("failed to defer order created event", zap.Int64("order_id", order.ID), zap.Error(ferr))
			}
		}
	}

	return order, nil
}

// WithFallback sets where events go when publishing fails.
func (s *OrderService) WithFallback(f EventFallback) *OrderService {
	s.fallback = f
	return s
}

func (s *OrderService) Find(ctx context.Context, id int64) (model.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("find order %d: %w", id, err)
	}
	return order, nil
}

// Update replaces the items of an order. CreatedAt is kept.
func (s *OrderService) Update(ctx context.Context, id int64, burgerIDs []int64) (model.Order, error) {
	items, err := s.resolveBurgers(ctx, burgerIDs)
	if err != nil {
		return model.Order{}, fmt.Errorf("update order %d: %w", id, err)
	}
	if err := s.orders.UpdateBurgers(ctx, id, items); err != nil {
		return model.Order{}, fmt.Errorf("update order %d: %w", id, err)
	}
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("update order %d: %w", id, err)
	}
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id int64) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	return nil
}

func (s *OrderService) List(ctx context.Context, req model.PageRequest) (model.Page[model.Order], error) {
	if err := ValidatePageRequest(req); err != nil {
		return model.Page[model.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	page, err := s.pages.Resolve(ctx, req)
	if err != nil {
		return model.Page[model.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return page, nil
}

// resolveBurgers maps ids onto catalog entries keeping input order. Every
// missing id is reported in one error.
func (s *OrderService) resolveBurgers(ctx context.Context, ids []int64) ([]model.Burger, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one burger is required: %w", ErrInvalidInput)
	}

	found, err := s.burgers.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Burger, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}

	items := make([]model.Burger, 0, len(ids))
	var missing []int64
	reported := make(map[int64]bool)
	for _, id := range ids {
		b, ok := byID[id]
		if !ok {
			if !reported[id] {
				reported[id] = true
				missing = append(missing, id)
			}
			continue
		}
		items = append(items, b)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("burgers %v: %w", missing, ErrNotFound)
	}
	return items, nil
}

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/store/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishOrderCreated(ctx context.Context, e model.OrderCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	burgers *memory.Burgers
	orders  *memory.Orders
	events  *recordingPublisher
	svc     *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.NewStore()
	f := &fixture{
		burgers: memory.NewBurgers(s),
		orders:  memory.NewOrders(s),
		events:  &recordingPublisher{},
	}
	f.svc = NewOrderService(f.orders, f.burgers, f.events, "example@example.example", nil)
	return f
}

// seed adds burgers priced 1, 2, 3... and returns their ids.
func (f *fixture) seed(t *testing.T, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		b := model.Burger{Name: fmt.Sprintf("Burger %02d", i), UnitPrice: decimal.NewFromInt(int64(i))}
		require.NoError(t, f.burgers.Create(context.Background(), &b))
		ids = append(ids, b.ID)
	}
	return ids
}

func (f *fixture) seedNamed(t *testing.T, name, price string) model.Burger {
	t.Helper()
	b := model.Burger{Name: name, UnitPrice: decimal.RequireFromString(price)}
	require.NoError(t, f.burgers.Create(context.Background(), &b))
	return b
}

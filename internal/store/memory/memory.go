// Package memory keeps burgers and orders in process memory. It backs the
// service when no database URI is configured and doubles as a test store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/store"
)

type storedOrder struct {
	order     model.Order
	burgerIDs []int64
}

// Store is the shared state behind Burgers and Orders.
type Store struct {
	mu           sync.RWMutex
	nextBurgerID int64
	nextOrderID  int64
	burgers      map[int64]model.Burger
	orders       map[int64]storedOrder
}

func NewStore() *Store {
	return &Store{
		nextBurgerID: 1,
		nextOrderID:  1,
		burgers:      make(map[int64]model.Burger),
		orders:       make(map[int64]storedOrder),
	}
}

type Burgers struct{ s *Store }

func NewBurgers(s *Store) *Burgers { return &Burgers{s: s} }

func (b *Burgers) Create(ctx context.Context, burger *model.Burger) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.s.nameTaken(burger.Name, 0) {
		return store.ErrDuplicate
	}
	burger.ID = b.s.nextBurgerID
	b.s.nextBurgerID++
	b.s.burgers[burger.ID] = *burger
	return nil
}

func (b *Burgers) List(ctx context.Context) ([]model.Burger, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	out := make([]model.Burger, 0, len(b.s.burgers))
	for _, burger := range b.s.burgers {
		out = append(out, burger)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Burgers) Get(ctx context.Context, id int64) (model.Burger, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	burger, ok := b.s.burgers[id]
	if !ok {
		return model.Burger{}, store.ErrNotFound
	}
	return burger, nil
}

// FindByIDs returns the burgers that exist among ids, each at most once.
func (b *Burgers) FindByIDs(ctx context.Context, ids []int64) ([]model.Burger, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	seen := make(map[int64]struct{}, len(ids))
	out := make([]model.Burger, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if burger, ok := b.s.burgers[id]; ok {
			out = append(out, burger)
		}
	}
	return out, nil
}

func (b *Burgers) ExistsByName(ctx context.Context, name string) (bool, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	return b.s.nameTaken(name, 0), nil
}

func (b *Burgers) Update(ctx context.Context, burger model.Burger) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, ok := b.s.burgers[burger.ID]; !ok {
		return store.ErrNotFound
	}
	if b.s.nameTaken(burger.Name, burger.ID) {
		return store.ErrDuplicate
	}
	b.s.burgers[burger.ID] = burger
	return nil
}

func (b *Burgers) Delete(ctx context.Context, id int64) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, ok := b.s.burgers[id]; !ok {
		return store.ErrNotFound
	}
	for _, o := range b.s.orders {
		for _, bid := range o.burgerIDs {
			if bid == id {
				return store.ErrReferenced
			}
		}
	}
	delete(b.s.burgers, id)
	return nil
}

// caller holds mu
func (s *Store) nameTaken(name string, exceptID int64) bool {
	for id, b := range s.burgers {
		if id != exceptID && b.Name == name {
			return true
		}
	}
	return false
}

// caller holds mu
func (s *Store) hydrate(so storedOrder) model.Order {
	o := so.order
	o.Burgers = make([]model.Burger, 0, len(so.burgerIDs))
	for _, id := range so.burgerIDs {
		if b, ok := s.burgers[id]; ok {
			o.Burgers = append(o.Burgers, b)
		}
	}
	return o
}

// caller holds mu
func (s *Store) total(so storedOrder) decimal.Decimal {
	return s.hydrate(so).TotalPrice()
}

type Orders struct{ s *Store }

func NewOrders(s *Store) *Orders { return &Orders{s: s} }

func (o *Orders) Create(ctx context.Context, order *model.Order) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	order.ID = o.s.nextOrderID
	o.s.nextOrderID++
	o.s.orders[order.ID] = storedOrder{order: model.Order{ID: order.ID, CreatedAt: order.CreatedAt}, burgerIDs: burgerIDs(order.Burgers)}
	return nil
}

func (o *Orders) Get(ctx context.Context, id int64) (model.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	so, ok := o.s.orders[id]
	if !ok {
		return model.Order{}, store.ErrNotFound
	}
	return o.s.hydrate(so), nil
}

// UpdateBurgers replaces the items of an order. CreatedAt is left untouched.
func (o *Orders) UpdateBurgers(ctx context.Context, id int64, burgers []model.Burger) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	so, ok := o.s.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	so.burgerIDs = burgerIDs(burgers)
	o.s.orders[id] = so
	return nil
}

func (o *Orders) Delete(ctx context.Context, id int64) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	if _, ok := o.s.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(o.s.orders, id)
	return nil
}

func (o *Orders) FindPage(ctx context.Context, req model.PageRequest) ([]model.Order, int64, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	all := make([]storedOrder, 0, len(o.s.orders))
	for _, so := range o.s.orders {
		all = append(all, so)
	}
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i].order, all[j].order
		if req.Sort.Field == model.SortCreatedAt && !a.CreatedAt.Equal(b.CreatedAt) {
			if req.Sort.Desc() {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if req.Sort.Desc() && req.Sort.Field == model.SortID {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})

	from, to := window(len(all), req.Offset(), req.Size)
	out := make([]model.Order, 0, to-from)
	for _, so := range all[from:to] {
		out = append(out, o.s.hydrate(so))
	}
	return out, int64(len(all)), nil
}

// FindIDsByTotalPrice orders ids by the sum of their burgers' prices. Ties
// fall back to ascending id.
func (o *Orders) FindIDsByTotalPrice(ctx context.Context, desc bool, limit, offset int) ([]int64, int64, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	type keyed struct {
		id    int64
		total decimal.Decimal
	}
	all := make([]keyed, 0, len(o.s.orders))
	for id, so := range o.s.orders {
		all = append(all, keyed{id: id, total: o.s.total(so)})
	}
	sort.Slice(all, func(i, j int) bool {
		if c := all[i].total.Cmp(all[j].total); c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		return all[i].id < all[j].id
	})

	from, to := window(len(all), offset, limit)
	ids := make([]int64, 0, to-from)
	for _, k := range all[from:to] {
		ids = append(ids, k.id)
	}
	if len(ids) == 0 {
		return ids, 0, nil
	}
	return ids, int64(len(all)), nil
}

// FindByIDs returns existing orders for ids in no particular order.
func (o *Orders) FindByIDs(ctx context.Context, ids []int64) ([]model.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]model.Order, 0, len(ids))
	for id, so := range o.s.orders {
		if _, ok := want[id]; ok {
			out = append(out, o.s.hydrate(so))
		}
	}
	return out, nil
}

// StreamByFilter snapshots the matching ids in creation order and resolves
// each order only when the cursor reaches it.
func (o *Orders) StreamByFilter(ctx context.Context, f model.FilterCriteria) (store.OrderCursor, error) {
	o.s.mu.RLock()
	matched := make([]storedOrder, 0)
	for _, so := range o.s.orders {
		if f.Matches(o.s.hydrate(so)) {
			matched = append(matched, storedOrder{order: so.order})
		}
	}
	o.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].order, matched[j].order
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	ids := make([]int64, len(matched))
	for i, so := range matched {
		ids[i] = so.order.ID
	}
	return &cursor{ctx: ctx, s: o.s, ids: ids, pos: -1}, nil
}

type cursor struct {
	ctx     context.Context
	s       *Store
	ids     []int64
	pos     int
	current model.Order
	err     error
	closed  bool
}

func (c *cursor) Next() bool {
	if c.closed || c.err != nil {
		return false
	}
	for {
		c.pos++
		if c.pos >= len(c.ids) {
			return false
		}
		if err := c.ctx.Err(); err != nil {
			c.err = err
			return false
		}
		c.s.mu.RLock()
		so, ok := c.s.orders[c.ids[c.pos]]
		if ok {
			c.current = c.s.hydrate(so)
		}
		c.s.mu.RUnlock()
		if ok {
			return true
		}
	}
}

func (c *cursor) Order() model.Order { return c.current }

func (c *cursor) Err() error { return c.err }

func (c *cursor) Close() error {
	c.closed = true
	return nil
}

func burgerIDs(burgers []model.Burger) []int64 {
	ids := make([]int64, len(burgers))
	for i, b := range burgers {
		ids[i] = b.ID
	}
	return ids
}

func window(n, offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := offset + limit
	if limit <= 0 || end > n {
		end = n
	}
	return offset, end
}

package service

import (
	"context"
	"fmt"
	"math"

	"github.com/IlliaFransua/burger-order-api/internal/model"
)

// PageResolver serves order pages. Sorting by a stored column goes straight
// to the store; sorting by total price runs ids first, then hydration.
type PageResolver struct {
	orders OrderStore
}

func NewPageResolver(orders OrderStore) *PageResolver {
	return &PageResolver{orders: orders}
}

func (r *PageResolver) Resolve(ctx context.Context, req model.PageRequest) (model.Page[model.Order], error) {
	if req.Sort.Field == model.SortTotalPrice {
		return r.resolveByTotalPrice(ctx, req)
	}

	content, total, err := r.orders.FindPage(ctx, req)
	if err != nil {
		return model.Page[model.Order]{}, fmt.Errorf("find order page: %w", err)
	}
	if content == nil {
		content = []model.Order{}
	}
	return model.Page[model.Order]{Content: content, Number: req.Page, Size: req.Size, TotalElements: total}, nil
}

func (r *PageResolver) resolveByTotalPrice(ctx context.Context, req model.PageRequest) (model.Page[model.Order], error) {
	ids, total, err := r.IDsByTotalPrice(ctx, req)
	if err != nil {
		return model.Page[model.Order]{}, err
	}
	if len(ids) == 0 {
		return model.EmptyPage[model.Order](req), nil
	}

	content, err := r.Hydrate(ctx, ids)
	if err != nil {
		return model.Page[model.Order]{}, err
	}
	return model.Page[model.Order]{Content: content, Number: req.Page, Size: req.Size, TotalElements: total}, nil
}

// IDsByTotalPrice is the first phase: one page of ids in final order and the
// aggregated count.
func (r *PageResolver) IDsByTotalPrice(ctx context.Context, req model.PageRequest) ([]int64, int64, error) {
	ids, total, err := r.orders.FindIDsByTotalPrice(ctx, req.Sort.Desc(), req.Size, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("find order ids by total price: %w", err)
	}
	return ids, total, nil
}

// Hydrate is the second phase: full orders for ids, in the order of ids.
func (r *PageResolver) Hydrate(ctx context.Context, ids []int64) ([]model.Order, error) {
	orders, err := r.orders.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find orders by ids: %w", err)
	}
	return ReorderByIDs(ids, orders), nil
}

// ReorderByIDs arranges orders to follow ids. Ids with no matching order are
// skipped.
func ReorderByIDs(ids []int64, orders []model.Order) []model.Order {
	byID := make(map[int64]model.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	out := make([]model.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

func ValidatePageRequest(req model.PageRequest) error {
	if req.Page < 0 {
		return fmt.Errorf("page must not be negative: %w", ErrInvalidInput)
	}
	if req.Size <= 0 {
		return fmt.Errorf("size must be positive: %w", ErrInvalidInput)
	}
	if req.Page > math.MaxInt/req.Size {
		return fmt.Errorf("page %d out of range: %w", req.Page, ErrInvalidInput)
	}
	switch req.Sort.Field {
	case model.SortID, model.SortCreatedAt, model.SortTotalPrice:
	default:
		return fmt.Errorf("unsupported sort field %q: %w", req.Sort.Field, ErrInvalidInput)
	}
	switch req.Sort.Direction {
	case model.SortAsc, model.SortDesc:
	default:
		return fmt.Errorf("unsupported sort direction %q: %w", req.Sort.Direction, ErrInvalidInput)
	}
	return nil
}

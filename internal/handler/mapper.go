package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/IlliaFransua/burger-order-api/internal/model"
)

type burgerResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type orderResponse struct {
	ID         int64            `json:"id"`
	CreatedAt  time.Time        `json:"createdAt"`
	Burgers    []burgerResponse `json:"burgers"`
	TotalPrice decimal.Decimal  `json:"totalPrice"`
}

type pageResponse[T any] struct {
	Content       []T   `json:"content"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

func toBurgerResponse(b model.Burger) burgerResponse {
	return burgerResponse{ID: b.ID, Name: b.Name, UnitPrice: b.UnitPrice}
}

func toBurgerResponses(burgers []model.Burger) []burgerResponse {
	out := make([]burgerResponse, 0, len(burgers))
	for _, b := range burgers {
		out = append(out, toBurgerResponse(b))
	}
	return out
}

func toOrderResponse(o model.Order) orderResponse {
	return orderResponse{
		ID:         o.ID,
		CreatedAt:  o.CreatedAt,
		Burgers:    toBurgerResponses(o.Burgers),
		TotalPrice: o.TotalPrice(),
	}
}

func toPageResponse(p model.Page[model.Order]) pageResponse[orderResponse] {
	content := make([]orderResponse, 0, len(p.Content))
	for _, o := range p.Content {
		content = append(content, toOrderResponse(o))
	}
	return pageResponse[orderResponse]{
		Content:       content,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages(),
	}
}

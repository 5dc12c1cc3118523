package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Burgers   []Burger  `json:"burgers"`
}

// TotalPrice sums the unit prices of all referenced burgers. An order with
// no burgers totals zero.
func (o Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, b := range o.Burgers {
		total = total.Add(b.UnitPrice)
	}
	return total
}

// BurgerSummary renders the items the way report rows show them.
func (o Order) BurgerSummary() string {
	parts := make([]string, 0, len(o.Burgers))
	for _, b := range o.Burgers {
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "; ")
}

func (o Order) String() string {
	return fmt.Sprintf("Order(id=%d, createdAt=%s, burgers=[%s])",
		o.ID, o.CreatedAt.UTC().Format(time.RFC3339Nano), strings.ReplaceAll(o.BurgerSummary(), "; ", ", "))
}

// OrderCreatedEvent is handed to the notification queue for every new order.
type OrderCreatedEvent struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

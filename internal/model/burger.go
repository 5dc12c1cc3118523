package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const MinBurgerNameLength = 5

type Burger struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (b Burger) String() string {
	return fmt.Sprintf("Burger(id=%d, name=%s, unitPrice=%s)", b.ID, b.Name, b.UnitPrice.StringFixed(2))
}

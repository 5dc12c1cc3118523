package model

import (
	"strings"
	"time"
)

// FilterCriteria narrows report output. Nil bounds and an empty name are
// unbounded; all set fields are combined with AND.
type FilterCriteria struct {
	CreatedFrom *time.Time `json:"orderCreatedAtFrom,omitempty"`
	CreatedTo   *time.Time `json:"orderCreatedAtTo,omitempty"`
	BurgerName  string     `json:"burgerName,omitempty"`
}

func (f FilterCriteria) Matches(o Order) bool {
	if f.CreatedFrom != nil && o.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && o.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.BurgerName == "" {
		return true
	}
	for _, b := range o.Burgers {
		if containsFold(b.Name, f.BurgerName) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Package store holds the contracts shared by the storage backends.
package store

import (
	"errors"

	"github.com/IlliaFransua/burger-order-api/internal/model"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("already exists")
	ErrReferenced = errors.New("still referenced")
)

// OrderCursor is a lazily consumed sequence of orders. Callers must Close it
// on every path.
type OrderCursor interface {
	Next() bool
	Order() model.Order
	Err() error
	Close() error
}

// Package postgres implements the catalog and order stores on PostgreSQL
// through database/sql and the pgx driver.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/IlliaFransua/burger-order-api/internal/store"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// classify maps constraint violations onto the store sentinels. onFK decides
// what a foreign-key violation means for the calling statement.
func classify(err error, onFK error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return errors.Join(store.ErrDuplicate, err)
	case codeForeignKeyViolation:
		if onFK != nil {
			return errors.Join(onFK, err)
		}
	}
	return err
}

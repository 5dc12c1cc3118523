package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/store"
)

type BurgerStore struct {
	db *sql.DB
}

func NewBurgerStore(db *sql.DB) *BurgerStore {
	return &BurgerStore{db: db}
}

func (s *BurgerStore) Create(ctx context.Context, b *model.Burger) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO burgers (name, unit_price) VALUES ($1, $2) RETURNING id`,
		b.Name, b.UnitPrice,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert burger: %w", classify(err, nil))
	}
	return nil
}

func (s *BurgerStore) List(ctx context.Context) ([]model.Burger, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, unit_price FROM burgers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query burgers: %w", err)
	}
	defer rows.Close()
	return scanBurgers(rows)
}

func (s *BurgerStore) Get(ctx context.Context, id int64) (model.Burger, error) {
	var b model.Burger
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, unit_price FROM burgers WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.UnitPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Burger{}, store.ErrNotFound
	}
	if err != nil {
		return model.Burger{}, fmt.Errorf("get burger: %w", err)
	}
	return b, nil
}

func (s *BurgerStore) FindByIDs(ctx context.Context, ids []int64) ([]model.Burger, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, unit_price FROM burgers WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query burgers by ids: %w", err)
	}
	defer rows.Close()
	return scanBurgers(rows)
}

func (s *BurgerStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM burgers WHERE name = $1)`, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check burger name: %w", err)
	}
	return exists, nil
}

func (s *BurgerStore) Update(ctx context.Context, b model.Burger) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE burgers SET name = $1, unit_price = $2 WHERE id = $3`,
		b.Name, b.UnitPrice, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update burger: %w", classify(err, nil))
	}
	return expectOne(res)
}

func (s *BurgerStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM burgers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete burger: %w", classify(err, store.ErrReferenced))
	}
	return expectOne(res)
}

func scanBurgers(rows *sql.Rows) ([]model.Burger, error) {
	var burgers []model.Burger
	for rows.Next() {
		var b model.Burger
		if err := rows.Scan(&b.ID, &b.Name, &b.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan burger: %w", err)
		}
		burgers = append(burgers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate burgers: %w", err)
	}
	return burgers, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

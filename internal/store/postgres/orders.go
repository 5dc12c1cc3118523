package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/IlliaFransua/burger-order-api/internal/model"
	"github.com/IlliaFransua/burger-order-api/internal/store"
)

const orderColumns = `o.id, o.created_at, b.id, b.name, b.unit_price`

const orderJoins = `
	FROM orders o
	LEFT JOIN order_burgers ob ON ob.order_id = o.id
	LEFT JOIN burgers b ON b.id = ob.burger_id`

type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Create(ctx context.Context, o *model.Order) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (created_at) VALUES ($1) RETURNING id`, o.CreatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err = insertItems(ctx, tx, o.ID, o.Burgers); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *OrderStore) Get(ctx context.Context, id int64) (model.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+orderJoins+` WHERE o.id = $1 ORDER BY ob.position`, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("query order: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return model.Order{}, err
	}
	if len(orders) == 0 {
		return model.Order{}, store.ErrNotFound
	}
	return orders[0], nil
}

// UpdateBurgers replaces the order's items inside one transaction. The
// creation timestamp is never touched.
func (s *OrderStore) UpdateBurgers(ctx context.Context, id int64, burgers []model.Burger) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		err = store.ErrNotFound
		return err
	}
	if err != nil {
		return fmt.Errorf("lock order: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM order_burgers WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("clear order items: %w", err)
	}
	if err = insertItems(ctx, tx, id, burgers); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *OrderStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return expectOne(res)
}

// FindPage serves sorts on stored columns in a single round trip. The total
// rides along on every row via a window count.
func (s *OrderStore) FindPage(ctx context.Context, req model.PageRequest) ([]model.Order, int64, error) {
	col, err := sortColumn(req.Sort.Field)
	if err != nil {
		return nil, 0, err
	}
	dir := direction(req.Sort)

	query := fmt.Sprintf(`
		WITH page AS (
			SELECT id, created_at, COUNT(*) OVER() AS total
			FROM orders
			ORDER BY %[1]s %[2]s, id %[2]s
			LIMIT $1 OFFSET $2
		)
		SELECT p.total, p.id, p.created_at, b.id, b.name, b.unit_price
		FROM page p
		LEFT JOIN order_burgers ob ON ob.order_id = p.id
		LEFT JOIN burgers b ON b.id = ob.burger_id
		ORDER BY p.%[1]s %[2]s, p.id %[2]s, ob.position`, col, dir)

	rows, err := s.db.QueryContext(ctx, query, req.Size, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("query order page: %w", err)
	}
	defer rows.Close()

	var (
		total  int64
		orders []model.Order
	)
	for rows.Next() {
		var r orderRow
		if err := rows.Scan(&total, &r.id, &r.createdAt, &r.burgerID, &r.burgerName, &r.unitPrice); err != nil {
			return nil, 0, fmt.Errorf("scan order page: %w", err)
		}
		orders = r.appendTo(orders)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order page: %w", err)
	}

	if len(orders) == 0 {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count orders: %w", err)
		}
	}
	return orders, total, nil
}

// FindIDsByTotalPrice is the first phase of the derived-total sort. Orders
// without items sum to zero. The count is over grouped orders.
func (s *OrderStore) FindIDsByTotalPrice(ctx context.Context, desc bool, limit, offset int) ([]int64, int64, error) {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	query := `
		SELECT o.id, COUNT(*) OVER() AS total
		FROM orders o
		LEFT JOIN order_burgers ob ON ob.order_id = o.id
		LEFT JOIN burgers b ON b.id = ob.burger_id
		GROUP BY o.id
		ORDER BY SUM(COALESCE(b.unit_price, 0)) ` + dir + `, o.id
		LIMIT $1 OFFSET $2`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query order ids by total: %w", err)
	}
	defer rows.Close()

	var (
		ids   []int64
		total int64
	)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, 0, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order ids: %w", err)
	}
	return ids, total, nil
}

// FindByIDs hydrates orders for ids. Result order follows the primary key,
// not the order of ids.
func (s *OrderStore) FindByIDs(ctx context.Context, ids []int64) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+orderJoins+` WHERE o.id = ANY($1) ORDER BY o.id, ob.position`, ids)
	if err != nil {
		return nil, fmt.Errorf("query orders by ids: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// StreamByFilter opens a server-side result ordered by creation time. The
// returned cursor owns the rows and must be closed.
func (s *OrderStore) StreamByFilter(ctx context.Context, f model.FilterCriteria) (store.OrderCursor, error) {
	query := `SELECT ` + orderColumns + orderJoins + `
		WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR o.created_at <= $2)
		  AND ($3 = '' OR EXISTS (
				SELECT 1 FROM order_burgers fb
				JOIN burgers fbb ON fbb.id = fb.burger_id
				WHERE fb.order_id = o.id AND strpos(lower(fbb.name), lower($3)) > 0))
		ORDER BY o.created_at, o.id, ob.position`

	rows, err := s.db.QueryContext(ctx, query, f.CreatedFrom, f.CreatedTo, f.BurgerName)
	if err != nil {
		return nil, fmt.Errorf("query filtered orders: %w", err)
	}
	return &rowCursor{rows: rows}, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, orderID int64, burgers []model.Burger) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO order_burgers (order_id, burger_id, position) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("prepare order items: %w", err)
	}
	defer stmt.Close()

	for i, b := range burgers {
		if _, err := stmt.ExecContext(ctx, orderID, b.ID, i); err != nil {
			return fmt.Errorf("insert order item: %w", classify(err, store.ErrNotFound))
		}
	}
	return nil
}

func sortColumn(field string) (string, error) {
	switch field {
	case model.SortID:
		return "id", nil
	case model.SortCreatedAt:
		return "created_at", nil
	default:
		return "", fmt.Errorf("unsupported sort field %q", field)
	}
}

func direction(s model.Sort) string {
	if s.Desc() {
		return "DESC"
	}
	return "ASC"
}

type orderRow struct {
	id         int64
	createdAt  time.Time
	burgerID   sql.NullInt64
	burgerName sql.NullString
	unitPrice  decimal.NullDecimal
}

func (r orderRow) burger() (model.Burger, bool) {
	if !r.burgerID.Valid {
		return model.Burger{}, false
	}
	return model.Burger{ID: r.burgerID.Int64, Name: r.burgerName.String, UnitPrice: r.unitPrice.Decimal}, true
}

// appendTo folds r into orders. Rows of one order must be adjacent.
func (r orderRow) appendTo(orders []model.Order) []model.Order {
	if n := len(orders); n == 0 || orders[n-1].ID != r.id {
		orders = append(orders, model.Order{ID: r.id, CreatedAt: r.createdAt, Burgers: []model.Burger{}})
	}
	if b, ok := r.burger(); ok {
		last := &orders[len(orders)-1]
		last.Burgers = append(last.Burgers, b)
	}
	return orders
}

func scanOrderRow(rows *sql.Rows) (orderRow, error) {
	var r orderRow
	err := rows.Scan(&r.id, &r.createdAt, &r.burgerID, &r.burgerName, &r.unitPrice)
	return r, err
}

func collectOrders(rows *sql.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		r, err := scanOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = r.appendTo(orders)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// rowCursor groups adjacent rows into one order at a time, keeping a single
// look-ahead row.
type rowCursor struct {
	rows    *sql.Rows
	pending *orderRow
	current model.Order
	err     error
	closed  bool
}

func (c *rowCursor) Next() bool {
	if c.closed || c.err != nil {
		return false
	}

	var acc []model.Order
	if c.pending != nil {
		acc = c.pending.appendTo(acc)
		c.pending = nil
	}

	for c.rows.Next() {
		r, err := scanOrderRow(c.rows)
		if err != nil {
			c.err = fmt.Errorf("scan order: %w", err)
			return false
		}
		if len(acc) > 0 && acc[0].ID != r.id {
			c.pending = &r
			break
		}
		acc = r.appendTo(acc)
	}
	if c.pending == nil {
		if err := c.rows.Err(); err != nil {
			c.err = fmt.Errorf("iterate orders: %w", err)
			return false
		}
	}

	if len(acc) == 0 {
		return false
	}
	c.current = acc[0]
	return true
}

func (c *rowCursor) Order() model.Order { return c.current }

func (c *rowCursor) Err() error { return c.err }

func (c *rowCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

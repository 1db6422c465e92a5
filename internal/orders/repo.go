package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo is the pgx-backed Store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{DB: db} }

func (r *Repo) CreateOrder(ctx context.Context, o Order) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders(id, table_number, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, o.ID, o.Table, o.Name, o.Status, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *Repo) GetOrder(ctx context.Context, orderID string) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, table_number, name, status, created_at, updated_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&o.ID, &o.Table, &o.Name, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// lockStatus reads the order's status under FOR UPDATE so the row stays
// pinned until the surrounding transaction commits.
func lockStatus(ctx context.Context, tx pgx.Tx, orderID string) (Status, error) {
	var s Status
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	return s, err
}

func (r *Repo) AddItem(ctx context.Context, orderID, productID string, amount int) (Item, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Item{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status, err := lockStatus(ctx, tx, orderID)
	if err != nil {
		return Item{}, err
	}
	if status != StatusDraft {
		return Item{}, fmt.Errorf("%w: status is %s", ErrOrderNotEditable, status)
	}

	var name string
	var price int
	err = tx.QueryRow(ctx, `SELECT name, price_cents FROM products WHERE id = $1`, productID).
		Scan(&name, &price)
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if err != nil {
		return Item{}, err
	}

	it := Item{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: name,
		PriceCents:  price,
		Amount:      amount,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_items(id, order_id, product_id, price_cents, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, it.ID, it.OrderID, it.ProductID, it.PriceCents, it.Amount, it.CreatedAt); err != nil {
		return Item{}, fmt.Errorf("insert item: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET updated_at = now() WHERE id = $1`, orderID); err != nil {
		return Item{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (r *Repo) RemoveItem(ctx context.Context, orderID, itemID string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status, err := lockStatus(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if status != StatusDraft {
		return fmt.Errorf("%w: status is %s", ErrOrderNotEditable, status)
	}

	ct, err := tx.Exec(ctx, `DELETE FROM order_items WHERE id = $1 AND order_id = $2`, itemID, orderID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET updated_at = now() WHERE id = $1`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) SendOrder(ctx context.Context, orderID string) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	status, err := lockStatus(ctx, tx, orderID)
	if err != nil {
		return Order{}, err
	}
	if status != StatusDraft {
		return Order{}, fmt.Errorf("%w: cannot send %s order", ErrInvalidTransition, status)
	}

	var n int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM order_items WHERE order_id = $1`, orderID).Scan(&n); err != nil {
		return Order{}, err
	}
	if n == 0 {
		return Order{}, ErrEmptyOrder
	}

	var o Order
	err = tx.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, table_number, name, status, created_at, updated_at
	`, orderID, StatusSent).Scan(&o.ID, &o.Table, &o.Name, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) FinishOrder(ctx context.Context, orderID string) (Order, error) {
	// Single conditional update: the status check and the write cannot
	// interleave with another transition.
	var o Order
	err := r.DB.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING id, table_number, name, status, created_at, updated_at
	`, orderID, StatusFinished, StatusSent).
		Scan(&o.ID, &o.Table, &o.Name, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		cur, gerr := r.GetOrder(ctx, orderID)
		if gerr != nil {
			return Order{}, gerr
		}
		return Order{}, fmt.Errorf("%w: cannot finish %s order", ErrInvalidTransition, cur.Status)
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *Repo) DeleteOrder(ctx context.Context, orderID string) (Status, error) {
	var s Status
	err := r.DB.QueryRow(ctx, `DELETE FROM orders WHERE id = $1 RETURNING status`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return s, nil
}

func (r *Repo) ListOrders(ctx context.Context, filter *Status) ([]Order, error) {
	q := `
		SELECT o.id, o.table_number, o.name, o.status, o.created_at, o.updated_at,
		       COALESCE(SUM(i.price_cents * i.amount), 0)
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
	`
	args := []any{}
	if filter != nil {
		q += ` WHERE o.status = $1`
		args = append(args, *filter)
	}
	q += ` GROUP BY o.id ORDER BY o.created_at ASC`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Table, &o.Name, &o.Status, &o.CreatedAt, &o.UpdatedAt, &o.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) OrderDetail(ctx context.Context, orderID string) (Order, error) {
	o, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, COALESCE(p.name, ''), i.price_cents, i.amount, i.created_at
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.created_at ASC
	`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.PriceCents, &it.Amount, &it.CreatedAt); err != nil {
			return Order{}, err
		}
		o.TotalCents += it.PriceCents * it.Amount
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, productID string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, description, banner, category_id, price_cents, created_at, updated_at
		FROM products WHERE id = $1
	`, productID).Scan(&p.ID, &p.Name, &p.Description, &p.Banner, &p.CategoryID, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, description, banner, category_id, price_cents, created_at, updated_at
		FROM products ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Banner, &p.CategoryID, &p.PriceCents, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

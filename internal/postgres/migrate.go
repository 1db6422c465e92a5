package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema bootstrap. Statements are idempotent so running them on every
// startup is safe; a failed statement aborts with its index for debugging.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		banner      TEXT NOT NULL DEFAULT '',
		category_id TEXT NOT NULL DEFAULT '',
		price_cents INT  NOT NULL CHECK (price_cents >= 0),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		table_number INT  NOT NULL CHECK (table_number > 0),
		name         TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL DEFAULT 'draft',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id          TEXT PRIMARY KEY,
		order_id    TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id  TEXT NOT NULL,
		price_cents INT  NOT NULL CHECK (price_cents >= 0),
		amount      INT  NOT NULL CHECK (amount >= 1),
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}

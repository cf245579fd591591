package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS restaurants (
  id            BIGSERIAL PRIMARY KEY,
  name          VARCHAR(50)  NOT NULL,
  address       VARCHAR(100) NOT NULL DEFAULT '',
  contact_phone VARCHAR(50)  NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS product_categories (
  id   BIGSERIAL PRIMARY KEY,
  name VARCHAR(50) NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
  id          BIGSERIAL PRIMARY KEY,
  name        VARCHAR(50)   NOT NULL,
  category_id BIGINT REFERENCES product_categories(id) ON DELETE SET NULL,
  price       NUMERIC(8, 2) NOT NULL CHECK (price >= 0)
);

CREATE TABLE IF NOT EXISTS restaurant_menu_items (
  id            BIGSERIAL PRIMARY KEY,
  restaurant_id BIGINT  NOT NULL REFERENCES restaurants(id) ON DELETE CASCADE,
  product_id    BIGINT  NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  availability  BOOLEAN NOT NULL DEFAULT TRUE,
  UNIQUE (restaurant_id, product_id)
);

CREATE TABLE IF NOT EXISTS orders (
  id             BIGSERIAL PRIMARY KEY,
  address        VARCHAR(256) NOT NULL,
  firstname      VARCHAR(256) NOT NULL,
  lastname       VARCHAR(256) NOT NULL,
  phonenumber    VARCHAR(128) NOT NULL,
  comment        TEXT         NOT NULL DEFAULT '',
  payment_method VARCHAR(50)  NOT NULL DEFAULT 'CARD',
  order_status   VARCHAR(2)   NOT NULL DEFAULT 'NO',
  registered_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS orders_order_status_idx ON orders (order_status);

CREATE TABLE IF NOT EXISTS order_items (
  id         BIGSERIAL PRIMARY KEY,
  order_id   BIGINT        NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id BIGINT        NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  quantity   INTEGER       NOT NULL CHECK (quantity BETWEEN 1 AND 10),
  price      NUMERIC(8, 2) NOT NULL CHECK (price >= 0)
);

CREATE TABLE IF NOT EXISTS locations (
  id         BIGSERIAL PRIMARY KEY,
  address    TEXT NOT NULL UNIQUE,
  lon        NUMERIC(9, 6),
  lat        NUMERIC(9, 6),
  created_at TIMESTAMPTZ
);`

// EnsureSchema creates the tables if they are missing
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

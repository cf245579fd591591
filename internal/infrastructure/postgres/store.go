package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodcart/backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Store serves orders, the catalog and the geocoding cache from one Postgres pool
type Store struct {
	Pool *pgxpool.Pool
}

// Connect opens a pool and verifies the database is reachable
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// ListOpenOrders returns orders in an open status with their lines, oldest id first
func (s *Store) ListOpenOrders(ctx context.Context) ([]domain.Order, error) {
	statuses := make([]string, len(domain.OpenOrderStatuses))
	for i, st := range domain.OpenOrderStatuses {
		statuses[i] = string(st)
	}

	rows, err := s.Pool.Query(ctx, `
SELECT id, address, firstname, lastname, phonenumber, comment, order_status, payment_method, registered_at
FROM orders
WHERE order_status = ANY($1)
ORDER BY id`, statuses)
	if err != nil {
		return nil, fmt.Errorf("query open orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		var (
			o       domain.Order
			status  string
			payment string
		)
		err := row.Scan(&o.ID, &o.Address, &o.FirstName, &o.LastName, &o.Phone, &o.Comment, &status, &payment, &o.RegisteredAt)
		o.Status = domain.OrderStatus(status)
		o.PaymentMethod = domain.PaymentMethod(payment)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan open orders: %w", err)
	}
	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	itemRows, err := s.Pool.Query(ctx, `
SELECT oi.order_id, oi.quantity, oi.price, p.id, p.name, COALESCE(c.name, ''), p.price
FROM order_items oi
JOIN products p ON p.id = oi.product_id
LEFT JOIN product_categories c ON c.id = p.category_id
WHERE oi.order_id = ANY($1)
ORDER BY oi.order_id, oi.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			orderID int64
			item    domain.OrderItem
		)
		if err := itemRows.Scan(&orderID, &item.Quantity, &item.Price,
			&item.Product.ID, &item.Product.Name, &item.Product.Category, &item.Product.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("read order items: %w", err)
	}

	return orders, nil
}

// ListMenuItems returns every (restaurant, product) availability fact
func (s *Store) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT r.id, r.name, r.address, r.contact_phone,
       p.id, p.name, COALESCE(c.name, ''), p.price,
       m.availability
FROM restaurant_menu_items m
JOIN restaurants r ON r.id = m.restaurant_id
JOIN products p ON p.id = m.product_id
LEFT JOIN product_categories c ON c.id = p.category_id
ORDER BY r.id, p.id`)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.MenuItem, error) {
		var m domain.MenuItem
		err := row.Scan(&m.Restaurant.ID, &m.Restaurant.Name, &m.Restaurant.Address, &m.Restaurant.ContactPhone,
			&m.Product.ID, &m.Product.Name, &m.Product.Category, &m.Product.Price,
			&m.Available)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan menu items: %w", err)
	}
	return items, nil
}

// ListRestaurants returns all restaurants ordered by name
func (s *Store) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, address, contact_phone FROM restaurants ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query restaurants: %w", err)
	}

	restaurants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Restaurant, error) {
		var r domain.Restaurant
		err := row.Scan(&r.ID, &r.Name, &r.Address, &r.ContactPhone)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan restaurants: %w", err)
	}
	return restaurants, nil
}

// ListProducts returns all products ordered by id
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.Pool.Query(ctx, `
SELECT p.id, p.name, COALESCE(c.name, ''), p.price
FROM products p
LEFT JOIN product_categories c ON c.id = p.category_id
ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Product, error) {
		var p domain.Product
		err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan products: %w", err)
	}
	return products, nil
}

// FindByAddresses returns cached locations for the given addresses in one query
func (s *Store) FindByAddresses(ctx context.Context, addresses []string) ([]domain.Location, error) {
	if len(addresses) == 0 {
		return []domain.Location{}, nil
	}

	rows, err := s.Pool.Query(ctx, `SELECT address, lon, lat, created_at FROM locations WHERE address = ANY($1)`, addresses)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}

	locations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Location, error) {
		return scanLocation(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan locations: %w", err)
	}
	return locations, nil
}

// GetOrCreate reads the location for address or inserts an unresolved row.
// A concurrent insert of the same address surfaces as domain.ErrDuplicateAddress.
func (s *Store) GetOrCreate(ctx context.Context, address string) (*domain.Location, error) {
	row := s.Pool.QueryRow(ctx, `SELECT address, lon, lat, created_at FROM locations WHERE address = $1`, address)
	loc, err := scanLocation(row)
	if err == nil {
		return &loc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get location %q: %w", address, err)
	}

	row = s.Pool.QueryRow(ctx, `
INSERT INTO locations (address, created_at) VALUES ($1, $2)
RETURNING address, lon, lat, created_at`, address, time.Now().UTC())
	loc, err = scanLocation(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create location %q: %w", address, domain.ErrDuplicateAddress)
		}
		return nil, fmt.Errorf("create location %q: %w", address, err)
	}
	return &loc, nil
}

// SaveCoordinate upserts the coordinate of address
func (s *Store) SaveCoordinate(ctx context.Context, address string, coord domain.Coordinate) error {
	_, err := s.Pool.Exec(ctx, `
INSERT INTO locations (address, lon, lat, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (address) DO UPDATE SET lon = EXCLUDED.lon, lat = EXCLUDED.lat`,
		address, coord.Lon, coord.Lat, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save location %q: %w", address, err)
	}
	return nil
}

func scanLocation(row pgx.Row) (domain.Location, error) {
	var (
		loc       domain.Location
		lon, lat  *float64
		createdAt *time.Time
	)
	if err := row.Scan(&loc.Address, &lon, &lat, &createdAt); err != nil {
		return domain.Location{}, err
	}
	if lon != nil && lat != nil {
		loc.SetCoordinate(domain.NewCoordinate(*lon, *lat))
	}
	if createdAt != nil {
		loc.CreatedAt = *createdAt
	}
	return loc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var (
	_ domain.OrderRepository    = (*Store)(nil)
	_ domain.CatalogRepository  = (*Store)(nil)
	_ domain.LocationRepository = (*Store)(nil)
)

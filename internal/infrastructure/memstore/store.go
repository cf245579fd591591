package memstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/foodcart/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// Fixture is the YAML seed for the in-memory store
type Fixture struct {
	Restaurants []domain.Restaurant `yaml:"restaurants"`
	Products    []domain.Product    `yaml:"products"`
	Menu        []MenuEntry         `yaml:"menu"`
	Orders      []OrderEntry        `yaml:"orders"`
}

// MenuEntry references a restaurant and a product by id
type MenuEntry struct {
	Restaurant int64 `yaml:"restaurant"`
	Product    int64 `yaml:"product"`
	Available  bool  `yaml:"available"`
}

// OrderEntry is an order whose lines reference products by id
type OrderEntry struct {
	domain.Order `yaml:",inline"`
	Lines        []LineEntry `yaml:"items"`
}

type LineEntry struct {
	Product  int64   `yaml:"product"`
	Quantity int     `yaml:"quantity"`
	Price    float64 `yaml:"price"`
}

// Store is an in-memory order and catalog store
type Store struct {
	mu          sync.RWMutex
	restaurants map[int64]domain.Restaurant
	products    map[int64]domain.Product
	menu        []domain.MenuItem
	orders      []domain.Order
}

// New returns an empty store
func New() *Store {
	return &Store{
		restaurants: make(map[int64]domain.Restaurant),
		products:    make(map[int64]domain.Product),
	}
}

// LoadFile reads a YAML fixture from path and builds a store from it
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Load(data)
}

// Load builds a store from YAML fixture bytes
func Load(data []byte) (*Store, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	s := New()
	if err := s.Seed(fx); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed replaces the store content with the fixture, resolving id references
func (s *Store) Seed(fx Fixture) error {
	restaurants := make(map[int64]domain.Restaurant, len(fx.Restaurants))
	for _, r := range fx.Restaurants {
		if _, dup := restaurants[r.ID]; dup {
			return fmt.Errorf("duplicate restaurant id %d", r.ID)
		}
		restaurants[r.ID] = r
	}

	products := make(map[int64]domain.Product, len(fx.Products))
	for _, p := range fx.Products {
		if _, dup := products[p.ID]; dup {
			return fmt.Errorf("duplicate product id %d", p.ID)
		}
		products[p.ID] = p
	}

	type pair struct{ restaurant, product int64 }
	seen := make(map[pair]bool, len(fx.Menu))
	menu := make([]domain.MenuItem, 0, len(fx.Menu))
	for _, m := range fx.Menu {
		r, ok := restaurants[m.Restaurant]
		if !ok {
			return fmt.Errorf("menu entry references unknown restaurant %d", m.Restaurant)
		}
		p, ok := products[m.Product]
		if !ok {
			return fmt.Errorf("menu entry references unknown product %d", m.Product)
		}
		key := pair{m.Restaurant, m.Product}
		if seen[key] {
			return fmt.Errorf("duplicate menu entry for restaurant %d product %d", m.Restaurant, m.Product)
		}
		seen[key] = true
		menu = append(menu, domain.MenuItem{Restaurant: r, Product: p, Available: m.Available})
	}

	orders := make([]domain.Order, 0, len(fx.Orders))
	for _, entry := range fx.Orders {
		o := entry.Order
		if o.Status == "" {
			o.Status = domain.OrderStatusUnprocessed
		}
		if o.PaymentMethod == "" {
			o.PaymentMethod = domain.PaymentMethodCard
		}
		o.Items = make([]domain.OrderItem, 0, len(entry.Lines))
		for _, line := range entry.Lines {
			p, ok := products[line.Product]
			if !ok {
				return fmt.Errorf("order %d references unknown product %d", o.ID, line.Product)
			}
			if line.Quantity < domain.MinItemQuantity || line.Quantity > domain.MaxItemQuantity {
				return fmt.Errorf("order %d product %d: quantity %d out of range %d..%d",
					o.ID, line.Product, line.Quantity, domain.MinItemQuantity, domain.MaxItemQuantity)
			}
			price := line.Price
			if price == 0 {
				price = p.Price * float64(line.Quantity)
			}
			o.Items = append(o.Items, domain.OrderItem{Product: p, Quantity: line.Quantity, Price: price})
		}
		orders = append(orders, o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants = restaurants
	s.products = products
	s.menu = menu
	s.orders = orders
	return nil
}

// ListOpenOrders returns orders in an open status, in fixture order
func (s *Store) ListOpenOrders(ctx context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	open := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if o.Status.IsOpen() {
			o.Items = append([]domain.OrderItem(nil), o.Items...)
			open = append(open, o)
		}
	}
	return open, nil
}

func (s *Store) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.MenuItem(nil), s.menu...), nil
}

// ListRestaurants returns restaurants ordered by name, then id
func (s *Store) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	restaurants := make([]domain.Restaurant, 0, len(s.restaurants))
	for _, r := range s.restaurants {
		restaurants = append(restaurants, r)
	}
	sort.Slice(restaurants, func(i, j int) bool {
		if restaurants[i].Name != restaurants[j].Name {
			return restaurants[i].Name < restaurants[j].Name
		}
		return restaurants[i].ID < restaurants[j].ID
	})
	return restaurants, nil
}

// ListProducts returns products ordered by id
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

var (
	_ domain.OrderRepository   = (*Store)(nil)
	_ domain.CatalogRepository = (*Store)(nil)
)

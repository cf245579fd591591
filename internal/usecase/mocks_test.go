package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/foodcart/backend/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockLocationRepository is a map-backed domain.LocationRepository with failure switches
type MockLocationRepository struct {
	mu   sync.Mutex
	data map[string]domain.Location

	findError      error
	getError       error
	saveError      error
	duplicateOnce  map[string]bool // GetOrCreate reports ErrDuplicateAddress once for these
	findCalls      int
	getCalls       int
	saveCalls      int
	savedAddresses []string
}

func NewMockLocationRepository() *MockLocationRepository {
	return &MockLocationRepository{
		data:          make(map[string]domain.Location),
		duplicateOnce: make(map[string]bool),
	}
}

// seed stores a resolved location
func (m *MockLocationRepository) seed(address string, lon, lat float64) {
	loc := domain.Location{Address: address}
	loc.SetCoordinate(domain.NewCoordinate(lon, lat))
	m.data[address] = loc
}

func (m *MockLocationRepository) FindByAddresses(ctx context.Context, addresses []string) ([]domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.findError != nil {
		return nil, m.findError
	}
	var found []domain.Location
	for _, a := range addresses {
		if loc, ok := m.data[a]; ok {
			found = append(found, loc)
		}
	}
	return found, nil
}

func (m *MockLocationRepository) GetOrCreate(ctx context.Context, address string) (*domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getError != nil {
		return nil, m.getError
	}
	if m.duplicateOnce[address] {
		delete(m.duplicateOnce, address)
		return nil, fmt.Errorf("insert: %w", domain.ErrDuplicateAddress)
	}
	loc, ok := m.data[address]
	if !ok {
		loc = domain.Location{Address: address}
		m.data[address] = loc
	}
	return &loc, nil
}

func (m *MockLocationRepository) SaveCoordinate(ctx context.Context, address string, coord domain.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	m.savedAddresses = append(m.savedAddresses, address)
	if m.saveError != nil {
		return m.saveError
	}
	loc := m.data[address]
	loc.Address = address
	loc.SetCoordinate(coord)
	m.data[address] = loc
	return nil
}

func (m *MockLocationRepository) coordinate(address string) (domain.Coordinate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loc, ok := m.data[address]
	if !ok {
		return domain.Coordinate{}, false
	}
	return loc.Coordinate()
}

func (m *MockLocationRepository) has(address string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[address]
	return ok
}

// MockGeocoder answers from a fixed address -> position table; unknown addresses have no match
type MockGeocoder struct {
	mu        sync.Mutex
	positions map[string]string
	errs      map[string]error
	err       error
	calls     map[string]int
}

func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{
		positions: make(map[string]string),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) ([]domain.Placemark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[address]++
	if m.err != nil {
		return nil, m.err
	}
	if err, ok := m.errs[address]; ok {
		return nil, err
	}
	pos, ok := m.positions[address]
	if !ok {
		return []domain.Placemark{}, nil
	}
	return []domain.Placemark{{Pos: pos}, {Pos: "0 0"}}, nil
}

func (m *MockGeocoder) callCount(address string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[address]
}

func (m *MockGeocoder) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// MockOrderRepository returns a fixed order list or error
type MockOrderRepository struct {
	orders []domain.Order
	err    error
	calls  int
}

func (m *MockOrderRepository) ListOpenOrders(ctx context.Context) ([]domain.Order, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

// MockCatalogRepository returns fixed catalog data or errors
type MockCatalogRepository struct {
	menuItems   []domain.MenuItem
	restaurants []domain.Restaurant
	products    []domain.Product
	menuError   error
	restError   error
	prodError   error
	menuCalls   int
}

func (m *MockCatalogRepository) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	m.menuCalls++
	if m.menuError != nil {
		return nil, m.menuError
	}
	return m.menuItems, nil
}

func (m *MockCatalogRepository) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	if m.restError != nil {
		return nil, m.restError
	}
	return append([]domain.Restaurant(nil), m.restaurants...), nil
}

func (m *MockCatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if m.prodError != nil {
		return nil, m.prodError
	}
	return append([]domain.Product(nil), m.products...), nil
}

func menuItem(r domain.Restaurant, p domain.Product, available bool) domain.MenuItem {
	return domain.MenuItem{Restaurant: r, Product: p, Available: available}
}

func orderFor(id int64, address string, products ...domain.Product) domain.Order {
	o := domain.Order{ID: id, Address: address, Status: domain.OrderStatusUnprocessed}
	for _, p := range products {
		o.Items = append(o.Items, domain.OrderItem{Product: p, Quantity: 1, Price: p.Price})
	}
	return o
}

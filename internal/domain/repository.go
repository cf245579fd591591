package domain

import "context"

// OrderRepository reads customer orders
type OrderRepository interface {
	// ListOpenOrders returns orders in one of OpenOrderStatuses with their items
	ListOpenOrders(ctx context.Context) ([]Order, error)
}

// CatalogRepository reads restaurants, products and menu availability
type CatalogRepository interface {
	ListMenuItems(ctx context.Context) ([]MenuItem, error)
	ListRestaurants(ctx context.Context) ([]Restaurant, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

// LocationRepository is the persistent geocoding cache.
// Implementations must keep at most one location per address.
type LocationRepository interface {
	// FindByAddresses returns the cached locations for the given addresses; unknown addresses are skipped
	FindByAddresses(ctx context.Context, addresses []string) ([]Location, error)
	// GetOrCreate returns the location for address, creating an empty one if absent.
	// May return ErrDuplicateAddress when a concurrent insert won.
	GetOrCreate(ctx context.Context, address string) (*Location, error)
	// SaveCoordinate upserts the coordinate of address
	SaveCoordinate(ctx context.Context, address string, coord Coordinate) error
}

// Geocoder resolves free-text addresses. An empty result is a valid "no match".
type Geocoder interface {
	Geocode(ctx context.Context, address string) ([]Placemark, error)
}

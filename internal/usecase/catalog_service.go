package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/foodcart/backend/internal/domain"
)

// CatalogService serves the back-office catalog views
type CatalogService struct {
	catalog domain.CatalogRepository
}

func NewCatalogService(catalog domain.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// Restaurants returns all restaurants ordered by name
func (s *CatalogService) Restaurants(ctx context.Context) ([]domain.Restaurant, error) {
	restaurants, err := s.catalog.ListRestaurants(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list restaurants: %v", domain.ErrStoreUnavailable, err)
	}
	sortRestaurantsByName(restaurants)
	return restaurants, nil
}

// AvailabilityMatrix returns products (by id) against restaurants (by name).
// A missing menu fact reads as unavailable.
func (s *CatalogService) AvailabilityMatrix(ctx context.Context) (domain.AvailabilityMatrix, error) {
	restaurants, err := s.Restaurants(ctx)
	if err != nil {
		return domain.AvailabilityMatrix{}, err
	}

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return domain.AvailabilityMatrix{}, fmt.Errorf("%w: list products: %v", domain.ErrStoreUnavailable, err)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	items, err := s.catalog.ListMenuItems(ctx)
	if err != nil {
		return domain.AvailabilityMatrix{}, fmt.Errorf("%w: list menu items: %v", domain.ErrStoreUnavailable, err)
	}

	column := make(map[int64]int, len(restaurants))
	for i, r := range restaurants {
		column[r.ID] = i
	}

	available := make(map[int64][]bool, len(products))
	for _, p := range products {
		available[p.ID] = make([]bool, len(restaurants))
	}
	for _, item := range items {
		row, ok := available[item.Product.ID]
		if !ok {
			continue
		}
		if col, ok := column[item.Restaurant.ID]; ok {
			row[col] = item.Available
		}
	}

	rows := make([]domain.AvailabilityRow, len(products))
	for i, p := range products {
		rows[i] = domain.AvailabilityRow{Product: p, Availability: available[p.ID]}
	}

	return domain.AvailabilityMatrix{Restaurants: restaurants, Products: rows}, nil
}

func sortRestaurantsByName(restaurants []domain.Restaurant) {
	sort.Slice(restaurants, func(i, j int) bool {
		if restaurants[i].Name != restaurants[j].Name {
			return restaurants[i].Name < restaurants[j].Name
		}
		return restaurants[i].ID < restaurants[j].ID
	})
}

package usecase

import (
	"sort"

	"github.com/foodcart/backend/internal/domain"
)

// CapabilityIndex answers which restaurants currently stock a product
// and which can fulfill an entire order.
type CapabilityIndex struct {
	stocking    map[int64]map[int64]struct{} // product id -> restaurant ids
	restaurants map[int64]domain.Restaurant
}

// NewCapabilityIndex builds the index from menu availability facts.
// Unavailable facts are ignored.
func NewCapabilityIndex(items []domain.MenuItem) *CapabilityIndex {
	idx := &CapabilityIndex{
		stocking:    make(map[int64]map[int64]struct{}),
		restaurants: make(map[int64]domain.Restaurant),
	}

	for _, item := range items {
		idx.restaurants[item.Restaurant.ID] = item.Restaurant
		if !item.Available {
			continue
		}
		set, ok := idx.stocking[item.Product.ID]
		if !ok {
			set = make(map[int64]struct{})
			idx.stocking[item.Product.ID] = set
		}
		set[item.Restaurant.ID] = struct{}{}
	}

	return idx
}

// RestaurantsStocking returns the sorted ids of restaurants where the product is available
func (idx *CapabilityIndex) RestaurantsStocking(productID int64) []int64 {
	set := idx.stocking[productID]
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RestaurantsFor returns restaurants stocking every product of the order, sorted by id.
// An order without lines has no candidates.
func (idx *CapabilityIndex) RestaurantsFor(order domain.Order) []domain.Restaurant {
	if len(order.Items) == 0 {
		return []domain.Restaurant{}
	}

	var common map[int64]struct{}
	for _, item := range order.Items {
		set := idx.stocking[item.Product.ID]
		if len(set) == 0 {
			return []domain.Restaurant{}
		}
		if common == nil {
			common = make(map[int64]struct{}, len(set))
			for id := range set {
				common[id] = struct{}{}
			}
			continue
		}
		for id := range common {
			if _, ok := set[id]; !ok {
				delete(common, id)
			}
		}
		if len(common) == 0 {
			return []domain.Restaurant{}
		}
	}

	restaurants := make([]domain.Restaurant, 0, len(common))
	for id := range common {
		restaurants = append(restaurants, idx.restaurants[id])
	}
	sort.Slice(restaurants, func(i, j int) bool { return restaurants[i].ID < restaurants[j].ID })
	return restaurants
}

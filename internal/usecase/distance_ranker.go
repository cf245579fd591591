package usecase

import (
	"math"
	"sort"

	"github.com/foodcart/backend/internal/domain"
)

// earthRadiusKm is the mean Earth radius
const earthRadiusKm = 6371.0

// DistanceRanker orders candidate restaurants by great-circle distance to the delivery address
type DistanceRanker struct{}

func NewDistanceRanker() *DistanceRanker {
	return &DistanceRanker{}
}

// Distance returns the haversine distance between a and b in kilometers
func (DistanceRanker) Distance(a, b domain.Coordinate) float64 {
	const rad = math.Pi / 180
	lat1, lat2 := a.Lat*rad, b.Lat*rad
	dLat := (b.Lat - a.Lat) * rad
	dLon := (b.Lon - a.Lon) * rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Rank returns candidates nearest first, distances rounded to 2 decimals, ties by restaurant id.
// Restaurants without a coordinate are skipped; an unresolved order address yields no ranking.
func (r DistanceRanker) Rank(
	order domain.Order,
	candidates []domain.Restaurant,
	coords domain.Coordinates,
) []domain.RankedCandidate {
	ranked := make([]domain.RankedCandidate, 0, len(candidates))

	origin, ok := coords.Lookup(order.Address)
	if !ok {
		return ranked
	}

	for _, restaurant := range candidates {
		dest, ok := coords.Lookup(restaurant.Address)
		if !ok {
			continue
		}
		ranked = append(ranked, domain.RankedCandidate{
			Restaurant: restaurant,
			DistanceKm: roundKm(r.Distance(origin, dest)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Restaurant.ID < ranked[j].Restaurant.ID
	})
	return ranked
}

func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

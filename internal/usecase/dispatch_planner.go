package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foodcart/backend/internal/domain"
	"github.com/foodcart/backend/internal/metrics"
)

// DispatchPlanner builds a ranked restaurant list for every order
type DispatchPlanner struct {
	geo    *GeoDirectory
	ranker *DistanceRanker
	logger *slog.Logger
}

func NewDispatchPlanner(geo *GeoDirectory, ranker *DistanceRanker, logger *slog.Logger) *DispatchPlanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchPlanner{geo: geo, ranker: ranker, logger: logger}
}

// Plan emits exactly one OrderPlan per order, in input order.
// Orders nobody can fulfill or with unresolved addresses keep an empty candidate list.
func (p *DispatchPlanner) Plan(ctx context.Context, orders []domain.Order, menuItems []domain.MenuItem) []domain.OrderPlan {
	start := time.Now()
	defer func() { metrics.PlanDuration.Observe(time.Since(start).Seconds()) }()

	index := NewCapabilityIndex(menuItems)

	candidates := make([][]domain.Restaurant, len(orders))
	addresses := make([]string, 0, len(orders))
	for i, order := range orders {
		candidates[i] = index.RestaurantsFor(order)
		addresses = append(addresses, order.Address)
		for _, r := range candidates[i] {
			addresses = append(addresses, r.Address)
		}
	}

	coords := p.geo.ResolveAll(ctx, addresses)

	plans := make([]domain.OrderPlan, len(orders))
	unassignable := 0
	for i, order := range orders {
		ranked := p.ranker.Rank(order, candidates[i], coords)
		if len(ranked) == 0 {
			unassignable++
		}
		plans[i] = domain.OrderPlan{
			Order:        order,
			StatusLabel:  order.Status.Label(),
			PaymentLabel: order.PaymentMethod.Label(),
			Total:        order.Total(),
			Candidates:   ranked,
		}
	}
	metrics.UnassignableOrders.Add(float64(unassignable))

	p.logger.Info("dispatch plan built",
		"orders", len(orders),
		"addresses", len(coords),
		"unassignable", unassignable,
		"duration", time.Since(start),
	)
	return plans
}

// DispatchService plans all open orders from the store
type DispatchService struct {
	orders  domain.OrderRepository
	catalog domain.CatalogRepository
	planner *DispatchPlanner
}

func NewDispatchService(orders domain.OrderRepository, catalog domain.CatalogRepository, planner *DispatchPlanner) *DispatchService {
	return &DispatchService{orders: orders, catalog: catalog, planner: planner}
}

// PlanOpenOrders reads open orders and menu facts once and plans them.
// Store failures abort the pass.
func (s *DispatchService) PlanOpenOrders(ctx context.Context) ([]domain.OrderPlan, error) {
	orders, err := s.orders.ListOpenOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list open orders: %v", domain.ErrStoreUnavailable, err)
	}

	menuItems, err := s.catalog.ListMenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list menu items: %v", domain.ErrStoreUnavailable, err)
	}

	return s.planner.Plan(ctx, orders, menuItems), nil
}

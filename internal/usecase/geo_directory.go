package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/foodcart/backend/internal/domain"
	"github.com/foodcart/backend/internal/metrics"
)

const (
	defaultResolveTimeout     = 10 * time.Second
	defaultResolveConcurrency = 8
)

// GeoDirectoryConfig holds resolution limits
type GeoDirectoryConfig struct {
	Timeout     time.Duration // per address, covers the provider call
	Concurrency int           // parallel resolutions in ResolveAll
}

// GeoDirectory resolves addresses to coordinates through the location cache,
// falling back to the geocoder on a miss.
type GeoDirectory struct {
	locations   domain.LocationRepository
	geocoder    domain.Geocoder
	logger      *slog.Logger
	timeout     time.Duration
	concurrency int
}

// NewGeoDirectory creates a directory with defaults for zero config values
func NewGeoDirectory(
	locations domain.LocationRepository,
	geocoder domain.Geocoder,
	logger *slog.Logger,
	config GeoDirectoryConfig,
) *GeoDirectory {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = defaultResolveConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GeoDirectory{
		locations:   locations,
		geocoder:    geocoder,
		logger:      logger,
		timeout:     timeout,
		concurrency: concurrency,
	}
}

// Resolve returns the coordinate of address.
// Flow: cached entry -> geocoder -> save coordinate -> return.
// Fails with domain.ErrAddressNotFound, domain.ErrGeocoderUnavailable
// or domain.ErrStoreUnavailable when the location cache itself fails.
func (g *GeoDirectory) Resolve(ctx context.Context, address string) (domain.Coordinate, error) {
	if address == "" {
		return domain.Coordinate{}, domain.ErrInvalidRequest
	}

	loc, err := g.lookup(ctx, address)
	if err != nil {
		return domain.Coordinate{}, err
	}
	if coord, ok := loc.Coordinate(); ok {
		metrics.LocationLookups.WithLabelValues("hit").Inc()
		return coord, nil
	}
	metrics.LocationLookups.WithLabelValues("miss").Inc()

	coord, err := g.geocode(ctx, address)
	if err != nil {
		return domain.Coordinate{}, err
	}

	if err := g.locations.SaveCoordinate(ctx, address, coord); err != nil {
		g.logger.Warn("failed to save resolved location", "address", address, "error", err)
	}

	return coord, nil
}

// ResolveAll resolves each distinct address at most once.
// Unresolvable addresses are absent from the result; it never fails.
func (g *GeoDirectory) ResolveAll(ctx context.Context, addresses []string) domain.Coordinates {
	result := make(domain.Coordinates, len(addresses))

	distinct := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, address := range addresses {
		if address == "" {
			continue
		}
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}
		distinct = append(distinct, address)
	}
	if len(distinct) == 0 {
		return result
	}

	cached, err := g.locations.FindByAddresses(ctx, distinct)
	if err != nil {
		// Per-address resolution below still works against the store
		g.logger.Warn("batched location read failed", "addresses", len(distinct), "error", err)
	}
	for _, loc := range cached {
		if coord, ok := loc.Coordinate(); ok {
			result[loc.Address] = coord
			metrics.LocationLookups.WithLabelValues("hit").Inc()
		}
	}

	pending := make([]string, 0, len(distinct))
	for _, address := range distinct {
		if _, ok := result[address]; !ok {
			pending = append(pending, address)
		}
	}
	if len(pending) == 0 {
		return result
	}

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, address := range pending {
		eg.Go(func() error {
			coord, err := g.Resolve(egCtx, address)
			if err != nil {
				g.logUnresolved(address, err)
				return nil
			}
			mu.Lock()
			result[address] = coord
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return result
}

// lookup fetches or creates the cache entry, re-reading when a concurrent insert won
func (g *GeoDirectory) lookup(ctx context.Context, address string) (*domain.Location, error) {
	loc, err := g.locations.GetOrCreate(ctx, address)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, domain.ErrDuplicateAddress) {
		return nil, fmt.Errorf("%w: location store: %v", domain.ErrStoreUnavailable, err)
	}

	found, err := g.locations.FindByAddresses(ctx, []string{address})
	if err != nil {
		return nil, fmt.Errorf("%w: location store: %v", domain.ErrStoreUnavailable, err)
	}
	for i := range found {
		if found[i].Address == address {
			return &found[i], nil
		}
	}
	return &domain.Location{Address: address}, nil
}

// geocode asks the provider under the per-address timeout and parses the first placemark
func (g *GeoDirectory) geocode(ctx context.Context, address string) (domain.Coordinate, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	placemarks, err := g.geocoder.Geocode(callCtx, address)
	if err != nil {
		metrics.GeocoderRequests.WithLabelValues("unavailable").Inc()
		if errors.Is(err, domain.ErrGeocoderUnavailable) {
			return domain.Coordinate{}, err
		}
		return domain.Coordinate{}, fmt.Errorf("%w: %v", domain.ErrGeocoderUnavailable, err)
	}

	if len(placemarks) == 0 {
		metrics.GeocoderRequests.WithLabelValues("not_found").Inc()
		return domain.Coordinate{}, domain.ErrAddressNotFound
	}

	coord, err := domain.ParsePosition(placemarks[0].Pos)
	if err != nil {
		metrics.GeocoderRequests.WithLabelValues("unavailable").Inc()
		return domain.Coordinate{}, fmt.Errorf("%w: %v", domain.ErrGeocoderUnavailable, err)
	}

	metrics.GeocoderRequests.WithLabelValues("found").Inc()
	return coord, nil
}

func (g *GeoDirectory) logUnresolved(address string, err error) {
	switch {
	case errors.Is(err, domain.ErrAddressNotFound):
		g.logger.Info("address not found by geocoder", "address", address)
	default:
		g.logger.Warn("address resolution failed", "address", address, "error", err)
	}
}

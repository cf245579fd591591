package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodcart/backend/config"
	httpDelivery "github.com/foodcart/backend/internal/delivery/http"
	"github.com/foodcart/backend/internal/domain"
	"github.com/foodcart/backend/internal/infrastructure/cache"
	"github.com/foodcart/backend/internal/infrastructure/memstore"
	"github.com/foodcart/backend/internal/infrastructure/postgres"
	"github.com/foodcart/backend/internal/infrastructure/yandex"
	"github.com/foodcart/backend/internal/logging"
	"github.com/foodcart/backend/internal/metrics"
	"github.com/foodcart/backend/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)
	metrics.RegisterDefault()

	logger.Info("starting foodcart dispatch",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"cache", cfg.Cache.Type,
		"store", cfg.Store.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres is shared by the store and the postgres location cache
	var pool *pgxpool.Pool
	if cfg.Store.Driver == "postgres" || cfg.Cache.Type == "postgres" {
		pool, err = postgres.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	orders, catalog, err := openStore(cfg.Store, pool)
	if err != nil {
		return err
	}

	locations, closeLocations, err := openLocationStore(ctx, cfg.Cache, pool)
	if err != nil {
		return err
	}
	defer closeLocations()

	geocoder := yandex.NewClient(cfg.Geocoder.APIKey, cfg.Geocoder.BaseURL, logger)
	geocoder.SetRateLimit(cfg.Geocoder.RatePerSecond, cfg.Geocoder.Burst)
	if cfg.Server.Environment == "development" {
		geocoder.SetDebug(true)
		logger.Debug("geocoder debug mode enabled")
	}

	// Initialize usecase layer
	geo := usecase.NewGeoDirectory(locations, geocoder, logger, usecase.GeoDirectoryConfig{
		Timeout:     cfg.Geocoder.Timeout,
		Concurrency: cfg.Geocoder.Concurrency,
	})
	planner := usecase.NewDispatchPlanner(geo, usecase.NewDistanceRanker(), logger)
	dispatch := usecase.NewDispatchService(orders, catalog, planner)
	catalogService := usecase.NewCatalogService(catalog)

	handler := httpDelivery.NewHandler(dispatch, catalogService, geo, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg config.StoreConfig, pool *pgxpool.Pool) (domain.OrderRepository, domain.CatalogRepository, error) {
	if cfg.Driver == "postgres" {
		store := postgres.NewStore(pool)
		return store, store, nil
	}

	if cfg.FixturePath == "" {
		store := memstore.New()
		return store, store, nil
	}
	store, err := memstore.LoadFile(cfg.FixturePath)
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

func openLocationStore(ctx context.Context, cfg config.CacheConfig, pool *pgxpool.Pool) (domain.LocationRepository, func(), error) {
	switch cfg.Type {
	case "redis":
		store, err := cache.NewRedisLocationStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "postgres":
		return postgres.NewStore(pool), func() {}, nil
	default:
		return cache.NewMemoryLocationStore(), func() {}, nil
	}
}

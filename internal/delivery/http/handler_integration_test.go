package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/foodcart/backend/config"
	"github.com/foodcart/backend/internal/domain"
	"github.com/foodcart/backend/internal/infrastructure/cache"
	"github.com/foodcart/backend/internal/infrastructure/memstore"
	"github.com/foodcart/backend/internal/metrics"
	"github.com/foodcart/backend/internal/usecase"
	"github.com/gin-gonic/gin"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)
	metrics.RegisterDefault()

	// Run tests
	exitCode := m.Run()

	// Exit with the test result code
	os.Exit(exitCode)
}

const testFixture = `
restaurants:
  - {id: 1, name: Near Kitchen, address: "Restaurant One"}
  - {id: 2, name: Far Kitchen, address: "Restaurant Two"}
products:
  - {id: 10, name: Burger, price: 190}
  - {id: 20, name: Fries, price: 120}
menu:
  - {restaurant: 1, product: 10, available: true}
  - {restaurant: 2, product: 10, available: true}
  - {restaurant: 2, product: 20, available: true}
orders:
  - id: 1
    address: "Order One"
    status: "NO"
    items: [{product: 10, quantity: 1}]
  - id: 2
    address: "Unknown Place 123"
    status: AC
    items: [{product: 10, quantity: 2}]
  - id: 3
    address: "Order One"
    status: FN
    items: [{product: 10, quantity: 1}]
`

// stubGeocoder answers from a fixed table; unknown addresses have no match
type stubGeocoder struct {
	positions map[string]string
	err       error
}

func (s *stubGeocoder) Geocode(ctx context.Context, address string) ([]domain.Placemark, error) {
	if s.err != nil {
		return nil, s.err
	}
	pos, ok := s.positions[address]
	if !ok {
		return []domain.Placemark{}, nil
	}
	return []domain.Placemark{{Pos: pos}}, nil
}

func newStubGeocoder() *stubGeocoder {
	return &stubGeocoder{positions: map[string]string{
		"Order One":      "37.62 55.75",
		"Restaurant One": "37.60 55.76",
		"Restaurant Two": "37.65 55.70",
	}}
}

// failingCatalog makes every store read fail
type failingCatalog struct{}

func (failingCatalog) ListOpenOrders(ctx context.Context) ([]domain.Order, error) {
	return nil, errors.New("connection refused")
}
func (failingCatalog) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	return nil, errors.New("connection refused")
}
func (failingCatalog) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	return nil, errors.New("connection refused")
}
func (failingCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return nil, errors.New("connection refused")
}

// failingLocations makes every location cache call fail
type failingLocations struct{}

func (failingLocations) FindByAddresses(ctx context.Context, addresses []string) ([]domain.Location, error) {
	return nil, errors.New("connection refused")
}
func (failingLocations) GetOrCreate(ctx context.Context, address string) (*domain.Location, error) {
	return nil, errors.New("connection refused")
}
func (failingLocations) SaveCoordinate(ctx context.Context, address string, coord domain.Coordinate) error {
	return errors.New("connection refused")
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Geocoder: config.GeocoderConfig{
			APIKey:      "test-api-key",
			Timeout:     time.Second,
			Concurrency: 2,
		},
		Cache: config.CacheConfig{Type: "memory"},
		Store: config.StoreConfig{Driver: "memory"},
	}
}

// setupTestRouterWith wires real services over the given store and geocoder
func setupTestRouterWith(t *testing.T, orders domain.OrderRepository, catalog domain.CatalogRepository, geocoder domain.Geocoder) *gin.Engine {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	geo := usecase.NewGeoDirectory(cache.NewMemoryLocationStore(), geocoder, logger,
		usecase.GeoDirectoryConfig{Timeout: time.Second, Concurrency: 2})
	planner := usecase.NewDispatchPlanner(geo, usecase.NewDistanceRanker(), logger)

	handler := NewHandler(
		usecase.NewDispatchService(orders, catalog, planner),
		usecase.NewCatalogService(catalog),
		geo,
		logger,
	)
	return SetupRouter(testConfig(), handler, logger)
}

// setupTestRouter creates a test router over the fixture store
func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	store, err := memstore.Load([]byte(testFixture))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return setupTestRouterWith(t, store, store, newStubGeocoder())
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		w := doRequest(setupTestRouter(t), "GET", "/health")

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "foodcart-dispatch" {
			t.Errorf("service = %v, want foodcart-dispatch", response["service"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(t)

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := doRequest(router, method, "/health")
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

type planResponse struct {
	Orders []domain.OrderPlan `json:"orders"`
}

// TestDispatchOrdersEndpoint tests the dispatch planning endpoint
func TestDispatchOrdersEndpoint(t *testing.T) {
	t.Run("ranks open orders", func(t *testing.T) {
		w := doRequest(setupTestRouter(t), "GET", "/api/v1/dispatch/orders")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
		}

		var response planResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if len(response.Orders) != 2 {
			t.Fatalf("orders = %d, want 2 (finished order excluded)", len(response.Orders))
		}

		first := response.Orders[0]
		if first.Order.ID != 1 {
			t.Errorf("first order id = %d, want 1", first.Order.ID)
		}
		if first.StatusLabel != "Unprocessed" || first.PaymentLabel != "Card" {
			t.Errorf("labels = %q/%q, want Unprocessed/Card", first.StatusLabel, first.PaymentLabel)
		}
		if len(first.Candidates) != 2 {
			t.Fatalf("candidates = %d, want 2", len(first.Candidates))
		}
		if first.Candidates[0].Restaurant.ID != 1 || first.Candidates[0].DistanceKm != 1.67 {
			t.Errorf("nearest = %+v, want restaurant 1 at 1.67 km", first.Candidates[0])
		}
		if first.Candidates[1].Restaurant.ID != 2 {
			t.Errorf("second = %+v, want restaurant 2", first.Candidates[1])
		}

		unresolved := response.Orders[1]
		if unresolved.Order.ID != 2 {
			t.Errorf("second order id = %d, want 2", unresolved.Order.ID)
		}
		if unresolved.StatusLabel != "Accepted" {
			t.Errorf("status label = %q, want Accepted", unresolved.StatusLabel)
		}
		if unresolved.Total != 380 {
			t.Errorf("total = %v, want 380", unresolved.Total)
		}
	})

	t.Run("empty candidates serialize as an array", func(t *testing.T) {
		w := doRequest(setupTestRouter(t), "GET", "/api/v1/dispatch/orders")

		if !strings.Contains(w.Body.String(), `"candidates":[]`) {
			t.Errorf("body should contain an empty candidates array: %s", w.Body.String())
		}
	})

	t.Run("geocoder outage still lists every order", func(t *testing.T) {
		store, err := memstore.Load([]byte(testFixture))
		if err != nil {
			t.Fatalf("load fixture: %v", err)
		}
		router := setupTestRouterWith(t, store, store, &stubGeocoder{err: errors.New("connection refused")})

		w := doRequest(router, "GET", "/api/v1/dispatch/orders")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response planResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(response.Orders) != 2 {
			t.Errorf("orders = %d, want 2", len(response.Orders))
		}
	})

	t.Run("store failure returns 503", func(t *testing.T) {
		router := setupTestRouterWith(t, failingCatalog{}, failingCatalog{}, newStubGeocoder())

		w := doRequest(router, "GET", "/api/v1/dispatch/orders")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})
}

// TestCatalogEndpoints tests the back-office catalog views
func TestCatalogEndpoints(t *testing.T) {
	t.Run("availability matrix", func(t *testing.T) {
		w := doRequest(setupTestRouter(t), "GET", "/api/v1/catalog/availability")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var matrix domain.AvailabilityMatrix
		if err := json.Unmarshal(w.Body.Bytes(), &matrix); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(matrix.Restaurants) != 2 || matrix.Restaurants[0].Name != "Far Kitchen" {
			t.Fatalf("restaurants = %+v, want sorted by name", matrix.Restaurants)
		}
		if len(matrix.Products) != 2 {
			t.Fatalf("products = %d, want 2", len(matrix.Products))
		}
		fries := matrix.Products[1]
		if fries.Product.ID != 20 || fries.Availability[0] != true || fries.Availability[1] != false {
			t.Errorf("fries row = %+v, want available only at Far Kitchen", fries)
		}
	})

	t.Run("restaurants", func(t *testing.T) {
		w := doRequest(setupTestRouter(t), "GET", "/api/v1/catalog/restaurants")

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response struct {
			Restaurants []domain.Restaurant `json:"restaurants"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(response.Restaurants) != 2 {
			t.Errorf("restaurants = %d, want 2", len(response.Restaurants))
		}
	})

	t.Run("store failure returns 503", func(t *testing.T) {
		router := setupTestRouterWith(t, failingCatalog{}, failingCatalog{}, newStubGeocoder())

		for _, path := range []string{"/api/v1/catalog/availability", "/api/v1/catalog/restaurants"} {
			w := doRequest(router, "GET", path)
			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("Path %s: Status = %d, want %d", path, w.Code, http.StatusServiceUnavailable)
			}
		}
	})
}

// TestResolveLocationEndpoint tests single-address geocoding
func TestResolveLocationEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		geocoder   *stubGeocoder
		query      string
		wantStatus int
	}{
		{name: "resolved", geocoder: newStubGeocoder(), query: "?address=Order+One", wantStatus: http.StatusOK},
		{name: "not found", geocoder: newStubGeocoder(), query: "?address=Unknown+Place+123", wantStatus: http.StatusNotFound},
		{name: "provider down", geocoder: &stubGeocoder{err: errors.New("timeout")}, query: "?address=Order+One", wantStatus: http.StatusBadGateway},
		{name: "missing address", geocoder: newStubGeocoder(), query: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := memstore.Load([]byte(testFixture))
			if err != nil {
				t.Fatalf("load fixture: %v", err)
			}
			router := setupTestRouterWith(t, store, store, tt.geocoder)

			w := doRequest(router, "GET", "/api/v1/locations/resolve"+tt.query)
			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	t.Run("location store down returns 503", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		geo := usecase.NewGeoDirectory(failingLocations{}, newStubGeocoder(), logger,
			usecase.GeoDirectoryConfig{Timeout: time.Second, Concurrency: 2})
		handler := NewHandler(nil, nil, geo, logger)
		router := SetupRouter(testConfig(), handler, logger)

		w := doRequest(router, "GET", "/api/v1/locations/resolve?address=Order+One")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d: %s", w.Code, http.StatusServiceUnavailable, w.Body.String())
		}
	})

	t.Run("returns longitude and latitude", func(t *testing.T) {
		w := doRequest(setupTestRouter(t), "GET", "/api/v1/locations/resolve?address=Restaurant+One")

		var response struct {
			Address    string            `json:"address"`
			Coordinate domain.Coordinate `json:"coordinate"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response.Address != "Restaurant One" {
			t.Errorf("address = %q, want Restaurant One", response.Address)
		}
		if response.Coordinate.Lon != 37.60 || response.Coordinate.Lat != 55.76 {
			t.Errorf("coordinate = %+v, want lon 37.60 lat 55.76", response.Coordinate)
		}
	})
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	router := setupTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/catalog/restaurants", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Errorf("X-Request-Id should be set")
	}
}

// TestRecoveryIntegration tests panic recovery on the full router
func TestRecoveryIntegration(t *testing.T) {
	router := setupTestRouter(t)
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := doRequest(router, "GET", "/panic")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

// TestMetricsEndpoint tests the Prometheus scrape endpoint
func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	doRequest(router, "GET", "/api/v1/dispatch/orders")

	w := doRequest(router, "GET", "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("Content-Type = %q, want text exposition format", w.Header().Get("Content-Type"))
	}
}

// TestJSONResponses tests that API responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []string{
		"/health",
		"/api/v1/dispatch/orders",
		"/api/v1/catalog/availability",
		"/api/v1/catalog/restaurants",
		"/api/v1/locations/resolve",
	}

	for _, path := range endpoints {
		t.Run(path, func(t *testing.T) {
			w := doRequest(setupTestRouter(t), "GET", path)

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}

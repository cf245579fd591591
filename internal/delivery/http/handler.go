package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodcart/backend/internal/domain"
)

// OrderPlanner plans every open order
type OrderPlanner interface {
	PlanOpenOrders(ctx context.Context) ([]domain.OrderPlan, error)
}

// CatalogReader serves the back-office catalog views
type CatalogReader interface {
	AvailabilityMatrix(ctx context.Context) (domain.AvailabilityMatrix, error)
	Restaurants(ctx context.Context) ([]domain.Restaurant, error)
}

// AddressResolver resolves a single address
type AddressResolver interface {
	Resolve(ctx context.Context, address string) (domain.Coordinate, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	planner  OrderPlanner
	catalog  CatalogReader
	resolver AddressResolver
	logger   *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(planner OrderPlanner, catalog CatalogReader, resolver AddressResolver, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		planner:  planner,
		catalog:  catalog,
		resolver: resolver,
		logger:   logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "foodcart-dispatch",
		"version": "1.0.0",
	})
}

// DispatchOrders returns every open order with its candidate restaurants, nearest first
func (h *Handler) DispatchOrders(c *gin.Context) {
	plans, err := h.planner.PlanOpenOrders(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": plans})
}

// Availability returns the product by restaurant stock matrix
func (h *Handler) Availability(c *gin.Context) {
	matrix, err := h.catalog.AvailabilityMatrix(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, matrix)
}

// Restaurants lists restaurants ordered by name
func (h *Handler) Restaurants(c *gin.Context) {
	restaurants, err := h.catalog.Restaurants(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"restaurants": restaurants})
}

// ResolveLocation geocodes the address query parameter through the location cache
func (h *Handler) ResolveLocation(c *gin.Context) {
	address := c.Query("address")
	if address == "" {
		h.respondError(c, domain.ErrInvalidRequest)
		return
	}

	coord, err := h.resolver.Resolve(c.Request.Context(), address)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":    address,
		"coordinate": coord,
	})
}

// respondError maps domain errors to HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAddressNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrGeocoderUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"path", c.FullPath(),
			"request_id", c.GetString(requestIDKey),
			"error", err,
		)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, route, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// LocationLookups counts geocoding cache reads by result (hit, miss)
	LocationLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "location_cache_lookups_total", Help: "Location cache lookups by result."},
		[]string{"result"},
	)
	// GeocoderRequests counts geocoder calls by outcome (found, not_found, unavailable)
	GeocoderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "geocoder_requests_total", Help: "Geocoder requests by outcome."},
		[]string{"outcome"},
	)
	// PlanDuration records how long a dispatch planning pass takes
	PlanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "dispatch_plan_duration_seconds", Help: "Dispatch planning pass duration in seconds.", Buckets: prometheus.DefBuckets},
	)
	// UnassignableOrders counts planned orders that ended up without any ranked restaurant
	UnassignableOrders = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dispatch_unassignable_orders_total", Help: "Planned orders without a ranked restaurant."},
	)
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(LocationLookups)
		Registry.MustRegister(GeocoderRequests)
		Registry.MustRegister(PlanDuration)
		Registry.MustRegister(UnassignableOrders)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

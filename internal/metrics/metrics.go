// Package metrics holds the Prometheus collectors shared across the app.
// Collectors register on the default registry at init (promauto), which is
// what /metrics serves.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamerater_http_requests_total",
		Help: "Total HTTP requests by method, route and response status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamerater_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	CatalogRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamerater_catalog_requests_total",
		Help: "Catalog API calls by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	CatalogRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gamerater_catalog_request_duration_seconds",
		Help:    "Catalog API call latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	CatalogTokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamerater_catalog_token_refreshes_total",
		Help: "Client-credentials token exchanges by result.",
	}, []string{"result"})

	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gamerater_rate_limited_total",
		Help: "Requests rejected by the per-IP rate limiter, by route.",
	}, []string{"route"})
)

// RecordCatalogCall records one catalog API round trip.
func RecordCatalogCall(endpoint string, err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	CatalogRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	CatalogRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RecordTokenRefresh records a token exchange result.
func RecordTokenRefresh(success bool) {
	if success {
		CatalogTokenRefreshesTotal.WithLabelValues("success").Inc()
	} else {
		CatalogTokenRefreshesTotal.WithLabelValues("failure").Inc()
	}
}

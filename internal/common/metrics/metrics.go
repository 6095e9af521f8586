// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
		[]string{"route"},
	)

	SectionCorrelations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_section_correlations_total",
			Help: "Section correlations by result (found, missing, failed)",
		},
		[]string{"result"},
	)

	ReasoningCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reasoning_cache_lookups_total",
			Help: "Correlation cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

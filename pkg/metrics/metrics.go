package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// External API metrics
	ExternalAPICalls    *prometheus.CounterVec
	ExternalAPIDuration *prometheus.HistogramVec
	ExternalAPIFailures *prometheus.CounterVec

	// Platform client internals
	TokenRefreshes      *prometheus.CounterVec
	CacheLookups        *prometheus.CounterVec
	RateLimitRejections *prometheus.CounterVec
}

// New registers every series on reg. Pass prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		ExternalAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_calls_total",
				Help: "Total number of advertising platform API calls",
			},
			[]string{"platform", "operation", "status"},
		),

		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "external_api_duration_seconds",
				Help:    "Advertising platform API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"platform", "operation"},
		),

		ExternalAPIFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "external_api_failures_total",
				Help: "Total number of advertising platform API failures",
			},
			[]string{"platform", "error_type"},
		),

		TokenRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_refreshes_total",
				Help: "OAuth token refresh attempts by outcome",
			},
			[]string{"platform", "result"},
		),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "response_cache_lookups_total",
				Help: "Response cache lookups by outcome",
			},
			[]string{"platform", "result"},
		),

		RateLimitRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_rejections_total",
				Help: "Requests rejected by a local rate limiter",
			},
			[]string{"scope"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// External API call metrics
func (m *Metrics) RecordExternalAPICall(platform, operation, status string, duration time.Duration) {
	m.ExternalAPICalls.WithLabelValues(platform, operation, status).Inc()
	m.ExternalAPIDuration.WithLabelValues(platform, operation).Observe(duration.Seconds())
}

// External API failure metrics
func (m *Metrics) RecordExternalAPIFailure(platform, errorType string) {
	m.ExternalAPIFailures.WithLabelValues(platform, errorType).Inc()
}

func (m *Metrics) RecordTokenRefresh(platform, result string) {
	m.TokenRefreshes.WithLabelValues(platform, result).Inc()
}

// result is "hit" or "miss"
func (m *Metrics) RecordCacheLookup(platform, result string) {
	m.CacheLookups.WithLabelValues(platform, result).Inc()
}

func (m *Metrics) RecordRateLimitRejection(scope string) {
	m.RateLimitRejections.WithLabelValues(scope).Inc()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

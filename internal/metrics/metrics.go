// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth event names.
const (
	EventRegister = "register"
	EventLogin    = "login"
	EventLogout   = "logout"
)

// Auth outcome labels.
const (
	OutcomeSuccess      = "success"
	OutcomeEmailTaken   = "email_taken"
	OutcomeUnknownEmail = "unknown_email"
	OutcomeBadPassword  = "bad_password"
	OutcomeError        = "error"
)

// HTTPRequests counts handled requests by method and status code.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authgate_http_requests_total",
		Help: "Total number of HTTP requests handled",
	},
	[]string{"method", "code"},
)

// HTTPDuration observes request latency by method.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "authgate_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method"},
)

// AuthEvents counts register/login/logout attempts by outcome.
var AuthEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authgate_auth_events_total",
		Help: "Total number of authentication events by outcome",
	},
	[]string{"event", "outcome"},
)

// RateLimited counts requests rejected by the rate limiter.
var RateLimited = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authgate_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	},
	[]string{"path"},
)

// RegisterMetrics registers the package collectors plus Go and process
// collectors with reg. Panics if registration fails (following prometheus
// convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(AuthEvents)
	reg.MustRegister(RateLimited)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordRequest records one handled request.
func RecordRequest(method string, code int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAuthEvent increments the auth event counter.
func RecordAuthEvent(event, outcome string) {
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

// RecordRateLimited increments the rate limiter rejection counter.
func RecordRateLimited(path string) {
	RateLimited.WithLabelValues(path).Inc()
}

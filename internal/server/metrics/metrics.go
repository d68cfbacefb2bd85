// Package metrics holds the Prometheus instruments of the portal server.
// They are registered on the default registry and exposed by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login results.
const (
	LoginOK             = "ok"
	LoginBadCredentials = "bad_credentials"
	LoginBlocked        = "blocked"
	LoginRateLimited    = "rate_limited"
	LoginMaintenance    = "maintenance"
	LoginError          = "error"
)

// LoginAttempts counts login outcomes.
var LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tvportal_login_attempts_total",
	Help: "Login attempts by outcome.",
}, []string{"result"})

// SessionValidations counts per-request session re-validations.
var SessionValidations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tvportal_session_validations_total",
	Help: "Session validations by outcome.",
}, []string{"result"})

// AdminActions counts privileged mutations by audit action.
var AdminActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tvportal_admin_actions_total",
	Help: "Privileged actions performed by administrators.",
}, []string{"action"})

// SessionsRevoked counts accounts whose sessions were invalidated in bulk.
var SessionsRevoked = promauto.NewCounter(prometheus.CounterOpts{
	Name: "tvportal_bulk_revoked_accounts_total",
	Help: "Accounts kicked by maintenance activation or logout-all.",
})

// HTTPRequests counts HTTP requests by method, route pattern and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tvportal_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "route", "status"})

// HTTPDuration tracks HTTP request latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "tvportal_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route"})

// GRPCRequests counts unary gRPC calls by full method and status code.
var GRPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "tvportal_grpc_requests_total",
	Help: "Unary gRPC calls by method and code.",
}, []string{"method", "code"})

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

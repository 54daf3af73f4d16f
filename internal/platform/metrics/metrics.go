// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes Prometheus instruments for the HTTP surface and the
// authentication flows.
//
// The collectors are package-level so any layer can record without plumbing a
// registry through constructors. [RegisterMetrics] must run once at startup.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/gatekeeper/internal/platform/middleware"
)

// Outcome labels for [AuthEvents].
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// HTTPRequests counts finished requests by route pattern.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatekeeper_http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"method", "route", "status"},
)

// HTTPDuration observes request latency by route pattern.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gatekeeper_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// AuthEvents counts authentication operations by outcome.
var AuthEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gatekeeper_auth_events_total",
		Help: "Total number of authentication operations",
	},
	[]string{"operation", "outcome"},
)

// RegisterMetrics registers the package collectors with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(AuthEvents)
}

// RecordAuthEvent increments the auth event counter.
// Parameters:
//   - operation: login, register, identity_login, refresh, authenticate
//   - outcome: one of the Outcome* constants
func RecordAuthEvent(operation, outcome string) {
	AuthEvents.WithLabelValues(operation, outcome).Inc()
}

// Handler serves the exposition format for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware records count and latency per chi route pattern. Unmatched paths
// share one label so scanners cannot blow up cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		startTime := time.Now()
		recorder := &middleware.StatusRecorder{ResponseWriter: writer, Status: http.StatusOK}

		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		HTTPRequests.WithLabelValues(request.Method, route, strconv.Itoa(recorder.Status)).Inc()
		HTTPDuration.WithLabelValues(request.Method, route).Observe(time.Since(startTime).Seconds())
	})
}

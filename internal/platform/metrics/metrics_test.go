// Copyright (c) 2026 Gatekeeper. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gatekeeper/internal/platform/metrics"
)

func TestRecordAuthEvent(t *testing.T) {
	counter := metrics.AuthEvents.WithLabelValues("login", metrics.OutcomeRejected)
	before := testutil.ToFloat64(counter)

	metrics.RecordAuthEvent("login", metrics.OutcomeRejected)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

/*
TestMiddleware_UsesRoutePattern verifies the route label is the chi pattern,
not the raw path.
*/
func TestMiddleware_UsesRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Get("/users/{id}", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	})

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/users/{id}", "404")
	before := testutil.ToFloat64(counter)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/def", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRegisterAndExpose(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics.RegisterMetrics(registry)
	metrics.RecordAuthEvent("refresh", metrics.OutcomeSuccess)

	recorder := httptest.NewRecorder()
	metrics.Handler(registry).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "gatekeeper_auth_events_total")
}

package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesRuntimeMetrics(t *testing.T) {
	body := scrape(t, NewMetrics())
	require.Contains(t, body, "go_goroutines")
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `ledger_http_requests_total{code="418",route="/test"} 1`)
	require.Contains(t, body, `ledger_http_request_duration_seconds_bucket{route="/test"`)
}

func TestObserveStatement(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveStatement("SELECT", 3*time.Millisecond, nil)
	metrics.ObserveStatement("INSERT", time.Millisecond, errors.New("conflict"))

	body := scrape(t, metrics)
	require.Contains(t, body, `ledger_db_statement_duration_seconds_count{op="SELECT"} 1`)
	require.Contains(t, body, `ledger_db_statement_errors_total{op="INSERT"} 1`)
	require.False(t, strings.Contains(body, `ledger_db_statement_errors_total{op="SELECT"}`))

	var nilMetrics *Metrics
	nilMetrics.ObserveStatement("SELECT", time.Millisecond, nil)
}

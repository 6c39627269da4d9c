package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://ledger@db/ledger")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "pgx", cfg.PGDriver)
	require.Equal(t, 5*time.Minute, cfg.BalanceCacheTTL)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.Equal(t, "X-User-ID", cfg.IdentityHeader)
	require.False(t, cfg.AtomicPosting)
	require.False(t, cfg.IsProduction())

	dbCfg := cfg.Database()
	require.Equal(t, "postgres://ledger@db/ledger", dbCfg.DSN)
	require.Equal(t, 10, dbCfg.MaxConns)
}

func TestLoadConfigFromDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.env")
	require.NoError(t, os.WriteFile(path, []byte("LEDGER_ATOMIC_POSTING=true\nAPP_ENV=production\n"), 0o600))
	t.Setenv("APP_ENV", "staging")
	// godotenv never overrides variables that are already set.
	t.Setenv("LEDGER_ATOMIC_POSTING", "")
	require.NoError(t, os.Unsetenv("LEDGER_ATOMIC_POSTING"))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.True(t, cfg.AtomicPosting)
	require.Equal(t, "staging", cfg.AppEnv)
}

func TestLoadConfigRejectsDriver(t *testing.T) {
	t.Setenv("PG_DRIVER", "mysql")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorContains(t, err, "PG_DRIVER")
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "shown", line["msg"])
	require.Equal(t, "v", line["k"])

	require.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestRouterProbes(t *testing.T) {
	metrics := observability.NewMetrics()
	cfg := &Config{AppEnv: "development", RateLimitPerMinute: 100}
	router := NewRouter(RouterParams{Config: cfg, Metrics: metrics, Database: stubPinger{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ledger_http_requests_total")
}

func TestRouterReadinessFailure(t *testing.T) {
	router := NewRouter(RouterParams{Config: &Config{}, Database: stubPinger{err: errors.New("connection refused")}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouterRejectsMalformedIdentity(t *testing.T) {
	router := NewRouter(RouterParams{Config: &Config{IdentityHeader: "X-Person"}})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Person", "not-a-uuid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterRateLimit(t *testing.T) {
	router := NewRouter(RouterParams{Config: &Config{RateLimitPerMinute: 2}})
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.9:4410"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

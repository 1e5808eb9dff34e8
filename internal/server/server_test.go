package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.cscs.ch/openchami/chamicore-sandwich/internal/config"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/events"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/metrics"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/store"
	"git.cscs.ch/openchami/chamicore-sandwich/internal/testutil"
)

type testEnv struct {
	router   http.Handler
	store    *store.Store
	recorder *events.Recorder
	close    func() error
}

func newTestEnv(t *testing.T, opts ...Option) testEnv {
	t.Helper()

	db := testutil.NewTestSQLite(t)
	st := store.New(db, store.DialectSQLite)
	rec := &events.Recorder{}

	opts = append([]Option{WithPublisher(rec)}, opts...)
	srv := New(st, config.Config{CORSOrigins: []string{"*"}}, "v1", "abc", "now", opts...)

	return testEnv{router: srv.Router(), store: st, recorder: rec, close: db.Close}
}

func (e testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestServer_PublicEndpoints(t *testing.T) {
	m := metrics.New()
	env := newTestEnv(t, WithMetrics(m), WithOpenAPISpec([]byte("openapi: 3.0.3\n")))

	w := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/readiness", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"version":"v1","commit":"abc","buildDate":"now"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/openapi.yaml", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "openapi: 3.0.3\n", w.Body.String())

	// MetricsEnabled is false in the test config.
	w = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	db := testutil.NewTestSQLite(t)
	st := store.New(db, store.DialectSQLite)
	srv := New(st, config.Config{MetricsEnabled: true}, "v1", "abc", "now", WithMetrics(metrics.New()))

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `chamicore_sandwich_http_requests_total{method="GET",route="/orders",status="200"} 1`)
}

func TestServer_ReadinessFailsWhenDatabaseClosed(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.close())

	w := env.do(t, http.MethodGet, "/readiness", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_StandardHeaders(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/sandwich", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sandwich/v1", w.Header().Get("X-API-Version"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestServer_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/orders/1", nil)
	req.Header.Set("Origin", "http://ui.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RateLimit(t *testing.T) {
	db := testutil.NewTestSQLite(t)
	srv := New(store.New(db, store.DialectSQLite),
		config.Config{RateLimitRPS: 0.001, RateLimitBurst: 1}, "v1", "abc", "now")

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-api/internal/config"
)

func testConfig() *config.App {
	return &config.App{
		HTTPAddr: "127.0.0.1:0",
		CORS: config.CORS{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "true"},
			MaxAge:         3600,
		},
	}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func okCheck(name string) DependencyCheck {
	return DependencyCheck{Name: name, Ping: func(context.Context) error { return nil }}
}

func TestHealthz(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), nil, nil, nil)

	rec := serve(router, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), nil, nil, nil)

	rec := serve(router, http.MethodGet, "/no/such/thing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":404,"message":"resource not found"}`, rec.Body.String())
}

func TestPing(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		router := NewRouter(testConfig(), zerolog.Nop(), []DependencyCheck{okCheck("postgres"), okCheck("redis")}, nil, nil)

		rec := serve(router, http.MethodGet, "/v1/ping")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"pong":true}`, rec.Body.String())
	})

	t.Run("dependency down", func(t *testing.T) {
		down := DependencyCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}
		router := NewRouter(testConfig(), zerolog.Nop(), []DependencyCheck{okCheck("postgres"), down}, nil, nil)

		rec := serve(router, http.MethodGet, "/v1/ping")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":502`)
	})
}

func TestPingDependenciesNamesFailure(t *testing.T) {
	cause := errors.New("timeout")
	err := pingDependencies(context.Background(), []DependencyCheck{
		{Name: "postgres", Ping: func(context.Context) error { return cause }},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "postgres: timeout", err.Error())
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/questions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,PUT,POST,DELETE,OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type,Authorization,true", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORSEchoesListedOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.CORS.AllowedOrigins = []string{"https://quiz.example.com"}
	cfg.CORS.AllowCredentials = true
	router := NewRouter(cfg, zerolog.Nop(), nil, nil, nil)

	allowed := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	allowed.Header.Set("Origin", "https://quiz.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, allowed)
	assert.Equal(t, "https://quiz.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	other := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	other.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, other)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPropagation(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))

	rec = serve(router, http.MethodGet, "/healthz")
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}

func TestRecoverMiddleware(t *testing.T) {
	handler := recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := serve(handler, http.MethodGet, "/")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":500,"message":"internal server error"}`, rec.Body.String())
}

func TestMetricsRecordRoutePattern(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), nil, nil, nil)
	serve(router, http.MethodGet, "/healthz")

	rec := serve(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `trivia_http_requests_total{method="GET",route="/healthz",status="200"}`))
}

func TestStatusRecorderDefaultsTo200(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	assert.Equal(t, http.StatusOK, rec.Status())

	rec.WriteHeader(http.StatusTeapot)
	rec.WriteHeader(http.StatusOK)
	assert.Equal(t, http.StatusTeapot, rec.Status())

	_, _, err := rec.Hijack()
	assert.Error(t, err)
}

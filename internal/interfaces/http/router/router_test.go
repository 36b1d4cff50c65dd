package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"filing-rag-api/internal/config"
	"filing-rag-api/internal/interfaces/http/handler"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type denyAll struct{}

func (denyAll) Allow(context.Context, string, int, time.Duration) (bool, error) { return false, nil }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Version = "test"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"
	return cfg
}

func serve(r *Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Engine().ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New(testConfig(), Handlers{Health: handler.NewHealthHandler(okPinger{}, nil, "test")}, nil)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/live", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics", "").Code)

	// 未装配的处理器返回 503
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPost, "/v1/search", `{"query":"q"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, "/v1/files", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodDelete, "/v1/tickers/AAPL", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/v1/unknown", "").Code)
}

func TestRateLimitAppliesToV1Only(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.Security.RateLimit.Enabled = true
	r := New(cfg, Handlers{}, denyAll{})

	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/v1/files", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"agentdesk/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewHTTPRateLimitMiddleware(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func get(router http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[http.CanonicalHeaderKey(k)] = v
	}
	router.ServeHTTP(w, req)
	return w
}

func TestHTTPRateLimitMiddleware_Disabled_AllowsRequests(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = false
	router := newLimitedRouter(cfg)

	assert.Equal(t, http.StatusOK, get(router, "/test", nil).Code)
	assert.Equal(t, http.StatusOK, get(router, "/test", nil).Code)
}

func TestHTTPRateLimitMiddleware_Enabled_RateLimited(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.HTTP.RequestsPerSecond = 1
	cfg.RateLimiting.HTTP.Burst = 1
	cfg.RateLimiting.HTTP.MaxConcurrent = 0
	router := newLimitedRouter(cfg)

	require.Equal(t, http.StatusOK, get(router, "/test", nil).Code)

	w := get(router, "/test", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestHTTPRateLimitMiddleware_PerForwardedClient(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.HTTP.RequestsPerSecond = 1
	cfg.RateLimiting.HTTP.Burst = 1
	router := newLimitedRouter(cfg)

	a := http.Header{"X-Forwarded-For": {"10.0.0.1, 172.16.0.1"}}
	b := http.Header{"X-Forwarded-For": {"10.0.0.2"}}

	assert.Equal(t, http.StatusOK, get(router, "/test", a).Code)
	assert.Equal(t, http.StatusOK, get(router, "/test", b).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "/test", a).Code)
}

func TestStreamLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.DefaultConfig()
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.WebSocket.MaxConcurrent = 1

	entered := make(chan struct{})
	release := make(chan struct{})
	router := gin.New()
	router.Use(NewStreamLimitMiddleware(cfg))
	router.GET("/stream", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})

	done := make(chan int)
	go func() { done <- get(router, "/stream", nil).Code }()
	<-entered

	assert.Equal(t, http.StatusServiceUnavailable, get(router, "/stream", nil).Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

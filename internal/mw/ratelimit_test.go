package mw

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newLimitedRouter(limiter *IPRateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimiter(limiter))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func request(r http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	router := newLimitedRouter(NewIPRateLimiter(PerMinute(5), 5))

	for i := 0; i < 5; i++ {
		w := request(router, "10.0.0.1")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := request(router, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())

	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.True(t, retry >= 1 && retry <= 12, "Retry-After = %d", retry)
}

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := NewIPRateLimiter(PerMinute(1), 1)
	router := newLimitedRouter(limiter)

	assert.Equal(t, http.StatusOK, request(router, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, request(router, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, request(router, "10.0.0.2").Code)
	assert.Equal(t, 2, limiter.Len())
}

func TestPerMinute(t *testing.T) {
	assert.Equal(t, rate.Limit(5.0/60), PerMinute(5))
	assert.Equal(t, rate.Inf, PerMinute(0))
}

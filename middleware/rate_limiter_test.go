// middleware/rate_limiter_test.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/relay/logging"
)

func limiterRouter(allow LimitFunc, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if userID != "" {
		r.Use(func(c *gin.Context) {
			c.Set(RequestingUserIDKey, userID)
			c.Next()
		})
	}
	r.Use(RateLimiter(allow, 2, time.Minute))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestRateLimiter(t *testing.T) {
	logger.UseLogger(zap.NewNop())

	hits := map[string]int{}
	allow := func(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
		hits[key]++
		return hits[key] <= limit, nil
	}
	router := limiterRouter(allow, "user-1")

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 3, hits["user:user-1"])
}

func TestRateLimiter_KeysAnonymousCallersByIP(t *testing.T) {
	logger.UseLogger(zap.NewNop())

	var seen string
	allow := func(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
		seen = key
		return true, nil
	}
	router := limiterRouter(allow, "")

	req := httptest.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "10.1.2.3", seen)
}

func TestRateLimiter_BackendError(t *testing.T) {
	logger.UseLogger(zap.NewNop())

	allow := func(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
		return false, errors.New("redis down")
	}
	router := limiterRouter(allow, "user-1")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

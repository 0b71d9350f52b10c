// router/router_test.go
package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/relay/controller"
	"github.com/dev-mohitbeniwal/relay/dao"
	"github.com/dev-mohitbeniwal/relay/middleware"
	"github.com/dev-mohitbeniwal/relay/redirect"
	"github.com/dev-mohitbeniwal/relay/service"
	test_mock "github.com/dev-mohitbeniwal/relay/test/mock"
	"github.com/dev-mohitbeniwal/relay/util"
)

const secret = "router-secret"

func newEngine(t *testing.T, upstream string) *gin.Engine {
	t.Helper()
	return newEngineWithOptions(t, Options{ContentUpstream: upstream})
}

func newEngineWithOptions(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := dao.NewMemoryRedirectDAO()
	cache := redirect.NewCache(store, time.Minute)
	auditService := new(test_mock.MockAuditService)
	auditService.On("Record", mock.Anything, mock.Anything).Return(nil).Maybe()

	eventBus := util.NewEventBus()
	t.Cleanup(eventBus.Wait)

	services, err := service.InitializeServices(store, cache, nil, auditService,
		util.NewValidationUtil(), util.NewNotificationService(), eventBus)
	require.NoError(t, err)

	verifier, err := middleware.NewHMACVerifier(secret, "")
	require.NoError(t, err)

	opts.Redirects = redirect.NewRouter(cache, []string{"/_next", "/api", "/static", "/studio"})
	opts.Verifier = verifier
	engine, err := SetupRouter(controller.InitializeControllers(services), opts)
	require.NoError(t, err)
	return engine
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestSetupRouter_EndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("page " + r.URL.Path))
	}))
	defer upstream.Close()
	engine := newEngine(t, upstream.URL)

	// before any rule the request reaches the content site
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/old", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page /old", w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/redirects", strings.NewReader(`{"source":"/old","destination":"/new"}`))
	req.Header.Set("Authorization", bearer(t, "owner-1"))
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/old?x=1", nil)
	req.Host = "site.test"
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "http://site.test/new?x=1", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/redirects", nil)
	req.Header.Set("Authorization", bearer(t, "owner-2"))
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"redirects":[]}`, w.Body.String())
}

func TestSetupRouter_AdminRequiresSession(t *testing.T) {
	engine := newEngine(t, "")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/redirects", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetupRouter_NoUpstreamAnswers404(t *testing.T) {
	engine := newEngine(t, "")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/about", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentHandler_RejectsBadUpstream(t *testing.T) {
	_, err := contentHandler("not a url")
	assert.Error(t, err)
}

func TestSetupRouter_RateLimitsBeforeAuth(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	limit := func(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		hits[key]++
		return hits[key] <= limit, nil
	}
	engine := newEngineWithOptions(t, Options{
		RateLimit:         limit,
		RateLimitRequests: 2,
		RateLimitDuration: time.Minute,
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/redirects", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("Authorization", "Bearer forged")
		engine.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 3, hits["203.0.113.7"])
}

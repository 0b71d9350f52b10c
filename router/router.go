// router/router.go

package router

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/relay/controller"
	logger "github.com/dev-mohitbeniwal/relay/logging"
	"github.com/dev-mohitbeniwal/relay/middleware"
	"github.com/dev-mohitbeniwal/relay/redirect"
)

// Options carries everything the HTTP engine is assembled from.
type Options struct {
	Redirects         *redirect.Router
	Verifier          middleware.TokenVerifier
	RequiredGroups    []string
	RateLimit         middleware.LimitFunc // nil disables rate limiting
	RateLimitRequests int
	RateLimitDuration time.Duration
	ContentUpstream   string // empty answers unmatched paths with 404
}

func SetupRouter(controllers *controller.Controllers, opts Options) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Redirects(opts.Redirects))

	api := router.Group("/api")
	controllers.Redirect.RegisterHealthRoutes(api)

	admin := api.Group("")
	// throttle before auth so rejected tokens count against the client IP
	if opts.RateLimit != nil {
		admin.Use(middleware.RateLimiter(opts.RateLimit, opts.RateLimitRequests, opts.RateLimitDuration))
	}
	admin.Use(middleware.SessionAuth(opts.Verifier, opts.RequiredGroups))
	controllers.Redirect.RegisterRoutes(admin)

	content, err := contentHandler(opts.ContentUpstream)
	if err != nil {
		return nil, err
	}
	router.NoRoute(content)

	return router, nil
}

// contentHandler forwards passed-through requests to the content site.
func contentHandler(upstream string) (gin.HandlerFunc, error) {
	if upstream == "" {
		return func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
		}, nil
	}

	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid content upstream %q: %w", upstream, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid content upstream %q: scheme and host are required", upstream)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("Content upstream request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("upstream", target.Host))
		w.WriteHeader(http.StatusBadGateway)
	}

	return func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	}, nil
}

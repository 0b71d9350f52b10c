// redirect/router.go
package redirect

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/relay/logging"
)

type RouterAction string

const (
	PassThrough RouterAction = "pass"
	Redirect    RouterAction = "redirect"
	Skipped     RouterAction = "skip"
)

// RouterDecision tells the HTTP layer what to do with one inbound request.
// Location and StatusCode are only set for Redirect.
type RouterDecision struct {
	Action     RouterAction
	Location   string
	StatusCode int
	RuleID     string
}

func (d RouterDecision) IsRedirect() bool {
	return d.Action == Redirect
}

// Router decides, for every inbound request, whether to redirect it.
type Router struct {
	cache        RulesCache
	skipPrefixes []string
}

func NewRouter(cache RulesCache, skipPrefixes []string) *Router {
	prefixes := make([]string, 0, len(skipPrefixes))
	for _, p := range skipPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return &Router{cache: cache, skipPrefixes: prefixes}
}

// ShouldSkip reports whether path bypasses redirect resolution: reserved
// prefixes, and anything that looks like a file (contains a dot).
func (r *Router) ShouldSkip(path string) bool {
	if strings.Contains(path, ".") {
		return true
	}
	for _, prefix := range r.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Handle never fails: any problem during lookup is logged and the request
// passes through untouched.
func (r *Router) Handle(req *http.Request) (decision RouterDecision) {
	path := req.URL.Path
	if r.ShouldSkip(path) {
		return RouterDecision{Action: Skipped}
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Redirect resolution panicked, passing request through",
				zap.String("path", path),
				zap.Any("panic", rec))
			decision = RouterDecision{Action: PassThrough}
		}
	}()

	rules := r.cache.GetActiveRedirects(req.Context())
	match := Resolve(path, rules)
	if match == nil {
		return RouterDecision{Action: PassThrough}
	}

	if match.IsExternal {
		return RouterDecision{
			Action:     Redirect,
			Location:   match.Destination,
			StatusCode: match.StatusCode,
			RuleID:     match.RuleID,
		}
	}

	location, err := internalLocation(req, match.Destination)
	if err != nil {
		logger.Error("Failed to build redirect location, passing request through",
			zap.Error(err),
			zap.String("path", path),
			zap.String("destination", match.Destination))
		return RouterDecision{Action: PassThrough}
	}
	return RouterDecision{
		Action:     Redirect,
		Location:   location,
		StatusCode: match.StatusCode,
		RuleID:     match.RuleID,
	}
}

// internalLocation clones the request URL and swaps its path for destination.
// The query string of the inbound request is kept.
func internalLocation(req *http.Request, destination string) (string, error) {
	if req.URL == nil {
		return "", fmt.Errorf("request without URL")
	}
	u := *req.URL
	u.Path = destination
	u.RawPath = ""
	u.User = nil
	u.Fragment = ""

	if u.Host == "" {
		u.Host = req.Host
	}
	if u.Scheme == "" {
		u.Scheme = requestScheme(req)
	}
	if u.Host == "" {
		// no host to anchor to, hand back a relative reference
		rel := url.URL{Path: u.Path, RawQuery: u.RawQuery}
		return rel.String(), nil
	}
	return u.String(), nil
}

func requestScheme(req *http.Request) string {
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if req.TLS != nil {
		return "https"
	}
	return "http"
}

// middleware/redirects.go

package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/relay/logging"
	"github.com/dev-mohitbeniwal/relay/redirect"
)

// Redirects consults the redirect router for every request and answers with a
// redirect when a rule matches; otherwise the request continues unchanged.
func Redirects(router *redirect.Router) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := router.Handle(c.Request)
		if !decision.IsRedirect() {
			c.Next()
			return
		}

		logger.Debug("Redirecting request",
			zap.String("path", c.Request.URL.Path),
			zap.String("location", decision.Location),
			zap.Int("status", decision.StatusCode),
			zap.String("redirectID", decision.RuleID))
		c.Redirect(decision.StatusCode, decision.Location)
		c.Abort()
	}
}

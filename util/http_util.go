// util/http_util.go
package util

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
	logger "github.com/dev-mohitbeniwal/relay/logging"
)

// RequestingUserIDKey is the gin context key holding the authenticated owner id.
const RequestingUserIDKey = "requestingUserID"

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.Int("status", code),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"success": false, "error": message})
}

// RespondWithValidationError answers 400 and names the offending field.
func RespondWithValidationError(c *gin.Context, err error) {
	var verr *relay_errors.ValidationError
	if !errors.As(err, &verr) {
		RespondWithError(c, http.StatusBadRequest, err.Error(), err)
		return
	}
	logger.Warn("Rejected redirect input",
		zap.String("field", verr.Field),
		zap.String("reason", verr.Message),
		zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": verr.Message, "field": verr.Field})
}

func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get(RequestingUserIDKey)
	if !exists {
		return "", relay_errors.ErrUnauthorized
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		return "", relay_errors.ErrUnauthorized
	}
	return id, nil
}

// controller/redirect_controller.go
package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dev-mohitbeniwal/relay/audit"
	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
	"github.com/dev-mohitbeniwal/relay/model"
	"github.com/dev-mohitbeniwal/relay/service"
	"github.com/dev-mohitbeniwal/relay/util"
	helper_util "github.com/dev-mohitbeniwal/relay/util/helper"
)

type RedirectController struct {
	redirectService service.IRedirectService
}

func NewRedirectController(redirectService service.IRedirectService) *RedirectController {
	return &RedirectController{
		redirectService: redirectService,
	}
}

// RegisterRoutes registers the API routes
func (rc *RedirectController) RegisterRoutes(r *gin.RouterGroup) {
	redirects := r.Group("/redirects")
	{
		redirects.GET("", rc.ListRedirects)
		redirects.POST("", rc.CreateRedirect)
		redirects.PUT("/:id", rc.UpdateRedirect)
		redirects.DELETE("", rc.DeleteRedirect)
		redirects.POST("/revalidate", rc.Revalidate)
		redirects.GET("/history", rc.RedirectHistory)
	}
}

// RegisterHealthRoutes registers the unauthenticated health probe
func (rc *RedirectController) RegisterHealthRoutes(r *gin.RouterGroup) {
	r.GET("/healthz", rc.Health)
}

// ListRedirects endpoint
func (rc *RedirectController) ListRedirects(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	rules, err := rc.redirectService.ListRedirects(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to list redirects", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirects": rules})
}

// CreateRedirect endpoint
func (rc *RedirectController) CreateRedirect(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var input model.RedirectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid redirect data", err)
		return
	}

	created, err := rc.redirectService.CreateRedirect(c.Request.Context(), input, userID)
	if err != nil {
		rc.respondWithServiceError(c, err, "Failed to create redirect")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": created})
}

// UpdateRedirect endpoint
func (rc *RedirectController) UpdateRedirect(c *gin.Context) {
	redirectID := c.Param("id")
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var input model.RedirectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid redirect data", err)
		return
	}

	updated, err := rc.redirectService.UpdateRedirect(c.Request.Context(), redirectID, input, userID)
	if err != nil {
		rc.respondWithServiceError(c, err, "Failed to update redirect")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": updated})
}

// DeleteRedirect endpoint, the id comes from the query string
func (rc *RedirectController) DeleteRedirect(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	redirectID := c.Query("id")
	if redirectID == "" {
		util.RespondWithError(c, http.StatusBadRequest, "Redirect id is required", relay_errors.ErrMissingRedirectID)
		return
	}

	if err := rc.redirectService.DeleteRedirect(c.Request.Context(), redirectID, userID); err != nil {
		rc.respondWithServiceError(c, err, "Failed to delete redirect")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Redirect deleted"})
}

// Revalidate endpoint
func (rc *RedirectController) Revalidate(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := rc.redirectService.Revalidate(c.Request.Context(), userID); err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to revalidate redirects", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Redirects revalidated"})
}

// RedirectHistory endpoint
func (rc *RedirectController) RedirectHistory(c *gin.Context) {
	userID, err := util.GetUserIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	from, err := helper_util.ParseNullableTime(c.Query("from"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid 'from' time", err)
		return
	}
	to, err := helper_util.ParseNullableTime(c.Query("to"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid 'to' time", err)
		return
	}

	query := audit.LogQuery{
		ResourceID: c.Query("redirectId"),
		Limit:      limit,
		Offset:     offset,
		From:       derefTime(from),
		To:         derefTime(to),
	}

	logs, err := rc.redirectService.RedirectHistory(c.Request.Context(), userID, query)
	if err != nil {
		switch {
		case errors.Is(err, relay_errors.ErrInvalidTimeRange):
			util.RespondWithError(c, http.StatusBadRequest, "Invalid time range", err)
		case errors.Is(err, audit.ErrQueryUnsupported):
			util.RespondWithError(c, http.StatusNotImplemented, "Redirect history is not available", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve redirect history", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": logs})
}

// Health endpoint
func (rc *RedirectController) Health(c *gin.Context) {
	stats := rc.redirectService.CacheStats()
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"cache": gin.H{
			"state":     stats.State,
			"rules":     stats.Rules,
			"ageMs":     stats.Age.Milliseconds(),
			"fetchedAt": stats.FetchedAt,
		},
	})
}

func (rc *RedirectController) respondWithServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, relay_errors.ErrInvalidRedirectData):
		util.RespondWithValidationError(c, err)
	case errors.Is(err, relay_errors.ErrRedirectConflict):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "A redirect with this source already exists", "field": "source"})
	case errors.Is(err, relay_errors.ErrMissingRedirectID):
		util.RespondWithError(c, http.StatusBadRequest, "Redirect id is required", err)
	case errors.Is(err, relay_errors.ErrRedirectNotFound):
		util.RespondWithError(c, http.StatusNotFound, "Redirect not found", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, fallback, err)
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

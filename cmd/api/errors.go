package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/middleware"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

const internalErrorMessage = "internal server error"

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "kind"}. Internal failures are
// logged with their detail and reported with a generic message.
func (api *API) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	kind := models.ErrorKind(err)

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		metrics.RecordError("api", "internal")
		api.logger.
			WithRequestID(c.GetString(middleware.RequestIDContextKey)).
			WithField("path", c.Request.URL.Path).
			ErrorWithErr("Request failed", err)

		c.JSON(status, gin.H{"error": internalErrorMessage, "kind": kind})
		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}

// respondBindError reports a malformed request body
func (api *API) respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "invalid request: " + err.Error(),
		"kind":  models.ErrorKind(models.ErrInvalidInput),
	})
}

// actorFrom returns the authenticated actor. A missing actor yields the
// zero value, which every policy check denies.
func actorFrom(c *gin.Context) models.Actor {
	actor, _ := middleware.GetActor(c)
	return actor
}

package main

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// progressRequest accepts any JSON number; out of range values are clamped
type progressRequest struct {
	Progress *float64 `json:"progress" binding:"required"`
}

// progressValue clamps a requested progress into the stored range and
// drops any fractional part
func progressValue(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: progress must be a finite number", models.ErrInvalidInput)
	}
	clamped := math.Max(models.MinProgress, math.Min(models.MaxProgress, v))
	return int(math.Trunc(clamped)), nil
}

// Enroll the caller in a course
func (api *API) enroll(c *gin.Context) {
	enrollment, err := api.enrollments.Enroll(c.Request.Context(), actorFrom(c), c.Param("courseId"))
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// List the caller's enrollments
func (api *API) listMyEnrollments(c *gin.Context) {
	enrollments, err := api.enrollments.ListForUser(c.Request.Context(), actorFrom(c))
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// List enrollments in the caller's courses, grouped by course
func (api *API) listInstructorEnrollments(c *gin.Context) {
	rosters, err := api.enrollments.ListForInstructor(c.Request.Context(), actorFrom(c))
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rosters)
}

// Update enrollment progress
func (api *API) updateProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondBindError(c, err)
		return
	}

	progress, err := progressValue(*req.Progress)
	if err != nil {
		api.respondError(c, err)
		return
	}

	enrollment, err := api.enrollments.UpdateProgress(c.Request.Context(), actorFrom(c), c.Param("id"), progress)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// Remove an enrollment
func (api *API) unenroll(c *gin.Context) {
	if err := api.enrollments.Unenroll(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unenrolled successfully"})
}

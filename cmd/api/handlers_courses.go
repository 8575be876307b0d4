package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/course"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// multipartOverhead is the allowance for form fields and boundaries on top
// of the file itself
const multipartOverhead = 1 << 20

// List courses
func (api *API) listCourses(c *gin.Context) {
	filter, err := parseCourseFilter(c)
	if err != nil {
		api.respondError(c, err)
		return
	}

	page, err := api.courses.List(c.Request.Context(), filter)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Get course by ID
func (api *API) getCourse(c *gin.Context) {
	result, err := api.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Create a course owned by the caller
func (api *API) createCourse(c *gin.Context) {
	var req course.CourseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondBindError(c, err)
		return
	}

	created, err := api.courses.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Update course fields
func (api *API) updateCourse(c *gin.Context) {
	var req course.CourseUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondBindError(c, err)
		return
	}

	updated, err := api.courses.Update(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete a course
func (api *API) deleteCourse(c *gin.Context) {
	if err := api.courses.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

// Upload a thumbnail, video or document for a course
func (api *API) uploadCourseMedia(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, api.maxUpload+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.respondError(c, fmt.Errorf("%w: file exceeds %d bytes", models.ErrInvalidInput, api.maxUpload))
			return
		}
		api.respondError(c, fmt.Errorf("%w: no file provided", models.ErrInvalidInput))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		api.respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	kind := models.MediaKind(c.DefaultPostForm("kind", string(models.MediaKindContent)))

	result, err := api.courses.AttachMedia(c.Request.Context(), actorFrom(c), c.Param("id"), course.MediaUpload{
		Kind:     kind,
		Title:    c.PostForm("title"),
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Reader:   file,
	})
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func parseCourseFilter(c *gin.Context) (models.CourseFilter, error) {
	filter := models.CourseFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	var err error
	if filter.MinPrice, err = optionalFloat(c, "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = optionalFloat(c, "maxPrice"); err != nil {
		return filter, err
	}
	if filter.Page, err = optionalInt(c, "page"); err != nil {
		return filter, err
	}
	if filter.Limit, err = optionalInt(c, "limit"); err != nil {
		return filter, err
	}

	return filter, nil
}

func optionalFloat(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", models.ErrInvalidInput, key)
	}
	return &v, nil
}

func optionalInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", models.ErrInvalidInput, key)
	}
	return v, nil
}

// Package course manages the course catalog and its media.
package course

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/policy"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/storage"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/upload"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Cache is the course cache used for read-through lookups
type Cache interface {
	SetCourse(ctx context.Context, course *models.Course, ttl time.Duration) error
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	DeleteCourse(ctx context.Context, courseID string) error
	SetCourseList(ctx context.Context, filter models.CourseFilter, page *models.CoursePage, ttl time.Duration) error
	GetCourseList(ctx context.Context, filter models.CourseFilter) (*models.CoursePage, error)
	InvalidateCourseLists(ctx context.Context) error
}

// ObjectStore stores course media
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, objectName string) error
	DeleteCourseMedia(ctx context.Context, courseID string) (int, error)
}

// MediaValidator vets uploads before they are stored
type MediaValidator interface {
	Inspect(kind models.MediaKind, filename string, size int64, r io.Reader) (*upload.File, error)
}

// CourseInput is the data needed to create a course
type CourseInput struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

// CourseUpdate carries the fields to change; nil fields are left as they are
type CourseUpdate struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price"`
}

// MediaUpload is a file to attach to a course
type MediaUpload struct {
	Kind     models.MediaKind
	Title    string
	Filename string
	Size     int64
	Reader   io.Reader
}

// MediaResult describes stored media
type MediaResult struct {
	StorageRef string         `json:"storageRef"`
	Course     *models.Course `json:"course"`
}

// Service manages courses
type Service struct {
	courses   models.CourseStore
	users     models.UserStore
	cache     Cache
	objects   ObjectStore
	validator MediaValidator
	cacheTTL  time.Duration
	logger    *logging.Logger
}

// NewService creates a new course service
func NewService(courses models.CourseStore, users models.UserStore, cache Cache, objects ObjectStore, validator MediaValidator, cacheTTL time.Duration, logger *logging.Logger) *Service {
	return &Service{
		courses:   courses,
		users:     users,
		cache:     cache,
		objects:   objects,
		validator: validator,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Create adds a course owned by the actor
func (s *Service) Create(ctx context.Context, actor models.Actor, in CourseInput) (*models.Course, error) {
	if err := policy.Authorize(actor, policy.ActionCreateCourse, policy.Resource{}); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}

	owner, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load instructor: %w", err)
	}
	if owner.Role != models.RoleInstructor && owner.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: only instructors may own courses", models.ErrPermissionDenied)
	}

	course := &models.Course{
		ID:             uuid.New().String(),
		Title:          title,
		Description:    in.Description,
		Category:       strings.TrimSpace(in.Category),
		Price:          in.Price,
		InstructorID:   owner.ID,
		InstructorName: owner.Name,
		Content:        models.ContentItems{},
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.invalidateLists(ctx)
	s.logger.WithCourseID(course.ID).WithUserID(actor.ID).Info("Course created")

	return course, nil
}

// Get returns a course, served from cache when possible
func (s *Service) Get(ctx context.Context, id string) (*models.Course, error) {
	if cached, err := s.cache.GetCourse(ctx, id); err != nil {
		s.logger.WithCourseID(id).WithError(err).Warn("Course cache read failed")
	} else if cached != nil {
		metrics.RecordCacheAccess("course", true)
		return cached, nil
	}
	metrics.RecordCacheAccess("course", false)

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := s.cache.SetCourse(ctx, course, s.cacheTTL); err != nil {
		s.logger.WithCourseID(id).WithError(err).Warn("Course cache write failed")
	}

	return course, nil
}

// List returns one page of courses matching filter
func (s *Service) List(ctx context.Context, filter models.CourseFilter) (*models.CoursePage, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	if cached, err := s.cache.GetCourseList(ctx, filter); err != nil {
		s.logger.WithError(err).Warn("Course list cache read failed")
	} else if cached != nil {
		metrics.RecordCacheAccess("course_list", true)
		return cached, nil
	}
	metrics.RecordCacheAccess("course_list", false)

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	if courses == nil {
		courses = []*models.Course{}
	}

	page := &models.CoursePage{
		Data:        courses,
		CurrentPage: filter.Page,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		TotalItems:  total,
	}

	if err := s.cache.SetCourseList(ctx, filter, page, s.cacheTTL); err != nil {
		s.logger.WithError(err).Warn("Course list cache write failed")
	}

	return page, nil
}

// Update changes the mutable fields of a course
func (s *Service) Update(ctx context.Context, actor models.Actor, id string, in CourseUpdate) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := policy.Authorize(actor, policy.ActionUpdateCourse, policy.Resource{Course: course}); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
		}
		course.Title = title
	}
	if in.Description != nil {
		course.Description = *in.Description
	}
	if in.Category != nil {
		course.Category = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return nil, err
		}
		course.Price = *in.Price
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	s.invalidate(ctx, id)
	s.logger.WithCourseID(id).WithUserID(actor.ID).Info("Course updated")

	return course, nil
}

// Delete removes a course, its enrollments and its stored media
func (s *Service) Delete(ctx context.Context, actor models.Actor, id string) error {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get course: %w", err)
	}

	if err := policy.Authorize(actor, policy.ActionDeleteCourse, policy.Resource{Course: course}); err != nil {
		return err
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.invalidate(ctx, id)

	removed, err := s.objects.DeleteCourseMedia(ctx, id)
	if err != nil {
		metrics.RecordError("course", "media_cleanup")
		s.logger.WithCourseID(id).WithError(err).Warn("Failed to remove course media")
	}

	s.logger.WithCourseID(id).WithUserID(actor.ID).WithField("media_removed", removed).Info("Course deleted")
	return nil
}

// AttachMedia validates and stores a file, then records it on the course.
// Thumbnails replace the course thumbnail; videos and documents are
// appended to the course content.
func (s *Service) AttachMedia(ctx context.Context, actor models.Actor, courseID string, in MediaUpload) (*MediaResult, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if err := policy.Authorize(actor, policy.ActionUpdateCourse, policy.Resource{Course: course}); err != nil {
		return nil, err
	}

	file, err := s.validator.Inspect(in.Kind, in.Filename, in.Size, in.Reader)
	if err != nil {
		metrics.RecordMediaUpload(string(in.Kind), "rejected", in.Size)
		return nil, err
	}

	key := storage.ObjectKey(courseID, file.Kind, file.Filename)
	if err := s.objects.Upload(ctx, key, file.Reader, file.Size, file.ContentType); err != nil {
		metrics.RecordMediaUpload(string(file.Kind), "failure", file.Size)
		return nil, fmt.Errorf("failed to store media: %w", err)
	}

	var updated *models.Course
	if file.Kind == models.MediaKindThumbnail {
		updated, err = s.courses.SetThumbnail(ctx, courseID, key)
	} else {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			title = file.Filename
		}
		updated, err = s.courses.AppendContent(ctx, courseID, models.ContentItem{
			ID:         uuid.New().String(),
			Title:      title,
			StorageRef: key,
			Kind:       file.Kind,
		})
	}
	if err != nil {
		metrics.RecordMediaUpload(string(file.Kind), "failure", file.Size)
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.logger.WithCourseID(courseID).WithError(delErr).Warn("Failed to remove orphaned media")
		}
		return nil, fmt.Errorf("failed to record media: %w", err)
	}

	s.invalidate(ctx, courseID)
	metrics.RecordMediaUpload(string(file.Kind), "success", file.Size)
	s.logger.WithCourseID(courseID).WithFields(map[string]interface{}{
		"kind": file.Kind,
		"key":  key,
		"size": file.Size,
	}).Info("Course media attached")

	return &MediaResult{StorageRef: key, Course: updated}, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.DeleteCourse(ctx, id); err != nil {
		s.logger.WithCourseID(id).WithError(err).Warn("Failed to invalidate course cache")
	}
	s.invalidateLists(ctx)
}

func (s *Service) invalidateLists(ctx context.Context) {
	if err := s.cache.InvalidateCourseLists(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate course list cache")
	}
}

func validatePrice(price float64) error {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: price must be a non-negative number", models.ErrInvalidInput)
	}
	return nil
}

func normalizeFilter(f models.CourseFilter) (models.CourseFilter, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	f.Category = strings.TrimSpace(f.Category)
	f.Search = strings.TrimSpace(f.Search)

	if f.MinPrice != nil && *f.MinPrice < 0 {
		return f, fmt.Errorf("%w: minPrice must be non-negative", models.ErrInvalidInput)
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return f, fmt.Errorf("%w: maxPrice must be non-negative", models.ErrInvalidInput)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, fmt.Errorf("%w: minPrice exceeds maxPrice", models.ErrInvalidInput)
	}

	return f, nil
}

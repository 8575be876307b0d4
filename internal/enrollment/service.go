// Package enrollment implements student enrollment, progress tracking and
// instructor rosters.
package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/policy"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// Service manages enrollments
type Service struct {
	enrollments models.EnrollmentStore
	courses     models.CourseStore
	logger      *logging.Logger
}

// NewService creates a new enrollment service
func NewService(enrollments models.EnrollmentStore, courses models.CourseStore, logger *logging.Logger) *Service {
	return &Service{
		enrollments: enrollments,
		courses:     courses,
		logger:      logger,
	}
}

// Enroll registers the acting student on a course. Direct enrollment grants
// access immediately and is recorded as paid. A second enrollment in the
// same course is rejected by the store's uniqueness constraint.
func (s *Service) Enroll(ctx context.Context, actor models.Actor, courseID string) (*models.Enrollment, error) {
	if err := policy.Authorize(actor, policy.ActionEnroll, policy.Resource{}); err != nil {
		metrics.RecordEnrollment("enroll", "denied")
		return nil, err
	}

	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		metrics.RecordEnrollment("enroll", outcome(err))
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	enrollment := &models.Enrollment{
		UserID:        actor.ID,
		CourseID:      courseID,
		Progress:      models.MinProgress,
		PaymentStatus: models.PaymentStatusPaid,
	}

	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		metrics.RecordEnrollment("enroll", outcome(err))
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: already enrolled in this course", models.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	metrics.RecordEnrollment("enroll", "success")
	s.logger.LogEnrollmentEvent("enrolled", actor.ID, courseID, map[string]interface{}{
		"enrollment_id": enrollment.ID,
	})

	return enrollment, nil
}

// ListForUser returns the actor's enrollments with their courses, oldest first
func (s *Service) ListForUser(ctx context.Context, actor models.Actor) ([]*models.EnrollmentWithCourse, error) {
	if err := policy.Authorize(actor, policy.ActionReadOwnEnrollments, policy.Resource{}); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	if enrollments == nil {
		enrollments = []*models.EnrollmentWithCourse{}
	}

	return enrollments, nil
}

// ListForInstructor groups the enrollments of every course the actor owns
// by course ID. Owned courses without students are included with an empty
// roster.
func (s *Service) ListForInstructor(ctx context.Context, actor models.Actor) (map[string]*models.CourseRoster, error) {
	if err := policy.Authorize(actor, policy.ActionReadInstructorEnrollments, policy.Resource{}); err != nil {
		return nil, err
	}

	courses, err := s.courses.ListByInstructor(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructor courses: %w", err)
	}

	rosters := make(map[string]*models.CourseRoster, len(courses))
	if len(courses) == 0 {
		return rosters, nil
	}

	for _, c := range courses {
		rosters[c.ID] = &models.CourseRoster{
			CourseID: c.ID,
			Title:    c.Title,
			Students: []*models.RosterEntry{},
		}
	}

	entries, err := s.enrollments.ListRosterByInstructor(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}

	for _, entry := range entries {
		roster, ok := rosters[entry.CourseID]
		if !ok {
			// course created between the two reads
			continue
		}
		roster.Students = append(roster.Students, entry)
		roster.TotalStudents++
	}

	return rosters, nil
}

// UpdateProgress sets the progress of an enrollment, clamped into [0, 100]
func (s *Service) UpdateProgress(ctx context.Context, actor models.Actor, enrollmentID string, progress int) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	if err := policy.Authorize(actor, policy.ActionUpdateProgress, policy.Resource{Enrollment: enrollment}); err != nil {
		metrics.RecordEnrollment("update_progress", "denied")
		return nil, err
	}

	updated, err := s.enrollments.UpdateProgress(ctx, enrollmentID, models.ClampProgress(progress))
	if err != nil {
		metrics.RecordEnrollment("update_progress", outcome(err))
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	metrics.RecordEnrollment("update_progress", "success")
	s.logger.WithEnrollmentID(enrollmentID).WithUserID(actor.ID).Debugf("Progress set to %d", updated.Progress)

	return updated, nil
}

// Unenroll deletes an enrollment
func (s *Service) Unenroll(ctx context.Context, actor models.Actor, enrollmentID string) error {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to get enrollment: %w", err)
	}

	if err := policy.Authorize(actor, policy.ActionUnenroll, policy.Resource{Enrollment: enrollment}); err != nil {
		metrics.RecordEnrollment("unenroll", "denied")
		return err
	}

	if err := s.enrollments.Delete(ctx, enrollmentID); err != nil {
		metrics.RecordEnrollment("unenroll", outcome(err))
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	metrics.RecordEnrollment("unenroll", "success")
	s.logger.LogEnrollmentEvent("unenrolled", enrollment.UserID, enrollment.CourseID, map[string]interface{}{
		"enrollment_id": enrollmentID,
		"actor_id":      actor.ID,
	})

	return nil
}

func outcome(err error) string {
	return models.ErrorKind(err)
}

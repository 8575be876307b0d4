// Package mocks provides testify mocks of the store interfaces
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// UserStore is a mock implementation of models.UserStore
type UserStore struct {
	mock.Mock
}

func (m *UserStore) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserStore) SetResetOTP(ctx context.Context, userID, otpHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, otpHash, expiresAt)
	return args.Error(0)
}

func (m *UserStore) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *UserStore) PurgeExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// CourseStore is a mock implementation of models.CourseStore
type CourseStore struct {
	mock.Mock
}

func (m *CourseStore) Create(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *CourseStore) GetByID(ctx context.Context, id string) (*models.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *CourseStore) List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*models.Course), args.Get(1).(int64), args.Error(2)
}

func (m *CourseStore) ListByInstructor(ctx context.Context, instructorID string) ([]*models.Course, error) {
	args := m.Called(ctx, instructorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Course), args.Error(1)
}

func (m *CourseStore) Update(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *CourseStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *CourseStore) SetThumbnail(ctx context.Context, id, ref string) (*models.Course, error) {
	args := m.Called(ctx, id, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *CourseStore) AppendContent(ctx context.Context, id string, item models.ContentItem) (*models.Course, error) {
	args := m.Called(ctx, id, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

// EnrollmentStore is a mock implementation of models.EnrollmentStore
type EnrollmentStore struct {
	mock.Mock
}

func (m *EnrollmentStore) Create(ctx context.Context, enrollment *models.Enrollment) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

func (m *EnrollmentStore) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *EnrollmentStore) GetByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *EnrollmentStore) ListByUser(ctx context.Context, userID string) ([]*models.EnrollmentWithCourse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EnrollmentWithCourse), args.Error(1)
}

func (m *EnrollmentStore) ListRosterByInstructor(ctx context.Context, instructorID string) ([]*models.RosterEntry, error) {
	args := m.Called(ctx, instructorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RosterEntry), args.Error(1)
}

func (m *EnrollmentStore) UpdateProgress(ctx context.Context, id string, progress int) (*models.Enrollment, error) {
	args := m.Called(ctx, id, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *EnrollmentStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *EnrollmentStore) UpsertPaid(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

var (
	_ models.UserStore       = (*UserStore)(nil)
	_ models.CourseStore     = (*CourseStore)(nil)
	_ models.EnrollmentStore = (*EnrollmentStore)(nil)
)

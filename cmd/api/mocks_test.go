package main

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/auth"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/course"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Register(ctx context.Context, in auth.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, in)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	args := m.Called(ctx, email, password)
	result, _ := args.Get(0).(*auth.LoginResult)
	return result, args.Error(1)
}

func (m *mockAuth) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuth) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	return m.Called(ctx, email, otp, newPassword).Error(0)
}

type mockCourses struct{ mock.Mock }

func (m *mockCourses) Create(ctx context.Context, actor models.Actor, in course.CourseInput) (*models.Course, error) {
	args := m.Called(ctx, actor, in)
	c, _ := args.Get(0).(*models.Course)
	return c, args.Error(1)
}

func (m *mockCourses) Get(ctx context.Context, id string) (*models.Course, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Course)
	return c, args.Error(1)
}

func (m *mockCourses) List(ctx context.Context, filter models.CourseFilter) (*models.CoursePage, error) {
	args := m.Called(ctx, filter)
	page, _ := args.Get(0).(*models.CoursePage)
	return page, args.Error(1)
}

func (m *mockCourses) Update(ctx context.Context, actor models.Actor, id string, in course.CourseUpdate) (*models.Course, error) {
	args := m.Called(ctx, actor, id, in)
	c, _ := args.Get(0).(*models.Course)
	return c, args.Error(1)
}

func (m *mockCourses) Delete(ctx context.Context, actor models.Actor, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockCourses) AttachMedia(ctx context.Context, actor models.Actor, courseID string, in course.MediaUpload) (*course.MediaResult, error) {
	args := m.Called(ctx, actor, courseID, in)
	result, _ := args.Get(0).(*course.MediaResult)
	return result, args.Error(1)
}

type mockEnrollments struct{ mock.Mock }

func (m *mockEnrollments) Enroll(ctx context.Context, actor models.Actor, courseID string) (*models.Enrollment, error) {
	args := m.Called(ctx, actor, courseID)
	e, _ := args.Get(0).(*models.Enrollment)
	return e, args.Error(1)
}

func (m *mockEnrollments) ListForUser(ctx context.Context, actor models.Actor) ([]*models.EnrollmentWithCourse, error) {
	args := m.Called(ctx, actor)
	list, _ := args.Get(0).([]*models.EnrollmentWithCourse)
	return list, args.Error(1)
}

func (m *mockEnrollments) ListForInstructor(ctx context.Context, actor models.Actor) (map[string]*models.CourseRoster, error) {
	args := m.Called(ctx, actor)
	rosters, _ := args.Get(0).(map[string]*models.CourseRoster)
	return rosters, args.Error(1)
}

func (m *mockEnrollments) UpdateProgress(ctx context.Context, actor models.Actor, enrollmentID string, progress int) (*models.Enrollment, error) {
	args := m.Called(ctx, actor, enrollmentID, progress)
	e, _ := args.Get(0).(*models.Enrollment)
	return e, args.Error(1)
}

func (m *mockEnrollments) Unenroll(ctx context.Context, actor models.Actor, enrollmentID string) error {
	return m.Called(ctx, actor, enrollmentID).Error(0)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) CreateIntent(ctx context.Context, actor models.Actor, courseID, currency string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, actor, courseID, currency)
	intent, _ := args.Get(0).(*models.PaymentIntent)
	return intent, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	return m.Called(ctx, event).Error(0)
}

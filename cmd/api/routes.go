package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/auth"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/course"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/middleware"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// AuthService handles account operations
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, otp, newPassword string) error
}

// CourseService handles the course catalog
type CourseService interface {
	Create(ctx context.Context, actor models.Actor, in course.CourseInput) (*models.Course, error)
	Get(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) (*models.CoursePage, error)
	Update(ctx context.Context, actor models.Actor, id string, in course.CourseUpdate) (*models.Course, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	AttachMedia(ctx context.Context, actor models.Actor, courseID string, in course.MediaUpload) (*course.MediaResult, error)
}

// EnrollmentService handles enrollments
type EnrollmentService interface {
	Enroll(ctx context.Context, actor models.Actor, courseID string) (*models.Enrollment, error)
	ListForUser(ctx context.Context, actor models.Actor) ([]*models.EnrollmentWithCourse, error)
	ListForInstructor(ctx context.Context, actor models.Actor) (map[string]*models.CourseRoster, error)
	UpdateProgress(ctx context.Context, actor models.Actor, enrollmentID string, progress int) (*models.Enrollment, error)
	Unenroll(ctx context.Context, actor models.Actor, enrollmentID string) error
}

// PaymentService starts purchases
type PaymentService interface {
	CreateIntent(ctx context.Context, actor models.Actor, courseID, currency string) (*models.PaymentIntent, error)
}

// WebhookVerifier authenticates provider callbacks
type WebhookVerifier interface {
	ConstructEvent(payload []byte, header string) (*models.PaymentEvent, error)
}

// EventPublisher forwards verified payment events to the worker
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error
}

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// API holds the HTTP handlers and their collaborators
type API struct {
	auth        AuthService
	courses     CourseService
	enrollments EnrollmentService
	payments    PaymentService
	verifier    WebhookVerifier
	publisher   EventPublisher
	tokens      middleware.TokenParser
	rateLimiter *middleware.RateLimiter
	maxUpload   int64
	health      map[string]HealthCheck
	logger      *logging.Logger
}

func setupRouter(api *API) *gin.Engine {
	router := gin.New()

	// Apply global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Tracing())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(api.logger))

	// Health check
	router.GET("/health", api.healthCheck)

	// Provider callbacks are authenticated by signature, not by token
	router.POST("/api/payment/webhook", api.paymentWebhook)

	// Public routes
	public := router.Group("/api")
	public.Use(middleware.RateLimit(api.rateLimiter))
	{
		public.POST("/auth/register", api.register)
		public.POST("/auth/login", api.login)
		public.POST("/auth/forgot-password", api.forgotPassword)
		public.POST("/auth/reset-password-otp", api.resetPassword)

		public.GET("/courses", api.listCourses)
		public.GET("/courses/:id", api.getCourse)
	}

	// Protected routes (require authentication)
	protected := router.Group("/api")
	protected.Use(middleware.JWTAuth(api.tokens))
	protected.Use(middleware.RateLimit(api.rateLimiter))
	{
		// Courses
		protected.POST("/courses", api.createCourse)
		protected.PUT("/courses/:id", api.updateCourse)
		protected.DELETE("/courses/:id", api.deleteCourse)
		protected.POST("/courses/:id/upload", api.uploadCourseMedia)

		// Enrollments
		protected.POST("/enroll/:courseId", api.enroll)
		protected.GET("/enroll", api.listMyEnrollments)
		protected.GET("/enroll/instructor", api.listInstructorEnrollments)
		protected.PUT("/enroll/:id/progress", api.updateProgress)
		protected.DELETE("/enroll/:id", api.unenroll)

		// Payments
		protected.POST("/payment/create-intent", api.createPaymentIntent)
	}

	return router
}

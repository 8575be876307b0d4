package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/policy"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// IntentCreator opens payment intents with the provider
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*models.PaymentIntent, error)
}

// Service starts course purchases
type Service struct {
	courses         models.CourseStore
	enrollments     models.EnrollmentStore
	provider        IntentCreator
	defaultCurrency string
	logger          *logging.Logger
}

// NewService creates a new payment service
func NewService(courses models.CourseStore, enrollments models.EnrollmentStore, provider IntentCreator, defaultCurrency string, logger *logging.Logger) *Service {
	return &Service{
		courses:         courses,
		enrollments:     enrollments,
		provider:        provider,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// CreateIntent opens a payment intent for the actor to buy a course. The
// returned client secret lets the client complete the payment; the
// enrollment is created once the provider confirms it through the webhook.
func (s *Service) CreateIntent(ctx context.Context, actor models.Actor, courseID, currency string) (*models.PaymentIntent, error) {
	if err := policy.Authorize(actor, policy.ActionCreatePaymentIntent, policy.Resource{}); err != nil {
		return nil, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if course.IsFree() {
		return nil, fmt.Errorf("%w: course is free, enroll directly", models.ErrInvalidInput)
	}

	existing, err := s.enrollments.GetByUserAndCourse(ctx, actor.ID, courseID)
	switch {
	case err == nil && existing.PaymentStatus == models.PaymentStatusPaid:
		return nil, fmt.Errorf("%w: course already purchased", models.ErrConflict)
	case err != nil && !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	intent, err := s.provider.CreatePaymentIntent(ctx, IntentRequest{
		Amount:   toMinorUnits(course.Price),
		Currency: currency,
		UserID:   actor.ID,
		CourseID: courseID,
	})
	if err != nil {
		metrics.RecordPaymentIntent("failure")
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	metrics.RecordPaymentIntent("created")
	s.logger.WithUserID(actor.ID).WithCourseID(courseID).WithField("intent_id", intent.ID).Info("Payment intent created")

	return intent, nil
}

func toMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// Package payment creates payment intents with the provider and reconciles
// verified payment events into enrollments.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/therealutkarshpriyadarshi/coursehub/internal/logging"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// Reconciler applies verified payment events to enrollments
type Reconciler struct {
	enrollments models.EnrollmentStore
	logger      *logging.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(enrollments models.EnrollmentStore, logger *logging.Logger) *Reconciler {
	return &Reconciler{enrollments: enrollments, logger: logger}
}

// Apply converges the enrollment for the event's (user, course) pair to
// paid. The upsert never touches progress, so replaying an event leaves the
// same final state. Failed payments change nothing.
func (r *Reconciler) Apply(ctx context.Context, event models.PaymentEvent) error {
	userID := strings.TrimSpace(event.UserID)
	courseID := strings.TrimSpace(event.CourseID)

	if userID == "" || courseID == "" {
		metrics.RecordPaymentEvent("reconcile", "invalid")
		r.logger.LogPaymentEvent(event.EventID, userID, courseID, event.Success, "missing metadata")
		return fmt.Errorf("%w: payment event %s has no user or course", models.ErrInvalidInput, event.EventID)
	}

	if !event.Success {
		metrics.RecordPaymentEvent("reconcile", "ignored")
		r.logger.LogPaymentEvent(event.EventID, userID, courseID, false, "payment failed, no change")
		return nil
	}

	enrollment, err := r.enrollments.UpsertPaid(ctx, userID, courseID)
	if err != nil {
		metrics.RecordPaymentEvent("reconcile", models.ErrorKind(err))
		return fmt.Errorf("failed to reconcile payment %s: %w", event.EventID, err)
	}

	metrics.RecordPaymentEvent("reconcile", "paid")
	r.logger.WithEnrollmentID(enrollment.ID).LogPaymentEvent(event.EventID, userID, courseID, true, "enrollment paid")

	return nil
}

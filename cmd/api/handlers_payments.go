package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/metrics"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/webhook"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// maxWebhookBody caps provider payloads
const maxWebhookBody = 64 << 10

type createIntentRequest struct {
	CourseID string `json:"courseId" binding:"required"`
	Currency string `json:"currency"`
}

// Create a payment intent for a course purchase
func (api *API) createPaymentIntent(c *gin.Context) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.respondBindError(c, err)
		return
	}

	intent, err := api.payments.CreateIntent(c.Request.Context(), actorFrom(c), req.CourseID, req.Currency)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, intent)
}

// Receive a provider payment notification. The raw body is verified before
// it is parsed; verified events are queued for reconciliation.
func (api *API) paymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.respondError(c, fmt.Errorf("%w: payload too large", models.ErrInvalidInput))
			return
		}
		api.respondError(c, fmt.Errorf("failed to read webhook body: %w", err))
		return
	}

	event, err := api.verifier.ConstructEvent(payload, c.GetHeader(webhook.SignatureHeader))
	if err != nil {
		metrics.RecordPaymentEvent("webhook", "rejected")
		api.logger.WithError(err).Warn("Rejected payment webhook")
		api.respondError(c, err)
		return
	}

	if event == nil {
		metrics.RecordPaymentEvent("webhook", "ignored")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := api.publisher.PublishPaymentEvent(c.Request.Context(), *event); err != nil {
		metrics.RecordPaymentEvent("webhook", "publish_failed")
		api.respondError(c, err)
		return
	}

	metrics.RecordPaymentEvent("webhook", "accepted")
	api.logger.LogPaymentEvent(event.EventID, event.UserID, event.CourseID, event.Success, "queued")

	c.JSON(http.StatusOK, gin.H{"received": true})
}

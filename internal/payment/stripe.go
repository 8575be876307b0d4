package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/therealutkarshpriyadarshi/coursehub/internal/config"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

const paymentIntentsPath = "/v1/payment_intents"

// IntentRequest describes a payment intent to open with the provider
type IntentRequest struct {
	Amount   int64
	Currency string
	UserID   string
	CourseID string
}

// StripeClient talks to the provider's REST API
type StripeClient struct {
	client *resty.Client
}

// NewStripeClient creates a provider client
func NewStripeClient(cfg config.PaymentConfig) *StripeClient {
	client := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(cfg.Timeout)

	return &StripeClient{client: client}
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreatePaymentIntent opens a payment intent tagged with the buyer and course
func (c *StripeClient) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*models.PaymentIntent, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"amount":             strconv.FormatInt(req.Amount, 10),
			"currency":           req.Currency,
			"metadata[userId]":   req.UserID,
			"metadata[courseId]": req.CourseID,
		}).
		Post(paymentIntentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to call payment provider: %w", err)
	}

	if resp.IsError() {
		var apiErr errorResponse
		if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("payment provider returned %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return nil, fmt.Errorf("payment provider returned %d", resp.StatusCode())
	}

	var intent intentResponse
	if err := json.Unmarshal(resp.Body(), &intent); err != nil {
		return nil, fmt.Errorf("invalid payment provider response: %w", err)
	}

	return &models.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	}, nil
}

package models

import "time"

// PaymentEvent is a provider payment confirmation whose authenticity has
// already been verified at the webhook boundary
type PaymentEvent struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	CourseID   string    `json:"course_id"`
	Success    bool      `json:"success"`
	ReceivedAt time.Time `json:"received_at"`
}

// PaymentIntent is returned to the client to complete a purchase
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

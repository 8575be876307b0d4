package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

// SignatureHeader carries the provider's payload signature
const SignatureHeader = "Stripe-Signature"

// Provider event types that are forwarded to reconciliation
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// DefaultTolerance is the maximum accepted age of a signed payload
const DefaultTolerance = 5 * time.Minute

// Verifier authenticates inbound provider webhooks
type Verifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier creates a verifier for the given endpoint secret
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{
		secret:    secret,
		tolerance: tolerance,
		now:       time.Now,
	}
}

type providerEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ConstructEvent verifies the raw payload against the signature header and
// extracts the payment event. A nil event with a nil error means the event
// type is not relevant and should be acknowledged without further action.
func (v *Verifier) ConstructEvent(payload []byte, header string) (*models.PaymentEvent, error) {
	if err := v.Verify(payload, header); err != nil {
		return nil, err
	}

	var evt providerEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: malformed event payload", models.ErrInvalidInput)
	}

	var success bool
	switch evt.Type {
	case EventPaymentSucceeded:
		success = true
	case EventPaymentFailed:
		success = false
	default:
		return nil, nil
	}

	eventID := evt.ID
	if eventID == "" {
		eventID = evt.Data.Object.ID
	}

	return &models.PaymentEvent{
		EventID:    eventID,
		UserID:     evt.Data.Object.Metadata["userId"],
		CourseID:   evt.Data.Object.Metadata["courseId"],
		Success:    success,
		ReceivedAt: v.now().UTC(),
	}, nil
}

// Verify checks the signature header of payload
func (v *Verifier) Verify(payload []byte, header string) error {
	if v.secret == "" {
		return fmt.Errorf("%w: webhook secret not configured", models.ErrInvalidInput)
	}

	timestamp, signatures, err := parseHeader(header)
	if err != nil {
		return err
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return fmt.Errorf("%w: signature timestamp outside tolerance", models.ErrInvalidInput)
	}

	expected := computeSignature(v.secret, timestamp, payload)
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}

	return fmt.Errorf("%w: signature mismatch", models.ErrInvalidInput)
}

// SignPayload builds a signature header value for payload signed at ts
func SignPayload(secret string, ts time.Time, payload []byte) string {
	sig := computeSignature(secret, ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig))
}

func computeSignature(secret string, timestamp int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseHeader(header string) (int64, [][]byte, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", models.ErrInvalidInput)
	}

	var (
		timestamp  int64
		signatures [][]byte
	)

	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}

		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: invalid signature timestamp", models.ErrInvalidInput)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp == 0 {
		return 0, nil, fmt.Errorf("%w: signature header has no timestamp", models.ErrInvalidInput)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: signature header has no v1 signature", models.ErrInvalidInput)
	}

	return timestamp, signatures, nil
}

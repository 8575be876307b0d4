package webhook

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/coursehub/pkg/models"
)

const testSecret = "whsec_test"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestVerifier() *Verifier {
	v := NewVerifier(testSecret, 5*time.Minute)
	v.now = func() time.Time { return fixedNow }
	return v
}

func eventPayload(eventType string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_123",
		"type": %q,
		"data": {"object": {"id": "pi_456", "metadata": {"userId": "user-1", "courseId": "course-1"}}}
	}`, eventType))
}

func TestConstructEvent_Succeeded(t *testing.T) {
	v := newTestVerifier()
	payload := eventPayload(EventPaymentSucceeded)

	event, err := v.ConstructEvent(payload, SignPayload(testSecret, fixedNow, payload))
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, "evt_123", event.EventID)
	assert.Equal(t, "user-1", event.UserID)
	assert.Equal(t, "course-1", event.CourseID)
	assert.True(t, event.Success)
	assert.Equal(t, fixedNow, event.ReceivedAt)
}

func TestConstructEvent_Failed(t *testing.T) {
	v := newTestVerifier()
	payload := eventPayload(EventPaymentFailed)

	event, err := v.ConstructEvent(payload, SignPayload(testSecret, fixedNow, payload))
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.False(t, event.Success)
}

func TestConstructEvent_IgnoredType(t *testing.T) {
	v := newTestVerifier()
	payload := eventPayload("charge.refunded")

	event, err := v.ConstructEvent(payload, SignPayload(testSecret, fixedNow, payload))
	assert.NoError(t, err)
	assert.Nil(t, event)
}

func TestConstructEvent_MalformedJSON(t *testing.T) {
	v := newTestVerifier()
	payload := []byte("{not json")

	_, err := v.ConstructEvent(payload, SignPayload(testSecret, fixedNow, payload))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestVerify(t *testing.T) {
	payload := eventPayload(EventPaymentSucceeded)

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{name: "valid", header: SignPayload(testSecret, fixedNow, payload)},
		{name: "valid within tolerance", header: SignPayload(testSecret, fixedNow.Add(-4*time.Minute), payload)},
		{name: "valid among several signatures", header: SignPayload(testSecret, fixedNow, payload) + ",v1=deadbeef"},
		{name: "missing header", header: "", wantErr: true},
		{name: "wrong secret", header: SignPayload("other", fixedNow, payload), wantErr: true},
		{name: "expired", header: SignPayload(testSecret, fixedNow.Add(-6*time.Minute), payload), wantErr: true},
		{name: "from the future", header: SignPayload(testSecret, fixedNow.Add(6*time.Minute), payload), wantErr: true},
		{name: "no timestamp", header: "v1=abcdef", wantErr: true},
		{name: "bad timestamp", header: "t=abc,v1=abcdef", wantErr: true},
		{name: "no signature", header: fmt.Sprintf("t=%d", fixedNow.Unix()), wantErr: true},
		{name: "non-hex signature", header: fmt.Sprintf("t=%d,v1=zz", fixedNow.Unix()), wantErr: true},
	}

	v := newTestVerifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(payload, tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	v := newTestVerifier()
	payload := eventPayload(EventPaymentSucceeded)
	header := SignPayload(testSecret, fixedNow, payload)

	tampered := eventPayload(EventPaymentFailed)
	assert.ErrorIs(t, v.Verify(tampered, header), models.ErrInvalidInput)
}

func TestVerify_NoSecret(t *testing.T) {
	v := NewVerifier("", 0)
	payload := eventPayload(EventPaymentSucceeded)

	err := v.Verify(payload, SignPayload("", time.Now(), payload))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Equal(t, DefaultTolerance, v.tolerance)
}

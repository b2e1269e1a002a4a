package payment_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"ms-booking/internal/booking"
	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

type MockApprover struct {
	mock.Mock
}

func (m *MockApprover) ApprovePayment(ctx context.Context, bookingID string, a booking.Approval) (bool, error) {
	args := m.Called(ctx, bookingID, a)
	return args.Bool(0), args.Error(1)
}

const (
	apiKey    = "kashier-secret"
	proofURL  = "https://cdn.example.com/paid-online.webp"
	bookingID = "0b9f4c1e-3a2d-4c6b-9e8f-1a2b3c4d5e6f"
)

var kashierBody = []byte(`{"event":"pay","data":{"merchantOrderId":"` + bookingID + `","transactionId":"TX-1","amount":"150.00","signatureKeys":["amount","merchantOrderId","transactionId"]}}`)

func newService(approver payment.Approver, cfg config.PaymentConfig) *payment.Service {
	cfg.PaymentProofImageURL = proofURL
	return payment.NewService(approver, cfg, logger.NewTestLogger())
}

func signKashier(t *testing.T, body []byte) string {
	n, err := payment.DecodeKashierNotification(body)
	require.NoError(t, err)
	return payment.KashierSignature(n.Data, apiKey)
}

func requireWebhookError(t *testing.T, err error, status int) *payment.WebhookError {
	var webhookErr *payment.WebhookError
	require.True(t, errors.As(err, &webhookErr), "expected *WebhookError, got %v", err)
	assert.Equal(t, status, webhookErr.StatusCode)
	return webhookErr
}

func TestKashierValidSignatureApproves(t *testing.T) {
	approver := new(MockApprover)
	approver.On("ApprovePayment", mock.Anything, bookingID, booking.Approval{
		TransactionID: "TX-1",
		Provider:      models.ProviderKashier,
		Image:         proofURL,
	}).Return(true, nil).Once()

	svc := newService(approver, config.PaymentConfig{KashierAPIKey: apiKey})
	require.NoError(t, svc.HandleKashier(context.Background(), kashierBody, signKashier(t, kashierBody)))
	approver.AssertExpectations(t)
}

func TestKashierValidationFailuresMutateNothing(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.PaymentConfig
		signature string
		status    int
		category  string
	}{
		{"missing api key", config.PaymentConfig{}, "abc", http.StatusInternalServerError, "configuration"},
		{"missing header", config.PaymentConfig{KashierAPIKey: apiKey}, "", http.StatusUnauthorized, "authentication"},
		{"bad signature", config.PaymentConfig{KashierAPIKey: apiKey}, "0000", http.StatusUnauthorized, "authentication"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approver := new(MockApprover)
			svc := newService(approver, tt.cfg)

			err := svc.HandleKashier(context.Background(), kashierBody, tt.signature)
			webhookErr := requireWebhookError(t, err, tt.status)
			assert.Equal(t, tt.category, webhookErr.Category)
			approver.AssertNotCalled(t, "ApprovePayment", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestKashierTestModeSkipsSignature(t *testing.T) {
	approver := new(MockApprover)
	approver.On("ApprovePayment", mock.Anything, bookingID, mock.Anything).Return(true, nil).Once()

	svc := newService(approver, config.PaymentConfig{WebhookTestMode: true})
	require.NoError(t, svc.HandleKashier(context.Background(), kashierBody, ""))
	approver.AssertExpectations(t)
}

func TestKashierMalformedBody(t *testing.T) {
	svc := newService(new(MockApprover), config.PaymentConfig{WebhookTestMode: true})
	webhookErr := requireWebhookError(t, svc.HandleKashier(context.Background(), []byte(`{"data":`), ""), http.StatusBadRequest)
	assert.Equal(t, "validation", webhookErr.Category)
}

func TestKashierProcessingFailuresAreSwallowed(t *testing.T) {
	approver := new(MockApprover)
	approver.On("ApprovePayment", mock.Anything, bookingID, mock.Anything).
		Return(false, &booking.StoreError{Op: "approve booking", Err: errors.New("connection refused")}).Once()

	svc := newService(approver, config.PaymentConfig{WebhookTestMode: true})
	assert.NoError(t, svc.HandleKashier(context.Background(), kashierBody, ""))

	approver.On("ApprovePayment", mock.Anything, bookingID, mock.Anything).Return(false, nil).Once()
	assert.NoError(t, svc.HandleKashier(context.Background(), kashierBody, ""))
	approver.AssertExpectations(t)
}

func TestKashierWithoutMerchantIDDoesNothing(t *testing.T) {
	approver := new(MockApprover)
	svc := newService(approver, config.PaymentConfig{WebhookTestMode: true})

	assert.NoError(t, svc.HandleKashier(context.Background(), []byte(`{"event":"pay","data":{"transactionId":"TX-9"}}`), ""))
	approver.AssertNotCalled(t, "ApprovePayment", mock.Anything, mock.Anything, mock.Anything)
}

// ---------------- STRIPE ----------------

const stripeSecret = "whsec_test_secret"

func stripeEvent(eventType, metadata string) []byte {
	return []byte(`{
		"id": "evt_1",
		"object": "event",
		"api_version": "2020-08-27",
		"type": "` + eventType + `",
		"data": {"object": {"id": "pi_123", "object": "payment_intent", "metadata": ` + metadata + `}}
	}`)
}

func signStripe(payload []byte) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  stripeSecret,
	})
	return signed.Header
}

func TestStripeSucceededIntentApproves(t *testing.T) {
	approver := new(MockApprover)
	approver.On("ApprovePayment", mock.Anything, bookingID, booking.Approval{
		TransactionID: "pi_123",
		Provider:      models.ProviderStripe,
		Image:         proofURL,
	}).Return(true, nil).Once()

	svc := newService(approver, config.PaymentConfig{StripeWebhookSecret: stripeSecret})
	payload := stripeEvent("payment_intent.succeeded", `{"booking_id":"`+bookingID+`"}`)
	require.NoError(t, svc.HandleStripe(context.Background(), payload, signStripe(payload)))
	approver.AssertExpectations(t)
}

func TestStripeIgnoresOtherEventsAndMissingMetadata(t *testing.T) {
	approver := new(MockApprover)
	svc := newService(approver, config.PaymentConfig{StripeWebhookSecret: stripeSecret})

	for _, payload := range [][]byte{
		stripeEvent("payment_intent.created", `{"booking_id":"`+bookingID+`"}`),
		stripeEvent("payment_intent.succeeded", `{}`),
	} {
		assert.NoError(t, svc.HandleStripe(context.Background(), payload, signStripe(payload)))
	}
	approver.AssertNotCalled(t, "ApprovePayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestStripeValidationFailures(t *testing.T) {
	payload := stripeEvent("payment_intent.succeeded", `{"booking_id":"`+bookingID+`"}`)

	svc := newService(new(MockApprover), config.PaymentConfig{})
	requireWebhookError(t, svc.HandleStripe(context.Background(), payload, signStripe(payload)), http.StatusInternalServerError)

	svc = newService(new(MockApprover), config.PaymentConfig{StripeWebhookSecret: stripeSecret})
	requireWebhookError(t, svc.HandleStripe(context.Background(), payload, "t=1,v1=bad"), http.StatusBadRequest)
}

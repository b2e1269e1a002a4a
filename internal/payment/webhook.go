package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ms-booking/internal/booking"
	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// WebhookError represents an error that stops a webhook before any booking is
// touched. Everything after validation is acknowledged regardless.
type WebhookError struct {
	Category      string // "configuration", "authentication", "validation"
	StatusCode    int
	PublicError   string // Safe to expose to clients
	InternalError string // Detailed error for logs only
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

// Approver is the part of the booking service the webhooks drive.
type Approver interface {
	ApprovePayment(ctx context.Context, bookingID string, a booking.Approval) (bool, error)
}

type Service struct {
	Approver Approver
	Config   config.PaymentConfig
	Logger   *logger.Logger
}

func NewService(approver Approver, cfg config.PaymentConfig, log *logger.Logger) *Service {
	return &Service{Approver: approver, Config: cfg, Logger: log}
}

// HandleKashier validates a Kashier notification and approves the booking it
// names. A non-nil error is always a *WebhookError.
func (s *Service) HandleKashier(ctx context.Context, payload []byte, signature string) error {
	n, err := DecodeKashierNotification(payload)
	if err != nil {
		s.Logger.LogWebhook(models.ProviderKashier, fmt.Sprintf("Malformed payload: %v", err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("Failed to decode webhook payload: %v", err),
			OriginalErr:   err,
		}
	}

	if s.Config.WebhookTestMode {
		s.Logger.Warn("WEBHOOK", "Test mode: skipping Kashier signature validation")
	} else if err := s.verifyKashier(n, signature); err != nil {
		return err
	}

	s.Logger.LogWebhook(models.ProviderKashier, fmt.Sprintf("Received event %q", n.Event))

	bookingID := n.MerchantOrderID()
	if bookingID == "" {
		s.Logger.LogWebhook(models.ProviderKashier, "No merchant order id in webhook data")
		return nil
	}
	s.approve(ctx, models.ProviderKashier, bookingID, n.TransactionID())
	return nil
}

func (s *Service) verifyKashier(n *KashierNotification, signature string) error {
	if s.Config.KashierAPIKey == "" {
		s.Logger.Error("WEBHOOK", "KASHIER_API_KEY is not configured")
		return &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Server configuration error",
			InternalError: "Kashier API key is not configured",
		}
	}
	if signature == "" {
		s.Logger.LogSecurity("WEBHOOK", "Missing x-kashier-signature header")
		return &WebhookError{
			Category:      "authentication",
			StatusCode:    http.StatusUnauthorized,
			PublicError:   "Missing signature header",
			InternalError: "Kashier webhook without signature header",
		}
	}
	if !VerifyKashierSignature(n.Data, signature, s.Config.KashierAPIKey) {
		s.Logger.LogSecurity("WEBHOOK", fmt.Sprintf("Invalid Kashier signature %q", signature))
		return &WebhookError{
			Category:      "authentication",
			StatusCode:    http.StatusUnauthorized,
			PublicError:   "Invalid signature",
			InternalError: "Kashier signature verification failed",
		}
	}
	return nil
}

// HandleStripe verifies a Stripe-signed event and approves the booking named
// in a succeeded payment intent's metadata.
func (s *Service) HandleStripe(ctx context.Context, payload []byte, signature string) error {
	if s.Config.StripeWebhookSecret == "" {
		s.Logger.Error("WEBHOOK", "Stripe webhook secret is not configured")
		return &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	opts := webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.Config.StripeWebhookSecret, opts)
	if err != nil {
		s.Logger.LogSecurity("WEBHOOK", fmt.Sprintf("Stripe signature verification failed: %v", err))
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Webhook signature verification failed",
			InternalError: fmt.Sprintf("Webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	s.Logger.LogWebhook(models.ProviderStripe, fmt.Sprintf("Received event %s", event.Type))

	switch event.Type {
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			s.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to unmarshal payment intent: %v", err))
			return nil
		}
		bookingID := intent.Metadata["booking_id"]
		if bookingID == "" {
			s.Logger.LogWebhook(models.ProviderStripe, fmt.Sprintf("Payment intent %s has no booking_id in metadata", intent.ID))
			return nil
		}
		s.approve(ctx, models.ProviderStripe, bookingID, intent.ID)
	default:
		s.Logger.Debug("WEBHOOK", fmt.Sprintf("Unhandled Stripe event type: %s", event.Type))
	}
	return nil
}

// approve logs and swallows every failure so the gateway never retries.
func (s *Service) approve(ctx context.Context, provider, bookingID, transactionID string) {
	found, err := s.Approver.ApprovePayment(ctx, bookingID, booking.Approval{
		TransactionID: transactionID,
		Provider:      provider,
		Image:         s.Config.PaymentProofImageURL,
	})
	switch {
	case err != nil:
		s.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to approve booking %s via %s: %v", bookingID, provider, err))
	case !found:
		s.Logger.Warn("WEBHOOK", fmt.Sprintf("No booking %s for %s payment %s", bookingID, provider, transactionID))
	default:
		s.Logger.LogWebhook(provider, fmt.Sprintf("Booking %s approved (transaction %s)", bookingID, transactionID))
	}
}

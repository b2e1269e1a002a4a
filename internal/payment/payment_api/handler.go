package payment_api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-booking/internal/logger"
	"ms-booking/internal/payment"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// maxWebhookBody bounds what a gateway may post.
const maxWebhookBody = 1 << 20

type Handler struct {
	Service *payment.Service
	Logger  *logger.Logger
}

func NewHandler(service *payment.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// Routes mounts the gateway callbacks under the /api router.
func (h *Handler) Routes(r chi.Router) {
	r.Options("/payment/webhook", h.KashierPreflight)
	r.Post("/payment/webhook", h.KashierWebhook)
	r.Post("/payment/stripe/webhook", h.StripeWebhook)
}

func setKashierCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Kashier-Signature")
}

func (h *Handler) KashierPreflight(w http.ResponseWriter, r *http.Request) {
	setKashierCORS(w)
	w.WriteHeader(http.StatusOK)
}

// KashierWebhook acknowledges with 200 unless the request fails validation.
func (h *Handler) KashierWebhook(w http.ResponseWriter, r *http.Request) {
	setKashierCORS(w)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("KashierWebhook: failed to read body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if err := h.Service.HandleKashier(r.Context(), payload, r.Header.Get("x-kashier-signature")); err != nil {
		h.writeWebhookError(w, "KashierWebhook", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("StripeWebhook: failed to read body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	if err := h.Service.HandleStripe(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.writeWebhookError(w, "StripeWebhook", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *Handler) writeWebhookError(w http.ResponseWriter, op string, err error) {
	var webhookErr *payment.WebhookError
	if errors.As(err, &webhookErr) {
		h.Logger.Info("API", fmt.Sprintf("%s: rejected category=%s, status=%d", op, webhookErr.Category, webhookErr.StatusCode))
		utils.WriteError(w, webhookErr.StatusCode, webhookErr.PublicError)
		return
	}
	h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	utils.WriteError(w, http.StatusInternalServerError, "Webhook processing error")
}

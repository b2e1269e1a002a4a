package settings_api

import (
	"fmt"
	"net/http"

	"ms-booking/internal/logger"
	"ms-booking/internal/settings"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Reader *settings.Reader
	Logger *logger.Logger
}

func NewHandler(reader *settings.Reader, log *logger.Logger) *Handler {
	return &Handler{Reader: reader, Logger: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/settings/payment-mode", h.GetPaymentMode)
}

func (h *Handler) GetPaymentMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.Reader.PaymentMode()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetPaymentMode: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch payment mode")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"mode": mode})
}

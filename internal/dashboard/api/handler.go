package dashboard_api

import (
	"fmt"
	"net/http"

	"ms-booking/internal/dashboard"
	"ms-booking/internal/logger"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

// Handler serves the admin dashboard figures
type Handler struct {
	Service *dashboard.Service
	Logger  *logger.Logger
}

func NewHandler(service *dashboard.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// AdminRoutes mounts the dashboard under the /api/admin router.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/dashboard", h.GetDashboard)
}

// GetDashboard always answers 200; failed reads are listed under "errors".
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	stats := h.Service.Stats(r.Context())
	h.Logger.Debug("DASHBOARD", fmt.Sprintf("%d bookings, %d seats", stats.TotalBookings, stats.Seats.Total))
	utils.WriteJSON(w, http.StatusOK, stats)
}

package ticket_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/logger"
	"ms-booking/internal/tickets"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *tickets.Service
	Logger  *logger.Logger
}

func NewHandler(service *tickets.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// PublicRoutes mounts ticket downloads under the /api router.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/bookings/{bookingId}/seats/{seatId}/qr", h.GetQRCode)
}

// ScannerRoutes mounts the door scanner endpoints; callers wrap them in admin auth.
func (h *Handler) ScannerRoutes(r chi.Router) {
	r.Route("/scanner", func(r chi.Router) {
		r.Post("/check-in", h.scan(tickets.ModeCheckIn, h.Service.CheckIn))
		r.Post("/check-out", h.scan(tickets.ModeCheckOut, h.Service.CheckOut))
		r.Post("/info", h.scan(tickets.ModeInfo, h.Service.Info))
		r.Get("/attendees", h.ListAttendees)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tickets.ErrCodeRequired):
		return http.StatusBadRequest
	case errors.Is(err, tickets.ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, tickets.ErrNotApproved),
		errors.Is(err, tickets.ErrWrongBooking),
		errors.Is(err, tickets.ErrAlreadyCheckedIn),
		errors.Is(err, tickets.ErrNotCheckedIn):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, tickets.ErrCodeRequired):
		return "Ticket code is required"
	case errors.Is(err, tickets.ErrSeatNotFound):
		return "Seat not found"
	case errors.Is(err, tickets.ErrNotApproved):
		return "Seat has no approved booking"
	case errors.Is(err, tickets.ErrWrongBooking):
		return "Ticket does not match the seat's booking"
	case errors.Is(err, tickets.ErrAlreadyCheckedIn):
		return "Seat is already checked in"
	case errors.Is(err, tickets.ErrNotCheckedIn):
		return "Seat is not checked in"
	}
	return "Scan failed"
}

type scanFunc func(ctx context.Context, code string) (*tickets.ScanResult, error)

func (h *Handler) scan(mode string, fn scanFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.WriteJSON(w, http.StatusBadRequest, tickets.ScanResult{Message: "Invalid request body", Mode: mode})
			return
		}

		result, err := fn(r.Context(), body.Code)
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				h.Logger.Error("SCANNER", fmt.Sprintf("%s: %v", mode, err))
			} else {
				h.Logger.Info("SCANNER", fmt.Sprintf("%s rejected: %v", mode, err))
			}
			utils.WriteJSON(w, status, tickets.ScanResult{Message: messageFor(err), Mode: mode})
			return
		}
		utils.WriteJSON(w, http.StatusOK, result)
	}
}

func (h *Handler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	seats, err := h.Service.Attendees(r.Context())
	if err != nil {
		h.Logger.Error("SCANNER", err.Error())
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list attendees")
		return
	}
	utils.WriteJSON(w, http.StatusOK, seats)
}

// GetQRCode streams the PNG ticket for one seat.
func (h *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	seatID := chi.URLParam(r, "seatId")

	png, err := h.Service.QRCode(r.Context(), bookingID, seatID)
	if err != nil {
		switch {
		case errors.Is(err, tickets.ErrWrongBooking), errors.Is(err, tickets.ErrSeatNotFound):
			utils.WriteError(w, http.StatusNotFound, "Ticket not found")
		case errors.Is(err, tickets.ErrNotApproved):
			utils.WriteError(w, http.StatusConflict, "Booking is not approved yet")
		default:
			h.Logger.Error("API", fmt.Sprintf("GetQRCode %s/%s: %v", bookingID, seatID, err))
			utils.WriteError(w, http.StatusInternalServerError, "Failed to generate ticket")
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

package booking_api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *booking.Service
	Logger  *logger.Logger
}

func NewHandler(service *booking.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

type cancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type bookingsResponse struct {
	Success  bool              `json:"success"`
	Bookings []*models.Booking `json:"bookings"`
	Error    string            `json:"error,omitempty"`
}

// statusFor maps service errors to HTTP status codes. Store failures are 500
// and carry the store's message.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrBookingIDRequired),
		errors.Is(err, booking.ErrNoOrderIDs),
		errors.Is(err, booking.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrSeatUnavailable), errors.Is(err, booking.ErrInvalidState):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// messageFor is the client-facing text for err.
func messageFor(err error) string {
	switch {
	case errors.Is(err, booking.ErrBookingIDRequired):
		return "Booking ID is required"
	case errors.Is(err, booking.ErrNoOrderIDs):
		return "Order IDs array is required"
	case errors.Is(err, booking.ErrBookingNotFound):
		return "Booking not found"
	case errors.Is(err, booking.ErrSeatUnavailable):
		return "One or more seats are no longer available"
	case errors.Is(err, booking.ErrInvalidState):
		return "Booking is not in a state that allows this action"
	}
	return err.Error()
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
	}
	utils.WriteError(w, status, messageFor(err))
}

// decodeIDList reads {"orderIds": [...]}. A missing key or a non-array value
// is rejected. Elements that are not strings are kept as their JSON text so
// they end up reported as invalid ids.
func decodeIDList(r *http.Request) ([]string, bool) {
	var body struct {
		OrderIDs json.RawMessage `json:"orderIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, false
	}
	raw := bytes.TrimSpace(body.OrderIDs)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	ids := make([]string, 0, len(elems))
	for _, elem := range elems {
		var id string
		if err := json.Unmarshal(elem, &id); err != nil {
			id = string(bytes.TrimSpace(elem))
		}
		ids = append(ids, id)
	}
	return ids, true
}

// PublicRoutes mounts the customer-facing routes under the /api router.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Post("/cancel-order", h.CancelOrder)
	r.Post("/validate-order-ids", h.ValidateOrderIDs)
	r.Post("/get-bookings-by-ids", h.GetBookingsByIDs)
	r.Post("/bookings", h.CreateBooking)
	r.Get("/bookings/{bookingId}", h.GetBooking)
	r.Get("/bookings/{bookingId}/status", h.GetBookingStatus)
	r.Get("/bookings/{bookingId}/hold", h.GetHold)
	r.Post("/bookings/{bookingId}/payment-proof", h.SubmitPaymentProof)
}

// AdminRoutes mounts the dashboard routes under the /api/admin router.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/bookings", h.ListBookings)
	r.Post("/bookings/{bookingId}/approve", h.ApproveBooking)
	r.Post("/bookings/{bookingId}/reject", h.RejectBooking)
	r.Get("/seats", h.ListSeats)
}

// ---------------- ORDER ROUTES ----------------

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BookingID string `json:"bookingId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CancelOrder: bad body: %v", err))
		utils.WriteJSON(w, http.StatusBadRequest, cancelResponse{Error: "Booking ID is required"})
		return
	}

	if err := h.Service.Cancel(r.Context(), body.BookingID); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.Logger.Error("API", fmt.Sprintf("CancelOrder %s: %v", body.BookingID, err))
		}
		utils.WriteJSON(w, status, cancelResponse{Error: messageFor(err)})
		return
	}
	utils.WriteJSON(w, http.StatusOK, cancelResponse{Success: true, Message: "Order cancelled successfully"})
}

func (h *Handler) ValidateOrderIDs(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeIDList(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "orderIds must be an array")
		return
	}

	result, err := h.Service.ValidateOrderIDs(r.Context(), ids)
	if err != nil {
		h.fail(w, "ValidateOrderIDs", err)
		return
	}
	h.Logger.Debug("API", fmt.Sprintf("ValidateOrderIDs: %d valid, %d invalid", len(result.ValidIDs), len(result.InvalidIDs)))
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetBookingsByIDs(w http.ResponseWriter, r *http.Request) {
	ids, ok := decodeIDList(r)
	if !ok || len(ids) == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, bookingsResponse{Error: "Order IDs array is required"})
		return
	}

	bookings, err := h.Service.FetchByIDs(r.Context(), ids)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBookingsByIDs: %v", err))
		utils.WriteJSON(w, statusFor(err), bookingsResponse{Error: messageFor(err)})
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	utils.WriteJSON(w, http.StatusOK, bookingsResponse{Success: true, Bookings: bookings})
}

// ---------------- BOOKING ROUTES ----------------

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.Service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "CreateBooking", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	details, err := h.Service.Get(r.Context(), chi.URLParam(r, "bookingId"))
	if err != nil {
		h.fail(w, "GetBooking", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, details)
}

func (h *Handler) GetBookingStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Service.Status(r.Context(), chi.URLParam(r, "bookingId"))
	if err != nil {
		h.fail(w, "GetBookingStatus", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) GetHold(w http.ResponseWriter, r *http.Request) {
	hold, err := h.Service.Hold(r.Context(), chi.URLParam(r, "bookingId"))
	if err != nil {
		h.fail(w, "GetHold", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, hold)
}

func (h *Handler) SubmitPaymentProof(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	var body struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.Service.SubmitPaymentProof(r.Context(), bookingID, body.Image); err != nil {
		h.fail(w, "SubmitPaymentProof", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Payment proof received", map[string]string{"bookingId": bookingID}))
}

// ---------------- ADMIN ROUTES ----------------

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Service.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.fail(w, "ListBookings", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, bookings)
}

// adminName names the caller for the audit log.
func adminName(r *http.Request) string {
	if id := auth.UserID(r.Context()); id != "" {
		return id
	}
	return "unknown admin"
}

func (h *Handler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	if err := h.Service.Approve(r.Context(), bookingID); err != nil {
		h.fail(w, "ApproveBooking", err)
		return
	}
	h.Logger.LogBooking("ADMIN_APPROVE", bookingID, "approved by "+adminName(r))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking approved", map[string]string{"bookingId": bookingID}))
}

func (h *Handler) RejectBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	if err := h.Service.Reject(r.Context(), bookingID); err != nil {
		h.fail(w, "RejectBooking", err)
		return
	}
	h.Logger.LogBooking("ADMIN_REJECT", bookingID, "rejected by "+adminName(r))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booking rejected", map[string]string{"bookingId": bookingID}))
}

func (h *Handler) ListSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.Service.Seats(r.Context())
	if err != nil {
		h.fail(w, "ListSeats", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, seats)
}

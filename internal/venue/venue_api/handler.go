package venue_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/utils"
	"ms-booking/internal/venue"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *venue.Service
	Logger  *logger.Logger
}

func NewHandler(service *venue.Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

// PublicRoutes mounts the seat map reads under /api.
func (h *Handler) PublicRoutes(r chi.Router) {
	r.Get("/categories", h.GetVisibleCategories)
	r.Get("/venues/{venueId}/categories", h.GetVisibleCategories)
	r.Get("/seats", h.GetSeatMap)
	r.Get("/venues/{venueId}/seats", h.GetSeatMap)
}

// AdminRoutes mounts the visibility toggles under /api/admin.
func (h *Handler) AdminRoutes(r chi.Router) {
	r.Get("/venues/{venueId}/categories", h.GetAllCategories)
	r.Patch("/venues/{venueId}/categories/{name}", h.SetCategoryVisibility)
	r.Get("/category-settings", h.GetCategorySettings)
	r.Put("/category-settings", h.PutCategorySettings)
}

type categoriesResponse struct {
	VenueID    string            `json:"venueId"`
	Categories []models.Category `json:"categories"`
}

func (h *Handler) writeErr(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, venue.ErrVenueNotFound), errors.Is(err, venue.ErrCategoryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, venue.ErrVenueRequired), errors.Is(err, venue.ErrEmptyCategoryID):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	} else {
		h.Logger.Warn("API", fmt.Sprintf("%s: %v", op, err))
	}
	utils.WriteError(w, status, err.Error())
}

// GetVisibleCategories serves the public seat map. Without a venueId URL
// parameter the default venue is used.
func (h *Handler) GetVisibleCategories(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueId")
	categories, err := h.Service.VisibleCategories(r.Context(), venueID)
	if err != nil {
		h.writeErr(w, "GetVisibleCategories", err)
		return
	}
	if venueID == "" {
		venueID = h.Service.DefaultVenueID
	}
	utils.WriteJSON(w, http.StatusOK, categoriesResponse{VenueID: venueID, Categories: categories})
}

// GetSeatMap serves the seats of visible categories with their row, zone
// and live hold flag.
func (h *Handler) GetSeatMap(w http.ResponseWriter, r *http.Request) {
	seatMap, err := h.Service.SeatMap(r.Context(), chi.URLParam(r, "venueId"))
	if err != nil {
		h.writeErr(w, "GetSeatMap", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, seatMap)
}

func (h *Handler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueId")
	categories, err := h.Service.Categories(r.Context(), venueID)
	if err != nil {
		h.writeErr(w, "GetAllCategories", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, categoriesResponse{VenueID: venueID, Categories: categories})
}

func (h *Handler) SetCategoryVisibility(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueId")
	name := chi.URLParam(r, "name")

	var body struct {
		IsVisible *bool `json:"isVisible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IsVisible == nil {
		utils.WriteError(w, http.StatusBadRequest, "isVisible (boolean) is required")
		return
	}

	category, err := h.Service.SetCategoryVisibility(r.Context(), venueID, name, *body.IsVisible)
	if err != nil {
		h.writeErr(w, "SetCategoryVisibility", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, category)
}

func (h *Handler) GetCategorySettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.CategorySettings(r.Context())
	if err != nil {
		h.writeErr(w, "GetCategorySettings", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) PutCategorySettings(w http.ResponseWriter, r *http.Request) {
	var visibility map[string]bool
	if err := json.NewDecoder(r.Body).Decode(&visibility); err != nil || visibility == nil {
		utils.WriteError(w, http.StatusBadRequest, "Body must be an object of category: boolean")
		return
	}
	if err := h.Service.SaveCategorySettings(r.Context(), visibility); err != nil {
		h.writeErr(w, "PutCategorySettings", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Category settings saved", visibility))
}

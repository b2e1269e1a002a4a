package main

import (
	"net/http"

	"ms-booking/internal/booking/booking_api"
	"ms-booking/internal/config"
	dashboard_api "ms-booking/internal/dashboard/api"
	"ms-booking/internal/logger"
	"ms-booking/internal/payment/payment_api"
	"ms-booking/internal/settings/settings_api"
	"ms-booking/internal/tickets/ticket_api"
	"ms-booking/internal/utils"
	"ms-booking/internal/venue/venue_api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// webhookPrefix holds the gateway callbacks. Their CORS headers are set by
// the payment handler, so the browser CORS policy stays off these paths.
const webhookPrefix = "/api/payment/"

type handlers struct {
	Booking   *booking_api.Handler
	Venue     *venue_api.Handler
	Payment   *payment_api.Handler
	Settings  *settings_api.Handler
	Dashboard *dashboard_api.Handler
	Tickets   *ticket_api.Handler
}

func newRouter(cfg config.ServerConfig, h handlers, adminOnly func(http.Handler) http.Handler, logger *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(utils.SkipPrefix(webhookPrefix, cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		h.Booking.PublicRoutes(r)
		h.Venue.PublicRoutes(r)
		h.Payment.Routes(r)
		h.Settings.Routes(r)
		h.Tickets.PublicRoutes(r)
		logger.Info("ROUTER", "Public routes registered under /api")

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			h.Tickets.ScannerRoutes(r)
			r.Route("/admin", func(r chi.Router) {
				h.Booking.AdminRoutes(r)
				h.Venue.AdminRoutes(r)
				h.Dashboard.AdminRoutes(r)
			})
			logger.Info("ROUTER", "Admin and scanner routes registered behind admin auth")
		})
	})
	return r
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kmercado/casaway/internal/auth"
	"github.com/kmercado/casaway/internal/handlers"
	"github.com/kmercado/casaway/internal/middleware"
	"github.com/kmercado/casaway/internal/models"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Rooms    *handlers.RoomsHandler
	Bookings *handlers.BookingsHandler
	Admin    *handlers.AdminHandler

	Authenticator  auth.Authenticator
	MetricsHandler http.Handler
	HealthCheck    http.HandlerFunc
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers) {
	authLimit := middleware.RateLimitByIP(middleware.DefaultAuthRateLimit())
	apiLimit := middleware.RateLimitByIP(middleware.DefaultAPIRateLimit())

	router.Get("/health", h.HealthCheck)
	if h.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", h.MetricsHandler)
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(apiLimit)

		// Public routes - no authentication required
		r.With(authLimit).Post("/auth/register", h.Auth.Register)
		r.With(authLimit).Post("/auth/login", h.Auth.Login)

		r.Get("/rooms", h.Rooms.List)
		r.Get("/rooms/available", h.Rooms.Search)
		r.Get("/rooms/{roomID}", h.Rooms.Get)
		r.Get("/rooms/{roomID}/availability", h.Rooms.CheckAvailability)

		// Protected routes - authentication required
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.Authenticator))

			r.Post("/auth/logout", h.Auth.Logout)
			r.Post("/auth/logout-all", h.Auth.LogoutAll)
			r.Post("/auth/refresh-token", h.Auth.RefreshToken)
			r.Get("/auth/me", h.Auth.Me)
			r.Get("/auth/active-sessions", h.Auth.ActiveSessions)
			r.Delete("/auth/tokens/{tokenID}", h.Auth.RevokeToken)

			r.Post("/rooms/{roomID}/availability", h.Rooms.CreateAvailability)
			r.Delete("/rooms/{roomID}/availability/{windowID}", h.Rooms.DeleteAvailability)

			r.Post("/bookings", h.Bookings.Create)
			r.Get("/bookings", h.Bookings.List)
			r.Get("/bookings/{bookingID}", h.Bookings.Get)
			r.Post("/bookings/{bookingID}/confirm", h.Bookings.Confirm)
			r.Post("/bookings/{bookingID}/cancel", h.Bookings.Cancel)
			r.Post("/bookings/{bookingID}/review", h.Bookings.Review)
			r.Get("/payments/{paymentID}", h.Bookings.GetPayment)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleAdmin))
				r.Get("/admin/security-overview", h.Admin.SecurityOverview)
				r.Get("/admin/login-attempts", h.Admin.LoginAttempts)
			})
		})
	})
}

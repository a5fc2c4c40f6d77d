package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Lixing-Zhang/restaurant-pos/internal/catalog"
	"github.com/Lixing-Zhang/restaurant-pos/internal/config"
	"github.com/Lixing-Zhang/restaurant-pos/internal/handlers"
	"github.com/Lixing-Zhang/restaurant-pos/internal/middleware"
	"github.com/Lixing-Zhang/restaurant-pos/internal/repository"
	"github.com/Lixing-Zhang/restaurant-pos/internal/service"
	"github.com/Lixing-Zhang/restaurant-pos/internal/session"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type routeDeps struct {
	store    repository.Store
	sessions *session.Manager
	menu     *service.MenuService
	seed     *catalog.Loader
}

func newRouter(cfg *config.Config, log *slog.Logger, deps routeDeps) http.Handler {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.store, deps.sessions, log)
	menuHandler := handlers.NewMenuHandler(deps.menu, log)
	sessionHandler := handlers.NewSessionHandler(deps.sessions, log)
	adminHandler := handlers.NewAdminHandler(log)
	statsHandler := handlers.NewStatsHandler(deps.seed, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register health check endpoint
	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Get("/menu", menuHandler.ListMenu)
		r.Get("/menu/{itemId}", menuHandler.GetMenuItem)
		r.Post("/session", sessionHandler.Login)
		r.Post("/session/signup", sessionHandler.SignUp)

		// Endpoints acting on a signed-in session
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(deps.sessions))

			r.Get("/session", sessionHandler.Current)
			r.Delete("/session", sessionHandler.Logout)
			r.Post("/session/refresh", sessionHandler.Refresh)
			r.Post("/session/back", sessionHandler.Back)
			r.Post("/session/admin", sessionHandler.ToggleAdmin)
			r.Post("/session/order", sessionHandler.PlaceOrder)
			r.Post("/session/tables/{tableId}/select", sessionHandler.SelectTable)
			r.Post("/session/tables/{tableId}/reserve", sessionHandler.ReserveTable)
			r.Delete("/session/tables/{tableId}/reserve", sessionHandler.UnreserveTable)
			r.Post("/session/cart/{itemId}", sessionHandler.AddItem)
			r.Delete("/session/cart/{itemId}", sessionHandler.RemoveItem)

			// Role checks happen in the session
			r.Post("/admin/tables/{tableId}/release", adminHandler.ReleaseTable)
			r.Put("/admin/orders/{orderId}/status", adminHandler.UpdateOrderStatus)
			r.Post("/admin/orders/{orderId}/cancel", adminHandler.CancelOrder)
			r.Put("/admin/orders/{orderId}/lines", adminHandler.ReplaceOrderLines)
			r.Get("/admin/users", adminHandler.ListUsers)
			r.Put("/admin/users/{userId}/role", adminHandler.ChangeRole)
			r.Get("/admin/stats", statsHandler.GetStats)
		})
	})

	return r
}
